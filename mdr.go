// Package mdr is the L5 façade for the Mining Data Records engine: it
// validates caller parameters, wires the tagtree/similarity/region/record
// layers together, and turns any internal invariant panic into
// ErrInternal rather than letting it escape to the caller.
package mdr

import (
	"fmt"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/mdr/record"
	"github.com/projectdiscovery/mdr/region"
	"github.com/projectdiscovery/mdr/similarity"
	"github.com/projectdiscovery/mdr/tagtree"
)

// Options configures a single mining run, per spec §3/§4.3.
type Options struct {
	// K is the maximum generalized-node length explored. Must be >= 1.
	K int
	// T is the similarity threshold in [0,1]; lower is stricter.
	T float64
	// Parallel enables the optional phase-offset fan-out in the region
	// finder, per spec §5.
	Parallel bool
}

func (o Options) validate() error {
	if o.K < 1 {
		return fmt.Errorf("%w: K must be >= 1, got %d", ErrInvalidParameter, o.K)
	}
	if o.T < 0 || o.T > 1 {
		return fmt.Errorf("%w: T must be in [0,1], got %f", ErrInvalidParameter, o.T)
	}
	return nil
}

func (o Options) toRegionOptions() region.Options {
	return region.Options{K: o.K, T: o.T, Parallel: o.Parallel}
}

// Result is the full output of one mining run, per spec §3.
type Result struct {
	Regions region.RegionsMap
	Records []record.Record
	Orphans []*tagtree.Node
}

// RunMDR identifies data regions in tree without extracting records,
// per spec §4.3.
func RunMDR(tree *tagtree.Tree, opts Options, cache *similarity.Cache) (regions region.RegionsMap, err error) {
	if tree == nil || tree.Root == nil {
		return nil, ErrInvalidTree
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = similarity.NewCache()
	}

	defer func() {
		if r := recover(); r != nil {
			gologger.Error().Msgf("mdr: recovered panic in RunMDR: %v", r)
			err = fmt.Errorf("%w: %v", ErrInternal, r)
			regions = nil
		}
	}()

	return region.RunMDR(tree.Root, opts.K, opts.T, cache, opts.toRegionOptions()), nil
}

// IdentifyRecords extracts records from an already computed RegionsMap,
// per spec §4.4.
func IdentifyRecords(tree *tagtree.Tree, regions region.RegionsMap, opts Options, cache *similarity.Cache) (records []record.Record, err error) {
	if tree == nil || tree.Root == nil {
		return nil, ErrInvalidTree
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = similarity.NewCache()
	}

	defer func() {
		if r := recover(); r != nil {
			gologger.Error().Msgf("mdr: recovered panic in IdentifyRecords: %v", r)
			err = fmt.Errorf("%w: %v", ErrInternal, r)
			records = nil
		}
	}()

	return record.ExtractRecords(regions, opts.T, tree, cache)
}

// FindOrphans runs the orphan recovery sweep described in spec §4.5.
func FindOrphans(tree *tagtree.Tree, regions region.RegionsMap, opts Options, cache *similarity.Cache) (orphans []*tagtree.Node, err error) {
	if tree == nil || tree.Root == nil {
		return nil, ErrInvalidTree
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = similarity.NewCache()
	}

	defer func() {
		if r := recover(); r != nil {
			gologger.Error().Msgf("mdr: recovered panic in FindOrphans: %v", r)
			err = fmt.Errorf("%w: %v", ErrInternal, r)
			orphans = nil
		}
	}()

	return record.FindOrphans(regions, opts.T, tree, cache), nil
}

// RunFull runs the complete L3 → L4 → L5 pipeline over tree: region
// finding, record extraction, then orphan recovery, returning a single
// Result. It shares one similarity.Cache across all three stages so
// node-pair distances computed during region finding are reused during
// extraction and orphan recovery, per spec §4.2/§5's memoization intent.
func RunFull(tree *tagtree.Tree, opts Options) (*Result, error) {
	if tree == nil || tree.Root == nil {
		return nil, ErrInvalidTree
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	cache := similarity.NewCache()

	regions, err := RunMDR(tree, opts, cache)
	if err != nil {
		return nil, err
	}

	records, err := IdentifyRecords(tree, regions, opts, cache)
	if err != nil {
		return nil, err
	}

	orphans, err := FindOrphans(tree, regions, opts, cache)
	if err != nil {
		return nil, err
	}

	gologger.Info().Msgf("mdr: found %d region(s), %d record(s), %d orphan(s)", len(regions), len(records), len(orphans))

	return &Result{Regions: regions, Records: records, Orphans: orphans}, nil
}

// EditDistance is a convenience wrapper over similarity.EditDistance
// for callers who only need the raw string-distance primitive, per
// spec §4.2.
func EditDistance(a, b string) float64 {
	return similarity.EditDistance(a, b)
}
