package mdr

import "github.com/projectdiscovery/utils/errkit"

// Sentinel errors returned by the façade, per spec §6's error taxonomy.
// Callers should use errors.Is against these.
var (
	// ErrInvalidTree is returned when the root node given to the
	// façade is nil.
	ErrInvalidTree = errkit.New("mdr: invalid tree")

	// ErrInvalidParameter is returned when K < 1 or T is outside [0,1].
	ErrInvalidParameter = errkit.New("mdr: invalid parameter")

	// ErrInternal wraps a recovered panic from a core invariant
	// violation, per spec §6/§9: lower layers assume their
	// preconditions hold and panic loudly on violation; the façade is
	// the single place that turns a panic into an error value.
	ErrInternal = errkit.New("mdr: internal invariant violation")
)
