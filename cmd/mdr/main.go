package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/mdr"
	"github.com/projectdiscovery/mdr/internal/runner"
	"github.com/projectdiscovery/mdr/internal/treeio"
	"github.com/projectdiscovery/mdr/record"
	"github.com/projectdiscovery/mdr/tagtree"
)

func main() {
	cliOpts := runner.ParseFlags()

	root, err := treeio.LoadFile(cliOpts.Input)
	if err != nil {
		gologger.Fatal().Msgf("failed to load tag tree %v got %v", cliOpts.Input, err)
	}
	tree := tagtree.NewTree(root)

	result, err := mdr.RunFull(tree, mdr.Options{K: cliOpts.K, T: cliOpts.T, Parallel: cliOpts.Parallel})
	if err != nil {
		gologger.Fatal().Msgf("mdr run failed: %v", err)
	}

	output := getOutputWriter(cliOpts.Output)
	defer closeOutput(output, cliOpts.Output)

	if err := writeResult(output, result); err != nil {
		gologger.Error().Msgf("failed to write output got %v", err)
	}

	gologger.Info().Msgf("mined %d region(s), %d record(s), %d orphan(s) from %s", len(result.Regions), len(result.Records), len(result.Orphans), cliOpts.Input)
}

// recordXPaths is the interface both record.Single and record.Multi
// satisfy, letting writeResult treat them uniformly.
type recordXPaths interface {
	XPaths() []string
}

// writeResult renders a Result as one JSON object per line: the
// record's xpaths, so the CLI output stays greppable and line-oriented
// the way the teacher's wordlist output is.
func writeResult(w io.Writer, result *mdr.Result) error {
	enc := json.NewEncoder(w)
	for i, r := range result.Records {
		xp, ok := r.(recordXPaths)
		if !ok {
			continue
		}
		entry := map[string]any{
			"index":  i,
			"xpaths": xp.XPaths(),
		}
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	for _, o := range result.Orphans {
		entry := map[string]any{
			"orphan": o.XPath,
		}
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

var _ recordXPaths = record.Single{}
var _ recordXPaths = record.Multi{}

func getOutputWriter(outputPath string) io.Writer {
	if outputPath != "" {
		fs, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			gologger.Fatal().Msgf("failed to open output file %v got %v", outputPath, err)
		}
		return fs
	}
	return os.Stdout
}

func closeOutput(output io.Writer, outputPath string) {
	if outputPath != "" {
		if closer, ok := output.(io.Closer); ok {
			closer.Close()
		}
	}
}
