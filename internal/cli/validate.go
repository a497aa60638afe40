package cli

import (
	"github.com/spf13/cobra"

	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/topology"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a flow file for syntax and semantic problems",
		Long: `Validate a flow file. Syntax diagnostics from the parser are printed
with their line numbers, then the parsed topology is checked for semantic
problems: subsystems naming unknown nodes, events sourced at nodes that
do not exist, itineraries stepping between unconnected nodes, and
transformations referencing undeclared events.

The command exits non-zero when any problem is found, so it can gate a
commit hook or CI step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, input string) error {
	ctx := cmd.Context()

	source, _, err := loadSource(input)
	if err != nil {
		return err
	}

	runner, cfg, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer runner.Close()

	topo, cached := runner.ParseWithCacheInfo(ctx, source, pipelineOptions(cfg))

	for _, e := range topo.Errors {
		printDiagnostic(e.Line, e.Message)
	}

	res := topology.Validate(topo)
	for _, msg := range res.Errors {
		printError("%s", msg)
	}

	if problems := len(topo.Errors) + len(res.Errors); problems > 0 {
		word := "problems"
		if problems == 1 {
			word = "problem"
		}
		return errors.New(errors.ErrCodeInvalidInput, "validation found %d %s", problems, word)
	}

	printSuccess("Flow is valid")
	printStats(topo.NodeCount(), topo.EdgeCount(), cached)
	return nil
}
