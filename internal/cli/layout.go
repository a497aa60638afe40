package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowviz/flowviz/pkg/config"
	pkgio "github.com/flowviz/flowviz/pkg/io"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/pipeline"
	"github.com/flowviz/flowviz/pkg/scene"
)

func newLayoutCmd() *cobra.Command {
	var (
		output  string
		name    string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout <file>",
		Short: "Compute node positions and write a scene file",
		Long: `Parse a flow file, position its nodes with the layered layout, and bundle
source, topology, and layout into a scene file.

Scene files are the interchange format of the toolchain: render and play
accept them directly, and the HTTP server stores them. The output format
follows the file extension (.json, .yaml, .yml).

Layouts are cached locally, so repeated runs on an unchanged file are
instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd, args[0], output, name, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output scene file (default: <input>.scene.json, - for stdout)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "scene name (default: input file name)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached layout exists")
	addSpacingFlags(cmd)
	return cmd
}

// addSpacingFlags registers the layout geometry flags shared by the layout
// and render commands. Defaults shown in help are the built-in geometry;
// values from the config file apply unless the flag is set explicitly.
func addSpacingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("h-spacing", layout.DefaultHSpacing, "horizontal gap between layers")
	cmd.Flags().Float64("v-spacing", layout.DefaultVSpacing, "vertical gap between nodes in a layer")
	cmd.Flags().Float64("node-width", layout.DefaultNodeWidth, "node box width")
	cmd.Flags().Float64("node-height", layout.DefaultNodeHeight, "node box height")
}

// spacingOptions layers explicit geometry flags over the config-derived
// pipeline options.
func spacingOptions(cmd *cobra.Command, cfg *config.Config) pipeline.Options {
	opts := pipelineOptions(cfg)
	f := cmd.Flags()
	if f.Changed("h-spacing") {
		opts.HSpacing, _ = f.GetFloat64("h-spacing")
	}
	if f.Changed("v-spacing") {
		opts.VSpacing, _ = f.GetFloat64("v-spacing")
	}
	if f.Changed("node-width") {
		opts.NodeWidth, _ = f.GetFloat64("node-width")
	}
	if f.Changed("node-height") {
		opts.NodeHeight, _ = f.GetFloat64("node-height")
	}
	return opts
}

func runLayout(cmd *cobra.Command, input, output, name string, refresh bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	source, inputName, err := loadSource(input)
	if err != nil {
		return err
	}

	runner, cfg, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := spacingOptions(cmd, cfg)
	opts.Refresh = refresh

	prog := newProgress(logger)
	topo := runner.Parse(ctx, source, opts)
	lay, cacheHit := runner.LayoutWithCacheInfo(ctx, topo, opts)
	prog.done(fmt.Sprintf("Positioned %d nodes", topo.NodeCount()))

	for _, e := range topo.Errors {
		printDiagnostic(e.Line, e.Message)
	}

	if name == "" {
		name = inputName
	}
	sc := scene.New(name, source, topo, lay)

	if output == "-" {
		return pkgio.WriteScene(sc, os.Stdout, pkgio.FormatJSON)
	}

	outputPath := output
	if outputPath == "" {
		outputPath = sceneFileName(input)
	}
	if err := pkgio.ExportScene(sc, outputPath); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(topo.NodeCount(), topo.EdgeCount(), cacheHit)
	printNewline()
	printNextStep("Render", "flowviz render "+outputPath)

	return nil
}

// sceneFileName derives the default scene output path from the input path.
// Re-laying-out an existing scene file keeps its path stable instead of
// stacking extensions.
func sceneFileName(input string) string {
	if input == "-" {
		return "scene.json"
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".scene")
	return base + ".scene.json"
}
