package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowviz/flowviz/pkg/pipeline"
)

func newRenderCmd() *cobra.Command {
	var (
		output     string
		formatsStr string
		graphviz   bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a flow to SVG, DOT, or PNG",
		Long: `Run the full parse, layout, and render pipeline on a flow file and write
the resulting artifacts.

SVG uses the built-in layered renderer unless --graphviz hands placement
to Graphviz. DOT emits the flow as Graphviz source, and PNG rasterizes
through the Graphviz engine. Every stage is cached, so re-rendering an
unchanged flow writes the cached artifacts straight back out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], output, parseFormats(formatsStr), graphviz, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple, - for stdout)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().BoolVar(&graphviz, "graphviz", false, "let Graphviz place nodes in the SVG output")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-render even when cached artifacts exist")
	addSpacingFlags(cmd)
	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to the standard format.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	parts := strings.Split(s, ",")
	formats := make([]string, 0, len(parts))
	for _, p := range parts {
		formats = append(formats, strings.TrimSpace(p))
	}
	return formats
}

// basePath derives the base output path from the output and input paths.
// An explicit output keeps its path with any format extension stripped;
// otherwise the input path is used without its extension. Artifact paths
// are built as base.<format>.
func basePath(output, input string) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return strings.TrimSuffix(base, ".scene")
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidateFormat(ext) == nil {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

func runRender(cmd *cobra.Command, input, output string, formats []string, graphviz, refresh bool) error {
	ctx := cmd.Context()

	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	source, _, err := loadSource(input)
	if err != nil {
		return err
	}

	runner, cfg, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := spacingOptions(cmd, cfg)
	opts.Formats = formats
	opts.Graphviz = graphviz
	opts.Refresh = refresh

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	result, err := runner.Execute(ctx, source, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, e := range result.Topology.Errors {
		printDiagnostic(e.Line, e.Message)
	}

	if len(formats) == 1 && output == "-" {
		_, err := os.Stdout.Write(result.Artifacts[formats[0]])
		return err
	}

	base := basePath(output, input)
	written := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	ci := result.CacheInfo
	printSuccess("Render complete")
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, ci.ParseHit && ci.LayoutHit && ci.RenderHit)
	printNewline()
	printNextStep("Watch it run", "flowviz play "+input)

	return nil
}
