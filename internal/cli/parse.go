package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/flowviz/flowviz/pkg/errors"
	pkgio "github.com/flowviz/flowviz/pkg/io"
	"github.com/flowviz/flowviz/pkg/topology"
)

func newParseCmd() *cobra.Command {
	var (
		output  string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a flow file and summarize its topology",
		Long: `Parse a flow file and print the nodes, edges, and event declarations it
defines. Syntax problems are reported line by line as warnings; parsing
always yields a topology built from the lines that were understood.

The input may be a .flow file, a scene file (.json, .yaml, .yml) whose
embedded source is re-parsed, or - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], output, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write topology JSON to a file (- for stdout)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-parse even when a cached topology exists")
	return cmd
}

func runParse(cmd *cobra.Command, input, output string, refresh bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	source, _, err := loadSource(input)
	if err != nil {
		return err
	}

	runner, cfg, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipelineOptions(cfg)
	opts.Refresh = refresh

	prog := newProgress(logger)
	topo, cached := runner.ParseWithCacheInfo(ctx, source, opts)
	prog.done(fmt.Sprintf("Parsed %d nodes, %d edges", topo.NodeCount(), topo.EdgeCount()))

	for _, e := range topo.Errors {
		printDiagnostic(e.Line, e.Message)
	}

	if output != "" {
		if err := writeTopology(topo, output); err != nil {
			return err
		}
		if output == "-" {
			return nil
		}
		printSuccess("Parse complete")
		printFile(output)
		printStats(topo.NodeCount(), topo.EdgeCount(), cached)
		return nil
	}

	printTopologySummary(topo)
	printStats(topo.NodeCount(), topo.EdgeCount(), cached)
	printNewline()
	printNextStep("Compute a layout", "flowviz layout "+input)
	return nil
}

// printTopologySummary renders the node and event tables for a parsed
// topology.
func printTopologySummary(topo *topology.Topology) {
	if len(topo.Nodes) > 0 {
		rows := make([][]string, 0, len(topo.Nodes))
		for _, n := range topo.Nodes {
			rows = append(rows, []string{n.ID, string(n.Type), n.Attrs.Label})
		}
		fmt.Println(summaryTable([]string{"ID", "Type", "Label"}, rows))
	}

	if len(topo.Events) > 0 {
		rows := make([][]string, 0, len(topo.Events))
		for _, ev := range topo.Events {
			from := ev.Source
			if from == "" {
				from = "all sources"
			}
			rows = append(rows, []string{
				ev.Name,
				ev.Color,
				ev.Shape,
				fmt.Sprintf("%.1f/s", ev.Rate),
				from,
			})
		}
		fmt.Println(summaryTable([]string{"Event", "Color", "Shape", "Rate", "From"}, rows))
	}

	if len(topo.Transformations) > 0 || len(topo.Subsystems) > 0 {
		printDetail("%d transformations, %d subsystems", len(topo.Transformations), len(topo.Subsystems))
	}
}

// summaryTable renders headers and rows as a rounded-border table.
func summaryTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

// loadSource reads flow source text for a command input argument. "-" reads
// stdin. Scene files contribute their embedded source; anything else is
// treated as raw flow text. The returned name is the input's base name
// without extension, suitable as a default scene name.
func loadSource(path string) (source, name string, err error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "untitled", nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		sc, err := pkgio.ImportScene(path)
		if err != nil {
			return "", "", err
		}
		if sc.Name != "" {
			return sc.Source, sc.Name, nil
		}
		return sc.Source, baseName(path), nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", "", errors.Wrap(errors.ErrCodeFileNotFound, err, "flow file %s", path)
	}
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), baseName(path), nil
}

// baseName returns the file name of path without its extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeTopology writes a topology as indented JSON to path, or to stdout
// when path is "-".
func writeTopology(topo *topology.Topology, path string) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	data, err := json.MarshalIndent(topo, "", "  ")
	if err != nil {
		return fmt.Errorf("encode topology: %w", err)
	}
	data = append(data, '\n')
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write topology: %w", err)
	}
	return nil
}

// openOutput opens path for writing, or wraps stdout when path is "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
