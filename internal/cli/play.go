package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/flowviz/flowviz/pkg/config"
	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/sim"
)

func newPlayCmd() *cobra.Command {
	var (
		speed    float64
		fps      int
		travelMs float64
		seed     uint64
	)
	defaults := config.Default().Sim

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Animate the particle simulation in the terminal",
		Long: `Parse and lay out a flow, then animate its event particles in an
interactive terminal view.

Controls:

  space        pause and resume
  + / -        double or halve the playback speed
  r            restart the simulation
  q            quit

Spawn timing is seeded, so two runs with the same seed replay the same
simulation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, args[0], speed, fps, travelMs, seed)
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 1.0, "playback speed multiplier")
	cmd.Flags().IntVar(&fps, "fps", defaults.FPS, "animation frame rate")
	cmd.Flags().Float64Var(&travelMs, "travel-ms", defaults.TravelMs, "milliseconds for a particle to cross one edge")
	cmd.Flags().Uint64Var(&seed, "seed", defaults.Seed, "spawn timing seed")
	return cmd
}

func runPlay(cmd *cobra.Command, input string, speed float64, fps int, travelMs float64, seed uint64) error {
	ctx := cmd.Context()

	source, name, err := loadSource(input)
	if err != nil {
		return err
	}

	runner, cfg, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer runner.Close()

	// Config supplies the simulation defaults unless a flag was set.
	f := cmd.Flags()
	if !f.Changed("fps") && cfg.Sim.FPS > 0 {
		fps = cfg.Sim.FPS
	}
	if !f.Changed("travel-ms") && cfg.Sim.TravelMs > 0 {
		travelMs = cfg.Sim.TravelMs
	}
	if !f.Changed("seed") {
		seed = cfg.Sim.Seed
	}
	if fps < 1 || fps > 240 {
		return errors.New(errors.ErrCodeInvalidInput, "fps must be between 1 and 240, got %d", fps)
	}
	if speed <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "speed must be positive, got %g", speed)
	}

	opts := pipelineOptions(cfg)
	topo := runner.Parse(ctx, source, opts)
	for _, e := range topo.Errors {
		printDiagnostic(e.Line, e.Message)
	}
	if topo.NodeCount() == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "flow has no nodes to animate")
	}
	lay := runner.ComputeLayout(ctx, topo, opts)

	simulator := sim.New(topo, lay)
	simulator.TravelMs = travelMs
	sched := sim.NewScheduler(simulator, sim.NewSpawner(simulator, seed), nil)
	sched.SetSpeed(speed)

	m := newPlayerModel(name, lay, sched, time.Second/time.Duration(fps))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("player: %w", err)
	}

	if fm, ok := final.(playerModel); ok && fm.frame.Tick > 0 {
		printDetail("%d ticks, %d events delivered", fm.frame.Tick, fm.frame.Completed)
	}
	return nil
}
