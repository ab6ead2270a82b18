package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"deskpet/internal/pet"
)

// script is a timed list of interactions replayed against a virtual clock
type script struct {
	Steps  []step        `yaml:"steps"`
	Until  time.Duration `yaml:"until"`
	Bounds *scriptBounds `yaml:"bounds"`
}

type step struct {
	At     time.Duration `yaml:"at"`
	Event  string        `yaml:"event"`
	X      int           `yaml:"x"`
	Y      int           `yaml:"y"`
	Key    string        `yaml:"key"`
	Action string        `yaml:"action"`
}

type scriptBounds struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	PetWidth  int `yaml:"petWidth"`
	PetHeight int `yaml:"petHeight"`
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <script.yaml>",
		Short: "Replay scripted interactions and print what the pet does",
		Long: "Replays a YAML script of timed interactions on a virtual clock and prints every\n" +
			"command the pet sends with its timestamp. Example:\n\n" +
			"  until: 70s\n" +
			"  steps:\n" +
			"    - {at: 0s, event: click}\n" +
			"    - {at: 1s, event: keyPress, key: \"2\"}\n",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, _ := cmd.Flags().GetInt64("seed")

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}
			sc, err := parseScript(data)
			if err != nil {
				return err
			}

			env, err := loadEnv(false)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			return runSimulation(cmd.OutOrStdout(), sc, env.catalog, env.settings.MachineConfig(), seed, env.log)
		},
	}
	cmd.Flags().Int64("seed", 1, "Seed for random animation picks")
	return cmd
}

func parseScript(data []byte) (script, error) {
	var sc script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("failed to parse script: %w", err)
	}
	var last time.Duration
	for i, st := range sc.Steps {
		if _, ok := pet.ParseInteractionKind(st.Event); !ok {
			return sc, fmt.Errorf("step %d: unknown event %q", i+1, st.Event)
		}
		if st.At < last {
			return sc, fmt.Errorf("step %d: at %s is before the previous step", i+1, st.At)
		}
		last = st.At
	}
	if sc.Until < last {
		sc.Until = last
	}
	return sc, nil
}

// runSimulation attaches a machine to a printing surface and feeds it the
// script's steps, advancing the virtual clock between them.
func runSimulation(w io.Writer, sc script, catalog *pet.Catalog, cfg pet.Config, seed int64, log *zap.Logger) error {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	sched := pet.NewManualScheduler(start)
	rng := rand.New(rand.NewSource(seed))

	ps := &printSurface{w: w, sched: sched, start: start}
	var surface pet.Surface = ps
	if sc.Bounds != nil {
		surface = boundedPrintSurface{printSurface: ps, bounds: pet.Bounds(*sc.Bounds)}
	}

	m := pet.New(sched, cfg, pet.WithLogger(log), pet.WithRand(rng.Intn))
	if err := m.Attach(surface, catalog); err != nil {
		return fmt.Errorf("attach pet: %w", err)
	}
	defer m.Detach()

	for _, st := range sc.Steps {
		sched.AdvanceTo(start.Add(st.At))
		kind, _ := pet.ParseInteractionKind(st.Event)
		m.HandleInteraction(pet.Interaction{Kind: kind, X: st.X, Y: st.Y, Key: st.Key, Action: st.Action})
	}
	sched.AdvanceTo(start.Add(sc.Until))

	x, y := m.Position()
	fmt.Fprintf(w, "%8s  end %s %s at (%d, %d)\n", sched.Now().Sub(start), m.CurrentAnimation(), m.Phase(), x, y)
	return nil
}

// printSurface writes each command with the virtual time it was issued
type printSurface struct {
	w     io.Writer
	sched *pet.ManualScheduler
	start time.Time
}

func (p *printSurface) printf(format string, args ...any) {
	fmt.Fprintf(p.w, "%8s  ", p.sched.Now().Sub(p.start))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printSurface) ApplyAnimation(cmd pet.AnimationCommand) {
	p.printf("setAnimation %s (%s, %d frames, %s)", cmd.Name, cmd.Sprite, cmd.Frames, cmd.Duration)
}

func (p *printSurface) ShowEffect(e pet.Effect) {
	p.printf("effect %s", e)
}

func (p *printSurface) Notify(n pet.Notification) {
	switch n.Kind {
	case pet.NotifyPositionChanged, pet.NotifyPositionReset:
		p.printf("%s (%d, %d)", n.Kind, n.X, n.Y)
	default:
		p.printf("%s", n.Kind)
	}
}

type boundedPrintSurface struct {
	*printSurface
	bounds pet.Bounds
}

func (b boundedPrintSurface) VisibleBounds() pet.Bounds {
	return b.bounds
}
