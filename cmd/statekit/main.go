package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/statekit/entity"
	"github.com/tailored-agentic-units/statekit/observability"
)

// cliObserver is the registry name of the observer the CLI wires by default:
// structured logs plus the Prometheus event counter.
const cliObserver = "cli"

type options struct {
	configFile string
	verbose    bool
	metrics    bool
	seed       uint64
}

// env is what every demo receives.
type env struct {
	out io.Writer
	cfg *entity.Config
	rnd *rand.Rand
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatalf("statekit: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "statekit",
		Short:         "Replay the state, observer and memento demonstrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to entity config (JSON or YAML)")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging to stderr")
	root.PersistentFlags().BoolVar(&opts.metrics, "metrics", false, "Print event counters after the run")
	root.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "Random seed (0 uses the current time)")

	demos := []struct {
		use   string
		short string
		run   func(context.Context, *env) error
	}{
		{"state", "Handlers that hand the machine to each other", runState},
		{"observer", "Subscribers reacting to random state changes", runObserver},
		{"memento", "Backups, history listing and undo", runMemento},
		{"entity", "A document combining handlers, subscribers and undo", runEntity},
	}

	all := make([]func(context.Context, *env) error, 0, len(demos))
	for _, d := range demos {
		all = append(all, d.run)
		root.AddCommand(&cobra.Command{
			Use:   d.use,
			Short: d.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return execute(cmd, opts, d.run)
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Run every demonstration in turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, func(ctx context.Context, e *env) error {
				for i, run := range all {
					if i > 0 {
						fmt.Fprintln(e.out)
					}
					if err := run(ctx, e); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})

	return root
}

func execute(cmd *cobra.Command, opts *options, run func(context.Context, *env) error) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	reg := prometheus.NewRegistry()
	counter, err := observability.NewPrometheusObserver(reg)
	if err != nil {
		return err
	}

	slogObserver := observability.NewSlogObserver(logger)
	observability.RegisterObserver("slog", slogObserver)
	observability.RegisterObserver("prometheus", counter)
	observability.RegisterObserver(cliObserver, observability.NewMultiObserver(slogObserver, counter))

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	e := &env{
		out: cmd.OutOrStdout(),
		cfg: cfg,
		rnd: rand.New(rand.NewPCG(seed, seed)),
	}
	if err := run(cmd.Context(), e); err != nil {
		return err
	}

	if opts.metrics {
		return printMetrics(e.out, reg)
	}
	return nil
}

// loadConfig reads the config file when one is given; otherwise every part
// reports to the CLI observer.
func loadConfig(path string) (*entity.Config, error) {
	if path != "" {
		cfg, err := entity.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	cfg := entity.DefaultConfig()
	cfg.Machine.Observer = cliObserver
	cfg.Subject.Observer = cliObserver
	cfg.History.Observer = cliObserver
	return &cfg, nil
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w, "\nMetrics:")
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
	return nil
}
