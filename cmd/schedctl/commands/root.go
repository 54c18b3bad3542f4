package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/smart-schedule/internal/clock"
	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Enqueuer is the part of the job queue the enqueue command needs
type Enqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
	Close() error
}

// Globals holds the flags shared by every subcommand
type Globals struct {
	File          string
	EnvFile       string
	Output        string
	Now           string
	DayPicker     string
	PriorityDelta int
	DurationDelta int
	Debug         bool

	// Connect opens the job queue for the enqueue command
	Connect func(ctx context.Context, url string, log *zap.Logger) (Enqueuer, error)
}

// NewRootCmd creates the schedctl command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&Globals{
		Connect: func(ctx context.Context, url string, log *zap.Logger) (Enqueuer, error) {
			return queue.ConnectWithRetry(ctx, url, 1, log)
		},
	})
}

func newRootCmd(g *Globals) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "schedctl",
		Short:         "Run the smart-schedule engine against request fixtures",
		Long:          "CLI tool that evaluates slot searches, planning contexts and reschedule decisions from YAML or JSON request files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(g.EnvFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.File, "file", "f", "-", "Request file in YAML or JSON (- reads stdin)")
	flags.StringVar(&g.EnvFile, "env-file", ".env", "Optional dotenv file; variables already set win")
	flags.StringVarP(&g.Output, "output", "o", "json", "Output format: json or yaml")
	flags.StringVar(&g.Now, "now", "", "Evaluate as of this RFC 3339 instant instead of the wall clock")
	flags.StringVar(&g.DayPicker, "day-picker", "", "Override SCHEDULING_DAY_PICKER (first or highest_energy)")
	flags.IntVar(&g.PriorityDelta, "priority-delta", 0, "Override RESCHEDULE_PRIORITY_DELTA")
	flags.IntVar(&g.DurationDelta, "duration-delta", 0, "Override RESCHEDULE_DURATION_DELTA_MINUTES")
	flags.BoolVar(&g.Debug, "debug", false, "Log engine decisions to stderr")

	rootCmd.AddCommand(NewSlotsCmd(g))
	rootCmd.AddCommand(NewPlanCmd(g))
	rootCmd.AddCommand(NewChunksCmd(g))
	rootCmd.AddCommand(NewRescheduleCmd(g))
	rootCmd.AddCommand(NewCognitiveLoadCmd(g))
	rootCmd.AddCommand(NewEnqueueCmd(g))

	return rootCmd
}

func (g *Globals) logger() (*zap.Logger, error) {
	// stdout carries the result document, so logging stays off unless asked for
	if !g.Debug {
		return zap.NewNop(), nil
	}
	log, err := logger.NewDevelopmentLogger(true)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// engine builds an engine from the environment with flag overrides applied on top
func (g *Globals) engine(log *zap.Logger) (*scheduling.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if g.DayPicker != "" {
		if _, err := scheduling.DayPickerByName(g.DayPicker); err != nil {
			return nil, err
		}
		cfg.DayPicker = g.DayPicker
	}
	if g.PriorityDelta < 0 || g.DurationDelta < 0 {
		return nil, fmt.Errorf("--priority-delta and --duration-delta must not be negative")
	}
	if g.PriorityDelta > 0 {
		cfg.ReschedulePriorityDelta = g.PriorityDelta
	}
	if g.DurationDelta > 0 {
		cfg.RescheduleDurationDelta = time.Duration(g.DurationDelta) * time.Minute
	}

	var clk clock.Clock = clock.Real{}
	if g.Now != "" {
		now, err := time.Parse(time.RFC3339, g.Now)
		if err != nil {
			return nil, fmt.Errorf("--now must be an RFC 3339 timestamp: %w", err)
		}
		clk = clock.Fixed(now.UTC())
	}

	opts := append(cfg.EngineOptions(), scheduling.WithClock(clk), scheduling.WithLogger(log))
	return scheduling.NewEngine(opts...), nil
}

// run loads the request into req, validates it and writes whatever eval returns
func run[T any](cmd *cobra.Command, g *Globals, validate func(*T) error, eval func(*scheduling.Engine, *T) any) error {
	log, err := g.logger()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	engine, err := g.engine(log)
	if err != nil {
		return err
	}

	var req T
	if err := readRequest(cmd, g.File, &req); err != nil {
		return err
	}
	if err := validate(&req); err != nil {
		return describe(err)
	}

	return writeOutput(cmd.OutOrStdout(), g.Output, eval(engine, &req))
}
