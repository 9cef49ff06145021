package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"javamig/internal/config"
	"javamig/internal/logging"
	"javamig/internal/oracle"
	"javamig/internal/plan"
	"javamig/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:           "javamig",
		Short:         "Migrate a Java 8 / Spring Boot 2 project to Java 17 / Spring Boot 3",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	configPath string
	ledgerPath string
	verbose    bool
	logger     *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the javamig YAML config")
	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "Path to the SQLite run ledger (overrides config; \"off\" disables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(migrateBuildCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(reportCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	switch ledgerPath {
	case "":
	case "off":
		cfg.Ledger.Path = ""
	default:
		cfg.Ledger.Path = ledgerPath
	}
	return cfg, nil
}

// initOracle builds the oracle client selected by the config.
func initOracle(ctx context.Context, cfg *config.Config) (*oracle.Client, error) {
	return oracle.New(ctx, oracle.Options{
		Provider:          cfg.Oracle.Provider,
		Model:             cfg.Oracle.Model,
		APIKey:            cfg.Oracle.APIKey,
		BaseURL:           cfg.Oracle.BaseURL,
		Temperature:       cfg.Oracle.Temperature,
		Timeout:           cfg.Oracle.Timeout,
		RequestsPerMinute: cfg.Oracle.RequestsPerMinute,
		MaxPayloadBytes:   cfg.Oracle.MaxPayloadBytes,
	}, logger)
}

// initLedger opens the run ledger, or returns nil when it is disabled.
func initLedger(cfg *config.Config) (*storage.SQLiteLedger, error) {
	if cfg.Ledger.Path == "" {
		return nil, nil
	}
	return storage.NewSQLiteLedger(cfg.Ledger.Path)
}

// run tracks one command execution in the ledger. All methods are no-ops when
// the ledger is disabled.
type run struct {
	ledger *storage.SQLiteLedger
	id     string
}

func beginRun(ctx context.Context, cfg *config.Config, stage string) (*run, error) {
	l, err := initLedger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	r := &run{ledger: l}
	if l == nil {
		return r, nil
	}
	if r.id, err = l.BeginRun(ctx, stage); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return r, nil
}

func (r *run) finish(ctx context.Context, state string) {
	if r.ledger == nil {
		return
	}
	// An interrupted run is still closed out.
	if err := r.ledger.FinishRun(context.WithoutCancel(ctx), r.id, state); err != nil {
		logger.Warn("failed to finish run", zap.String("run", r.id), zap.Error(err))
	}
	r.ledger.Close()
	fmt.Printf("📒 Run %s recorded (javamig report %s)\n", r.id, r.id)
}

func (r *run) recorder() *storage.RunRecorder {
	if r.ledger == nil {
		return nil
	}
	return r.ledger.Recorder(r.id)
}

// loadPlan reads the plan file, or falls back to the default plan.
func loadPlan(path string) (plan.Plan, error) {
	if path == "" {
		return plan.Default(), nil
	}
	return plan.Load(path)
}

func stateOf(err error) string {
	if err != nil {
		return "FAILED"
	}
	return "SUCCESS"
}
