package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"javamig/internal/storage"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <run_id>",
	Short: "Show what a recorded run did",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := initLedger(cfg)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		if l == nil {
			return errors.New("ledger is disabled")
		}
		defer l.Close()

		return writeReport(cmd.Context(), os.Stdout, l, args[0])
	},
}

// writeReport prints a run with its classification tally and every recorded
// repair attempt.
func writeReport(ctx context.Context, w io.Writer, l storage.Ledger, runID string) error {
	info, err := l.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "📒 Run %s (%s): %s\n", info.ID, info.Stage, info.State)
	fmt.Fprintf(w, "  -> Started: %s\n", info.StartedAt.Format("2006-01-02 15:04:05"))
	if info.FinishedAt != nil {
		fmt.Fprintf(w, "  -> Took: %v\n", info.FinishedAt.Sub(info.StartedAt))
	}
	if info.Builds > 0 {
		fmt.Fprintf(w, "  -> Builds: %d\n", info.Builds)
	}

	classes, err := l.Classifications(ctx, info.ID)
	if err != nil {
		return err
	}
	if len(classes) > 0 {
		counts := make(map[string]int)
		for _, c := range classes {
			counts[c]++
		}
		categories := make([]string, 0, len(counts))
		for c := range counts {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		fmt.Fprintf(w, "📂 %d units classified\n", len(classes))
		for _, c := range categories {
			fmt.Fprintf(w, "  -> %s: %d\n", c, counts[c])
		}
	}

	attempts, err := l.Attempts(ctx, info.ID)
	if err != nil {
		return err
	}
	if len(attempts) > 0 {
		fmt.Fprintf(w, "🛠️  %d repair attempts\n", len(attempts))
	}
	for _, a := range attempts {
		fmt.Fprintf(w, "  [%d] %s: %s", a.Iteration, a.Unit, a.Outcome)
		if a.Detail != "" {
			fmt.Fprintf(w, " (%s)", a.Detail)
		}
		fmt.Fprintln(w)
	}
	return nil
}
