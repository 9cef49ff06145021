package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"javamig/internal/buildtool"
	"javamig/internal/classifier"
	"javamig/internal/diagnostics"
	"javamig/internal/plan"
	"javamig/internal/planner"
	"javamig/internal/prompts"
	"javamig/internal/repair"
	"javamig/internal/rewriter"
	"javamig/internal/source"

	"github.com/spf13/cobra"
)

var (
	planFile       string
	concurrency    int
	maxIterations  int
	maxUnitRetries int
)

func init() {
	classifyCmd.Flags().StringVarP(&planFile, "plan", "p", "", "Migration plan file (defaults to Java 8 -> 17, Spring Boot 3.2)")
	rewriteCmd.Flags().StringVarP(&planFile, "plan", "p", "", "Migration plan file")
	rewriteCmd.Flags().IntVar(&concurrency, "concurrency", 1, "Units rewritten in parallel")
	validateCmd.Flags().StringVarP(&planFile, "plan", "p", "", "Migration plan file")
	validateCmd.Flags().IntVarP(&maxIterations, "max-iterations", "n", 0, "Maximum build attempts (overrides config)")
	validateCmd.Flags().IntVar(&maxUnitRetries, "max-unit-attempts", -1, "Maximum rewrites per unit, 0 = unlimited (overrides config)")
}

var planCmd = &cobra.Command{
	Use:   "plan <project_root> <output_file>",
	Short: "Generate the migration plan of a legacy project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		o, err := initOracle(ctx, cfg)
		if err != nil {
			return err
		}
		r, err := beginRun(ctx, cfg, "plan")
		if err != nil {
			return err
		}
		defer func() { r.finish(ctx, stateOf(err)) }()

		fmt.Printf("🚀 Planning migration of %s\n", args[0])
		start := time.Now()
		p, err := planner.New(o, logger).Generate(ctx, args[0])
		if err != nil {
			return err
		}
		if err := plan.Save(args[1], p); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}

		fmt.Printf("✅ Plan written to %s in %v\n", args[1], time.Since(start).Round(time.Millisecond))
		fmt.Printf("  -> Java %s -> %d, Spring Boot %s -> %s, risk %s\n",
			p.CurrentJavaVersion(), p.TargetJava, p.CurrentBoot(), p.TargetSpringBoot, p.RiskLevel)
		return nil
	},
}

var migrateBuildCmd = &cobra.Command{
	Use:   "migrate-build <project_root> <plan_file>",
	Short: "Upgrade the Gradle wrapper and regenerate build.gradle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := plan.Load(args[1])
		if err != nil {
			return err
		}
		o, err := initOracle(ctx, cfg)
		if err != nil {
			return err
		}
		r, err := beginRun(ctx, cfg, "migrate-build")
		if err != nil {
			return err
		}
		defer func() { r.finish(ctx, stateOf(err)) }()

		fmt.Println("🔧 Running build migration")
		fmt.Printf("  -> Target Java: %d\n  -> Target Spring Boot: %s\n", p.TargetJava, p.TargetSpringBoot)

		if err := buildtool.UpgradeWrapper(args[0], cfg.Build.GradleVersion); err != nil {
			return err
		}
		fmt.Printf("✅ Gradle wrapper upgraded to %s\n", cfg.Build.GradleVersion)

		if err := buildtool.MigrateBuildFile(ctx, o, prompts.NewBuilder(p), args[0]); err != nil {
			return err
		}
		fmt.Println("✅ build.gradle regenerated")
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <src_root> <output_file>",
	Short: "Classify every Java source by migration effort",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := loadPlan(planFile)
		if err != nil {
			return err
		}
		o, err := initOracle(ctx, cfg)
		if err != nil {
			return err
		}
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		r, err := beginRun(ctx, cfg, "classify")
		if err != nil {
			return err
		}
		defer func() { r.finish(ctx, stateOf(err)) }()

		c := classifier.New(o, classifier.Options{
			Plan:     p,
			Policy:   classifier.Policy(cfg.Classify.Policy),
			MaxBytes: cfg.Classify.MaxBytes,
			Logger:   logger,
		})

		fmt.Printf("📂 Classifying sources under %s\n", root)
		m, err := c.ClassifyTree(ctx, source.NewCrawler(source.NewParser()), root, func(path string, cl classifier.Classification) {
			fmt.Printf("[CLASSIFIED] %s -> %s\n", path, cl)
		})
		if err != nil {
			return err
		}
		if err := classifier.SaveMapping(args[1], m); err != nil {
			return fmt.Errorf("failed to write classification: %w", err)
		}
		if r.ledger != nil {
			raw := make(map[string]string, len(m))
			for path, cl := range m {
				raw[path] = string(cl)
			}
			if err := r.ledger.SaveClassifications(ctx, r.id, raw); err != nil {
				return fmt.Errorf("failed to record classification: %w", err)
			}
		}

		counts := m.Counts()
		fmt.Printf("✅ %d units classified: %d no change, %d minor fix, %d major rewrite, %d remove\n",
			len(m), counts[classifier.NoChange], counts[classifier.MinorFix], counts[classifier.MajorRewrite], counts[classifier.Remove])
		return nil
	},
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <old_root> <new_root> <classification_file>",
	Short: "Rewrite every MAJOR_REWRITE unit into the new project",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := loadPlan(planFile)
		if err != nil {
			return err
		}
		m, err := classifier.LoadMapping(args[2])
		if err != nil {
			return err
		}
		o, err := initOracle(ctx, cfg)
		if err != nil {
			return err
		}
		oldRoot, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		newRoot, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}
		r, err := beginRun(ctx, cfg, "rewrite")
		if err != nil {
			return err
		}
		defer func() { r.finish(ctx, stateOf(err)) }()

		rw := rewriter.New(o, rewriter.Options{Plan: p, Logger: logger, Concurrency: concurrency, MaxPayloadBytes: cfg.Oracle.MaxPayloadBytes})
		fmt.Printf("✍️  Rewriting %d units into %s\n", len(m.Select(classifier.MajorRewrite)), newRoot)
		results, err := rw.RewriteAll(ctx, source.NewParser(), oldRoot, newRoot, m, func(res rewriter.BatchResult) {
			fmt.Printf("✍️  Rewritten: %s\n", filepath.Base(res.Path))
		})
		if err != nil {
			return err
		}
		fmt.Printf("✅ Rewrite completed (%d units)\n", len(results))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <old_root> <new_root>",
	Short: "Build the new project and repair the units the compiler rejects",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if maxIterations > 0 {
			cfg.Repair.MaxIterations = maxIterations
		}
		if maxUnitRetries >= 0 {
			cfg.Repair.MaxAttemptsPerUnit = maxUnitRetries
		}
		p, err := loadPlan(planFile)
		if err != nil {
			return err
		}
		extractor := diagnostics.Default()
		if cfg.Repair.DiagnosticPattern != "" {
			if extractor, err = diagnostics.New(cfg.Repair.DiagnosticPattern); err != nil {
				return err
			}
		}
		o, err := initOracle(ctx, cfg)
		if err != nil {
			return err
		}
		oldRoot, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		newRoot, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}
		r, err := beginRun(ctx, cfg, "validate")
		if err != nil {
			return err
		}

		loop := repair.NewLoop(
			buildtool.NewCommand(cfg.Repair.BuildCommand, logger),
			rewriter.New(o, rewriter.Options{Plan: p, Logger: logger, MaxPayloadBytes: cfg.Oracle.MaxPayloadBytes}),
			source.NewParser(),
			repair.Config{
				OldRoot:            oldRoot,
				NewRoot:            newRoot,
				MaxIterations:      cfg.Repair.MaxIterations,
				MaxAttemptsPerUnit: cfg.Repair.MaxAttemptsPerUnit,
			},
			repair.Options{
				Extractor: extractor,
				Recorder:  recorderOrNil(r),
				Logger:    logger,
				OnEvent:   printEvent,
			},
		)

		fmt.Println("🔍 Starting validation")
		report, err := loop.Run(ctx)
		r.finish(ctx, string(report.State))

		for _, unit := range report.Unrepairable {
			fmt.Printf("⚠️  Not repaired: %s\n", unit)
		}

		var unattributable *repair.UnattributableBuildFailure
		var exhausted *repair.RepairExhausted
		switch {
		case err == nil:
			fmt.Printf("✅ BUILD SUCCESSFUL after %d attempt(s)\n", report.Builds)
			return nil
		case errors.As(err, &unattributable):
			fmt.Println("🚨 Build failure is not attributable to source files; manual intervention needed")
			fmt.Println(unattributable.Output)
		case errors.As(err, &exhausted):
			fmt.Printf("❌ Max repair attempts (%d) reached. Manual intervention needed.\n", exhausted.Iterations)
			fmt.Println(exhausted.Output)
		}
		return err
	},
}

// recorderOrNil avoids handing the loop a typed nil interface.
func recorderOrNil(r *run) repair.Recorder {
	if rec := r.recorder(); rec != nil {
		return rec
	}
	return nil
}

func printEvent(e repair.Event) {
	switch e.Kind {
	case repair.EventBuild:
		if e.Success {
			fmt.Printf("\n🔁 Build attempt %d: success\n", e.Iteration)
		} else {
			fmt.Printf("\n🔁 Build attempt %d: failed, %d unit(s) blamed\n", e.Iteration, e.Failing)
		}
	case repair.EventRepaired:
		fmt.Printf("🛠️  Repaired: %s\n", e.Unit)
	case repair.EventRejected:
		fmt.Printf("⚠️  Rewrite rejected: %s (%v)\n", e.Unit, e.Err)
	case repair.EventUnrepairable:
		fmt.Printf("⚠️  Cannot repair %s: %v\n", e.Unit, e.Err)
	}
}
