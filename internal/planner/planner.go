// Package planner inspects a legacy project and asks the oracle for its
// migration plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"javamig/internal/logging"
	"javamig/internal/oracle"
	"javamig/internal/plan"
	"javamig/internal/prompts"

	"go.uber.org/zap"
)

// Inputs are the project facts the plan is derived from.
type Inputs struct {
	BuildGradle    string
	SettingsGradle string
	Tree           string
}

// Gather reads the build scripts and renders the project tree of root.
// Missing build scripts are treated as empty.
func Gather(root string) (Inputs, error) {
	var in Inputs
	var err error
	if in.BuildGradle, err = readOptional(filepath.Join(root, "build.gradle")); err != nil {
		return in, err
	}
	if in.SettingsGradle, err = readOptional(filepath.Join(root, "settings.gradle")); err != nil {
		return in, err
	}
	if in.Tree, err = RenderTree(root, DefaultTreeDepth); err != nil {
		return in, fmt.Errorf("failed to render project tree: %w", err)
	}
	return in, nil
}

type Planner struct {
	oracle oracle.Oracle
	logger *zap.Logger
}

func New(o oracle.Oracle, logger *zap.Logger) *Planner {
	return &Planner{oracle: o, logger: logging.OrNop(logger)}
}

// Generate asks the oracle for the plan of the project at root and validates
// the answer against the plan schema.
func (p *Planner) Generate(ctx context.Context, root string) (plan.Plan, error) {
	in, err := Gather(root)
	if err != nil {
		return plan.Plan{}, err
	}
	p.logger.Debug("planner inputs",
		zap.Int("build_gradle_bytes", len(in.BuildGradle)),
		zap.Int("settings_gradle_bytes", len(in.SettingsGradle)),
		zap.Int("tree_bytes", len(in.Tree)))

	raw, err := p.oracle.Transform(ctx, oracle.TaskPlan, prompts.Plan(in.BuildGradle, in.SettingsGradle, in.Tree))
	if err != nil {
		return plan.Plan{}, fmt.Errorf("plan: %w", err)
	}
	pl, err := plan.Parse([]byte(raw))
	if err != nil {
		p.logger.Warn("oracle returned an invalid plan", zap.String("raw", raw))
		return plan.Plan{}, err
	}
	return pl, nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
