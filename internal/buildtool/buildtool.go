// Package buildtool drives the migrated project's build and migrates its build
// files.
package buildtool

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"javamig/internal/logging"

	"go.uber.org/zap"
)

// Outcome is the result of one build invocation. Output holds stdout and
// stderr interleaved as the build produced them.
type Outcome struct {
	Success  bool
	Output   string
	ExitCode int
	Duration time.Duration
}

// Builder builds the project rooted at dir.
type Builder interface {
	Build(ctx context.Context, dir string) (Outcome, error)
}

// DefaultCommand is the Gradle wrapper build.
var DefaultCommand = []string{"./gradlew", "build"}

// Command runs a fixed build command as a child process.
type Command struct {
	argv   []string
	logger *zap.Logger
}

// NewCommand returns a Builder for argv, or DefaultCommand when argv is empty.
func NewCommand(argv []string, logger *zap.Logger) *Command {
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	return &Command{argv: append([]string(nil), argv...), logger: logging.OrNop(logger)}
}

// Build runs the command in dir and waits for it. A non-zero exit is reported
// in the Outcome; the error is reserved for a command that could not run at
// all or was cancelled.
func (c *Command) Build(ctx context.Context, dir string) (Outcome, error) {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Dir = dir

	start := time.Now()
	out, err := cmd.CombinedOutput()
	outcome := Outcome{Output: string(out), Duration: time.Since(start)}

	if err == nil {
		outcome.Success = true
		c.logger.Debug("build succeeded", zap.String("dir", dir), zap.Duration("elapsed", outcome.Duration))
		return outcome, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		outcome.ExitCode = exitErr.ExitCode()
		c.logger.Debug("build failed",
			zap.String("dir", dir),
			zap.Int("exit_code", outcome.ExitCode),
			zap.Int("output_bytes", len(out)))
		return outcome, nil
	}
	return outcome, fmt.Errorf("failed to run %v in %s: %w", c.argv, dir, err)
}
