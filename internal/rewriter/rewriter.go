// Package rewriter regenerates source units through the oracle and writes the
// accepted result into the migrated project.
package rewriter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"javamig/internal/classifier"
	"javamig/internal/logging"
	"javamig/internal/oracle"
	"javamig/internal/plan"
	"javamig/internal/prompts"
	"javamig/internal/source"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Request describes one rewrite attempt.
type Request struct {
	Unit        *source.Unit
	Destination string
	// Diagnostics are compiler messages about the previous attempt, if any.
	Diagnostics []string
}

// MaxDiagnostics bounds the compiler lines quoted back to the oracle per unit.
const MaxDiagnostics = 50

// Loader reads a source unit from disk.
type Loader interface {
	ParseFile(path string) (*source.Unit, error)
}

type Options struct {
	Plan   plan.Plan
	Logger *zap.Logger
	// Concurrency > 1 rewrites that many units of a batch in parallel.
	Concurrency int
	// MaxPayloadBytes is the oracle input ceiling. Diagnostics are dropped
	// until the prompt fits; 0 disables the check.
	MaxPayloadBytes int
}

type Rewriter struct {
	oracle      oracle.Oracle
	prompts     *prompts.Builder
	logger      *zap.Logger
	concurrency int
	maxPayload  int
}

func New(o oracle.Oracle, opts Options) *Rewriter {
	return &Rewriter{
		oracle:      o,
		prompts:     prompts.NewBuilder(opts.Plan),
		logger:      logging.OrNop(opts.Logger),
		concurrency: opts.Concurrency,
		maxPayload:  opts.MaxPayloadBytes,
	}
}

// Rewrite asks the oracle for a migrated version of req.Unit, checks it with
// Guard and writes it to req.Destination. Nothing is written when the oracle
// or the guard fails.
func (r *Rewriter) Rewrite(ctx context.Context, req Request) (string, error) {
	prompt, err := r.prompt(req)
	if err != nil {
		return "", err
	}
	candidate, err := r.oracle.Transform(ctx, oracle.TaskRewriteUnit, prompt)
	switch {
	case errors.Is(err, oracle.ErrEmptyResponse):
		err = &EmptyRewriteError{Path: req.Unit.Path}
		r.logger.Warn("rewrite rejected", zap.String("path", req.Unit.Path), zap.Error(err))
		return "", err
	case errors.Is(err, oracle.ErrPayloadTooLarge):
		return "", &OversizedUnitError{Path: req.Unit.Path, Bytes: len(prompt), Limit: r.maxPayload}
	case err != nil:
		return "", fmt.Errorf("rewrite %s: %w", req.Unit.Path, err)
	}
	if err := Guard(req.Unit, candidate); err != nil {
		r.logger.Warn("rewrite rejected", zap.String("path", req.Unit.Path), zap.Error(err))
		return "", err
	}
	if err := writeFile(req.Destination, candidate); err != nil {
		return "", fmt.Errorf("write %s: %w", req.Destination, err)
	}
	r.logger.Debug("rewrite accepted",
		zap.String("path", req.Unit.Path),
		zap.String("destination", req.Destination))
	return candidate, nil
}

// prompt renders the rewrite prompt, quoting as many diagnostics as the
// payload ceiling allows.
func (r *Rewriter) prompt(req Request) (string, error) {
	diags := req.Diagnostics
	if len(diags) > MaxDiagnostics {
		diags = diags[:MaxDiagnostics]
	}
	for {
		p := r.prompts.Rewrite(req.Unit.Content, diags)
		if r.maxPayload <= 0 || len(p) <= r.maxPayload {
			if dropped := len(req.Diagnostics) - len(diags); dropped > 0 {
				r.logger.Debug("diagnostics truncated",
					zap.String("path", req.Unit.Path),
					zap.Int("dropped", dropped))
			}
			return p, nil
		}
		if len(diags) == 0 {
			return "", &OversizedUnitError{Path: req.Unit.Path, Bytes: len(p), Limit: r.maxPayload}
		}
		diags = diags[:len(diags)-1]
	}
}

// Destination maps a path under oldRoot to the same relative path under
// newRoot.
func Destination(oldRoot, newRoot, path string) (string, error) {
	rel, err := filepath.Rel(oldRoot, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, oldRoot)
	}
	return filepath.Join(newRoot, rel), nil
}

// BatchResult is one unit of a RewriteAll pass.
type BatchResult struct {
	Path        string
	Destination string
}

// RewriteAll rewrites every MAJOR_REWRITE unit of m from oldRoot into
// newRoot. The first failure stops the batch and is returned wrapped with the
// unit path; units already written stay written. With Concurrency > 1,
// onDone may be called from several goroutines.
func (r *Rewriter) RewriteAll(ctx context.Context, loader Loader, oldRoot, newRoot string, m classifier.Mapping, onDone func(BatchResult)) ([]BatchResult, error) {
	paths := m.Select(classifier.MajorRewrite)
	results := make([]BatchResult, len(paths))

	rewriteOne := func(ctx context.Context, i int) error {
		path := paths[i]
		dest, err := Destination(oldRoot, newRoot, path)
		if err != nil {
			return err
		}
		unit, err := loader.ParseFile(path)
		if err != nil {
			return err
		}
		if _, err := r.Rewrite(ctx, Request{Unit: unit, Destination: dest}); err != nil {
			return err
		}
		results[i] = BatchResult{Path: path, Destination: dest}
		if onDone != nil {
			onDone(results[i])
		}
		return nil
	}

	if r.concurrency <= 1 {
		for i := range paths {
			if err := ctx.Err(); err != nil {
				return results[:i], err
			}
			if err := rewriteOne(ctx, i); err != nil {
				return results[:i], err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return rewriteOne(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		var done []BatchResult
		for _, res := range results {
			if res.Path != "" {
				done = append(done, res)
			}
		}
		return done, err
	}
	return results, nil
}

// IsGuardFailure reports whether err is one of the structural guard errors.
func IsGuardFailure(err error) bool {
	var (
		empty *EmptyRewriteError
		ns    *NamespaceMismatchError
		typ   *TypeMismatchError
	)
	return errors.As(err, &empty) || errors.As(err, &ns) || errors.As(err, &typ)
}

// writeFile replaces path atomically so a failed write never leaves a
// truncated unit behind.
func writeFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".javamig-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
