// Package repair drives the migrated project toward a successful build by
// rebuilding, reading compiler diagnostics and regenerating the units they
// blame, within a fixed number of build attempts.
package repair

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"javamig/internal/buildtool"
	"javamig/internal/diagnostics"
	"javamig/internal/logging"
	"javamig/internal/rewriter"
	"javamig/internal/source"

	"go.uber.org/zap"
)

// DefaultMaxIterations bounds the number of builds per run.
const DefaultMaxIterations = 5

// UnitRewriter regenerates one unit at its destination.
type UnitRewriter interface {
	Rewrite(ctx context.Context, req rewriter.Request) (string, error)
}

// Loader reads an original unit. Missing files must wrap fs.ErrNotExist.
type Loader interface {
	ParseFile(path string) (*source.Unit, error)
}

// Recorder persists loop activity. Recording failures are logged, not fatal.
type Recorder interface {
	RecordBuild(ctx context.Context, iteration int, success bool, output string) error
	RecordAttempt(ctx context.Context, iteration int, unit, outcome, detail string) error
}

type Config struct {
	// OldRoot is the legacy project the originals are read from.
	OldRoot string
	// NewRoot is the migrated project that is built and written to.
	NewRoot       string
	MaxIterations int
	// MaxAttemptsPerUnit caps rewrites of a single unit across the run.
	// Zero retries every failing unit on every iteration.
	MaxAttemptsPerUnit int
}

type EventKind string

const (
	EventBuild        EventKind = "build"
	EventRepaired     EventKind = "repaired"
	EventRejected     EventKind = "rejected"
	EventUnrepairable EventKind = "unrepairable"
)

// Event is reported to Options.OnEvent as the loop progresses.
type Event struct {
	Kind      EventKind
	Iteration int
	Unit      string
	Success   bool
	Failing   int
	Err       error
}

type Options struct {
	Extractor *diagnostics.Extractor
	Recorder  Recorder
	Logger    *zap.Logger
	OnEvent   func(Event)
}

// Report summarizes a finished run.
type Report struct {
	State       State
	Builds      int
	LastOutcome buildtool.Outcome
	// Attempts counts rewrites per diagnosed unit.
	Attempts map[string]int
	// Repaired lists accepted rewrites in the order they happened.
	Repaired []string
	// Rejected holds the latest guard failure of units whose last attempt
	// was rejected.
	Rejected map[string]error
	// Unrepairable lists diagnosed units that could not be rewritten:
	// missing originals, paths outside the project, or units over the
	// attempt cap.
	Unrepairable []string
}

// repairState is owned by one Run call.
type repairState struct {
	iteration     int
	maxIterations int
	last          *buildtool.Outcome
	unrepairable  map[string]string
}

type Loop struct {
	builder   buildtool.Builder
	rewriter  UnitRewriter
	loader    Loader
	extractor *diagnostics.Extractor
	recorder  Recorder
	logger    *zap.Logger
	onEvent   func(Event)
	cfg       Config
}

func NewLoop(builder buildtool.Builder, rw UnitRewriter, loader Loader, cfg Config, opts Options) *Loop {
	l := &Loop{
		builder:   builder,
		rewriter:  rw,
		loader:    loader,
		extractor: opts.Extractor,
		recorder:  opts.Recorder,
		logger:    logging.OrNop(opts.Logger),
		onEvent:   opts.OnEvent,
		cfg:       cfg,
	}
	if l.extractor == nil {
		l.extractor = diagnostics.Default()
	}
	if l.recorder == nil {
		l.recorder = nopRecorder{}
	}
	if l.onEvent == nil {
		l.onEvent = func(Event) {}
	}
	if l.cfg.MaxIterations <= 0 {
		l.cfg.MaxIterations = DefaultMaxIterations
	}
	return l
}

// Run executes the loop until a terminal state. The returned Report is never
// nil. The error is nil only for StateSuccess; otherwise it is an
// *UnattributableBuildFailure, a *RepairExhausted, a context error, or a fatal
// oracle/IO error that aborted the run.
func (l *Loop) Run(ctx context.Context) (*Report, error) {
	st := &repairState{
		iteration:     1,
		maxIterations: l.cfg.MaxIterations,
		unrepairable:  make(map[string]string),
	}
	report := &Report{
		State:    StateBuilding,
		Attempts: make(map[string]int),
		Rejected: make(map[string]error),
	}
	defer func() {
		report.Unrepairable = sortedKeys(st.unrepairable)
		if st.last != nil {
			report.LastOutcome = *st.last
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := l.builder.Build(ctx, l.cfg.NewRoot)
		if err != nil {
			return report, fmt.Errorf("build attempt %d: %w", st.iteration, err)
		}
		report.Builds++
		st.last = &outcome
		l.record(l.recorder.RecordBuild(ctx, st.iteration, outcome.Success, outcome.Output))

		if outcome.Success {
			report.State = StateSuccess
			l.onEvent(Event{Kind: EventBuild, Iteration: st.iteration, Success: true})
			l.logger.Info("build succeeded", zap.Int("iteration", st.iteration))
			return report, nil
		}

		failing := l.extractor.Extract(outcome.Output)
		l.onEvent(Event{Kind: EventBuild, Iteration: st.iteration, Failing: len(failing)})
		if len(failing) == 0 {
			report.State = StateUnattributableFailure
			l.logger.Warn("build failure not attributable to source units", zap.Int("iteration", st.iteration))
			return report, &UnattributableBuildFailure{Iteration: st.iteration, Output: outcome.Output}
		}

		report.State = StateAttributableFailure
		l.logger.Info("build failed",
			zap.Int("iteration", st.iteration),
			zap.Strings("failing", failing.Sorted()))

		for _, id := range failing.Sorted() {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if err := l.repairUnit(ctx, st, report, id, outcome.Output); err != nil {
				return report, err
			}
		}

		st.iteration++
		if st.iteration > st.maxIterations {
			report.State = StateExhausted
			return report, &RepairExhausted{
				Iterations: st.maxIterations,
				Failing:    failing.Sorted(),
				Output:     outcome.Output,
			}
		}
		report.State = StateBuilding
	}
}

// repairUnit regenerates one diagnosed unit. Only fatal errors are returned;
// guard rejections and missing originals are recorded in the report.
func (l *Loop) repairUnit(ctx context.Context, st *repairState, report *Report, id, output string) error {
	skip := func(reason string) {
		if _, seen := st.unrepairable[id]; !seen {
			l.logger.Warn("cannot repair unit", zap.String("unit", id), zap.String("reason", reason))
		}
		st.unrepairable[id] = reason
		l.record(l.recorder.RecordAttempt(ctx, st.iteration, id, "unrepairable", reason))
		l.onEvent(Event{Kind: EventUnrepairable, Iteration: st.iteration, Unit: id, Err: errors.New(reason)})
	}

	rel, ok := l.relative(id)
	if !ok {
		skip("outside project")
		return nil
	}
	if limit := l.cfg.MaxAttemptsPerUnit; limit > 0 && report.Attempts[id] >= limit {
		skip(fmt.Sprintf("attempt limit %d reached", limit))
		return nil
	}

	unit, err := l.loader.ParseFile(filepath.Join(l.cfg.OldRoot, rel))
	if errors.Is(err, fs.ErrNotExist) {
		skip("missing source")
		return nil
	}
	if err != nil {
		return err
	}

	report.Attempts[id]++
	_, err = l.rewriter.Rewrite(ctx, rewriter.Request{
		Unit:        unit,
		Destination: filepath.Join(l.cfg.NewRoot, rel),
		Diagnostics: l.extractor.Lines(output, id),
	})
	switch {
	case err == nil:
		delete(report.Rejected, id)
		report.Repaired = append(report.Repaired, id)
		l.record(l.recorder.RecordAttempt(ctx, st.iteration, id, "rewritten", ""))
		l.onEvent(Event{Kind: EventRepaired, Iteration: st.iteration, Unit: id})
		return nil
	case errors.As(err, new(*rewriter.OversizedUnitError)):
		skip(err.Error())
		return nil
	case rewriter.IsGuardFailure(err):
		report.Rejected[id] = err
		l.record(l.recorder.RecordAttempt(ctx, st.iteration, id, "rejected", err.Error()))
		l.onEvent(Event{Kind: EventRejected, Iteration: st.iteration, Unit: id, Err: err})
		return nil
	default:
		return fmt.Errorf("repair %s: %w", id, err)
	}
}

// relative maps a diagnosed unit to a path relative to both project roots.
// Absolute paths must lie inside NewRoot (or OldRoot, for builds that
// reference the legacy tree).
func (l *Loop) relative(id string) (string, bool) {
	if !filepath.IsAbs(id) {
		rel := filepath.Clean(id)
		return rel, !escapes(rel)
	}
	for _, root := range []string{l.cfg.NewRoot, l.cfg.OldRoot} {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(abs, id); err == nil && !escapes(rel) {
			return rel, true
		}
	}
	return "", false
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (l *Loop) record(err error) {
	if err != nil {
		l.logger.Warn("failed to record repair activity", zap.Error(err))
	}
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type nopRecorder struct{}

func (nopRecorder) RecordBuild(context.Context, int, bool, string) error            { return nil }
func (nopRecorder) RecordAttempt(context.Context, int, string, string, string) error { return nil }
