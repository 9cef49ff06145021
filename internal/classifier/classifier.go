// Package classifier asks the oracle to put every source unit of a project in
// one migration category.
package classifier

import (
	"context"
	"fmt"

	"javamig/internal/logging"
	"javamig/internal/oracle"
	"javamig/internal/plan"
	"javamig/internal/prompts"
	"javamig/internal/source"

	"go.uber.org/zap"
)

// DefaultMaxBytes bounds the content sent per unit. Larger units are
// classified on their leading part only.
const DefaultMaxBytes = 8000

// Policy decides what happens to an answer that names no category.
type Policy string

const (
	// PolicyLenient records unrecognized answers as NO_CHANGE.
	PolicyLenient Policy = "lenient"
	// PolicyStrict fails with UnrecognizedClassificationError.
	PolicyStrict Policy = "strict"
)

// UnrecognizedClassificationError carries the oracle's raw answer.
type UnrecognizedClassificationError struct {
	Path string
	Raw  string
}

func (e *UnrecognizedClassificationError) Error() string {
	return fmt.Sprintf("unrecognized classification for %s: %q", e.Path, e.Raw)
}

type Options struct {
	Plan     plan.Plan
	Policy   Policy
	MaxBytes int
	Logger   *zap.Logger
}

type Classifier struct {
	oracle   oracle.Oracle
	prompts  *prompts.Builder
	policy   Policy
	maxBytes int
	logger   *zap.Logger
}

func New(o oracle.Oracle, opts Options) *Classifier {
	c := &Classifier{
		oracle:   o,
		prompts:  prompts.NewBuilder(opts.Plan),
		policy:   opts.Policy,
		maxBytes: opts.MaxBytes,
		logger:   logging.OrNop(opts.Logger),
	}
	if c.policy == "" {
		c.policy = PolicyLenient
	}
	if c.maxBytes <= 0 {
		c.maxBytes = DefaultMaxBytes
	}
	return c
}

// Classify returns the category of one unit. Oracle failures are returned
// unchanged.
func (c *Classifier) Classify(ctx context.Context, u *source.Unit) (Classification, error) {
	content := source.Truncate(u.Content, c.maxBytes)
	if len(content) < len(u.Content) {
		c.logger.Debug("classifying truncated unit",
			zap.String("path", u.Path),
			zap.Int("bytes", len(u.Content)),
			zap.Int("sent", len(content)))
	}

	raw, err := c.oracle.Transform(ctx, oracle.TaskClassify, c.prompts.Classify(u.Path, content))
	if err != nil {
		return "", fmt.Errorf("classify %s: %w", u.Path, err)
	}

	if cl, ok := Normalize(raw); ok {
		return cl, nil
	}
	if c.policy == PolicyStrict {
		return "", &UnrecognizedClassificationError{Path: u.Path, Raw: raw}
	}
	c.logger.Warn("unrecognized classification, using NO_CHANGE",
		zap.String("path", u.Path),
		zap.String("raw", raw))
	return NoChange, nil
}

// ClassifyTree classifies every unit the crawler finds under root. The first
// error aborts the pass so that rewriting never starts on a partial mapping.
// onResult, if set, is called after each unit.
func (c *Classifier) ClassifyTree(ctx context.Context, crawler *source.Crawler, root string, onResult func(path string, cl Classification)) (Mapping, error) {
	m := make(Mapping)
	err := crawler.Scan(root, func(u *source.Unit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cl, err := c.Classify(ctx, u)
		if err != nil {
			return err
		}
		m[u.Path] = cl
		if onResult != nil {
			onResult(u.Path, cl)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
