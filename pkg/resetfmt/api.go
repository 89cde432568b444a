package resetfmt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Engine runs formatting resets over documents and fragments. Use New() to
// create an engine with the global configuration.
type Engine struct {
	config *Config
	logger *Logger
}

// New creates an engine with the global configuration and logger.
func New() *Engine {
	return &Engine{
		config: GetGlobalConfig(),
		logger: GetLogger(),
	}
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(config *Config) *Engine {
	return &Engine{
		config: NewConfigWithDefaults(config),
		logger: GetLogger(),
	}
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
	}
}

// WithLogger returns an option that sets the engine logger.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *Logger {
	return e.logger
}

// Span is the raw selection inside a DOCX body. A nil From starts at the
// first block; a nil To ends after the last block's mark.
type Span struct {
	From *Position
	To   *Position
}

// Outcome reports the result of one reset.
type Outcome struct {
	// Changed is false when the selection was rejected and nothing was
	// written.
	Changed bool
	// Output holds the rewritten DOCX or fragment; nil when not Changed.
	Output []byte
	// OperationID identifies the operation in the logs.
	OperationID string
}

func (e *Engine) operation(kind string) (string, *Logger) {
	id := uuid.NewString()
	return id, e.logger.WithFields(Fields{"op": id, "kind": kind})
}

// ResetDocx removes direct formatting from the paragraphs touched by span
// in a DOCX package.
func (e *Engine) ResetDocx(ctx context.Context, r io.ReaderAt, size int64, span Span) (*Outcome, error) {
	id, log := e.operation("docx")
	start := time.Now()

	host, err := OpenDocx(r, size)
	if err != nil {
		log.WithError(err).Error("failed to open document")
		return nil, err
	}
	host.WithLogger(log)
	if err := selectSpan(host, span); err != nil {
		log.WithError(err).Warn("invalid selection span")
		return nil, err
	}

	changed, err := ResetFormatting(ctx, host)
	if err != nil {
		log.WithError(err).Error("reset failed")
		return nil, err
	}

	out := &Outcome{Changed: changed, OperationID: id}
	if !changed {
		log.Info("nothing was changed: the selection cannot be replaced safely")
		return out, nil
	}
	if out.Output, err = host.Bytes(); err != nil {
		log.WithError(err).Error("failed to write document")
		return nil, NewDocumentError("write", "", err)
	}
	log.Info("reset formatting of %d blocks in %s", host.Blocks(), time.Since(start))
	return out, nil
}

// ResetBytes is ResetDocx over an in-memory package.
func (e *Engine) ResetBytes(ctx context.Context, data []byte, span Span) (*Outcome, error) {
	return e.ResetDocx(ctx, bytes.NewReader(data), int64(len(data)), span)
}

// ResetFile resets the document at in and writes the result to out. Nothing
// is written when the selection is rejected.
func (e *Engine) ResetFile(ctx context.Context, in, out string, span Span) (*Outcome, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, NewDocumentError("read", in, err)
	}
	outcome, err := e.ResetBytes(ctx, data, span)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}
	if !outcome.Changed {
		return outcome, nil
	}
	if err := os.WriteFile(out, outcome.Output, 0o644); err != nil {
		return nil, NewDocumentError("write", out, err)
	}
	return outcome, nil
}

// FileJob is one document of a batch.
type FileJob struct {
	In   string
	Out  string
	Span Span
}

// ResetFiles runs ResetFile for every job, at most config.Workers at a
// time. A failing job does not stop the others; failures are returned as a
// *MultiError (or the single error) and the matching outcomes are nil.
func (e *Engine) ResetFiles(ctx context.Context, jobs []FileJob) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(jobs))
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(e.config.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i], errs[i] = e.ResetFile(ctx, job.In, job.Out, job.Span)
			return nil
		})
	}
	_ = g.Wait()

	multi := NewMultiError()
	for _, err := range errs {
		multi.Add(err)
	}
	return outcomes, multi.Err()
}

// ResetFragment removes direct formatting from a Flat OPC fragment fetched
// by a remote editor. Output is the replacement package text.
func (e *Engine) ResetFragment(ctx context.Context, ooxml string) (*Outcome, error) {
	id, log := e.operation("fragment")

	host := NewFragmentHost(ooxml)
	changed, err := ResetFormatting(ctx, host)
	if err != nil {
		log.WithError(err).Warn("fragment reset failed")
		return nil, err
	}

	out := &Outcome{Changed: changed, OperationID: id}
	if result, ok := host.Result(); ok {
		out.Output = []byte(result)
	}
	log.Debug("fragment reset: changed=%t bytes=%d", changed, len(ooxml))
	return out, nil
}

// Package returns the Flat OPC package of the selection span extended to
// whole paragraphs, as the reset would see it.
func (e *Engine) Package(ctx context.Context, data []byte, span Span) (string, error) {
	_, log := e.operation("package")

	host, err := OpenDocxBytes(data)
	if err != nil {
		return "", err
	}
	host.WithLogger(log)
	if err := selectSpan(host, span); err != nil {
		return "", err
	}

	pending := ExtendSelection(host.Selection()).OOXML()
	if err := host.Sync(ctx); err != nil {
		return "", NewHostError("fetch", err)
	}
	return pending.Value()
}

func selectSpan(host *DocxHost, span Span) error {
	if span.From == nil && span.To == nil {
		host.SelectAll()
		return nil
	}
	from := Position{}
	if span.From != nil {
		from = *span.From
	}
	to := Position{Block: host.Blocks() - 1, Offset: EndOfBlock}
	if span.To != nil {
		to = *span.To
	}
	return host.Select(from, to)
}
