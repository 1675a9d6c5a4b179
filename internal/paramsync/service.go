// Package paramsync connects the parameter model to its surroundings:
// documents that hold blocks, the JSON output directory, the export
// ledger and the user-facing notification sink.
package paramsync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fusionparams/internal/document"
	"fusionparams/internal/export"
	"fusionparams/internal/params"
	"fusionparams/internal/store"
)

// ErrBlockNotFound is returned by Commit for an index with no block.
var ErrBlockNotFound = errors.New("parameter block not found")

// Recorder keeps a history of writes. store.Ledger implements it.
type Recorder interface {
	Record(ctx context.Context, e store.Entry) error
}

// Options configures a Service.
type Options struct {
	OutputDir   string
	DefaultUnit string
	Language    string
}

// Service renders blocks to JSON and writes edits back into documents.
type Service struct {
	opts     Options
	host     Host
	writer   *export.Writer
	locator  *document.Locator
	notifier Notifier
	recorder Recorder
	logger   *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithNotifier sets the user-facing notification sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRecorder records every write in an export history.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New builds a Service.
func New(opts Options, host Host, writer *export.Writer, options ...Option) *Service {
	s := &Service{
		opts:    opts,
		host:    host,
		writer:  writer,
		locator: document.NewLocator(opts.Language),
		logger:  zap.NewNop(),
	}
	for _, o := range options {
		o(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	return s
}

// Rendered is the outcome of rendering one block.
type Rendered struct {
	Record      params.Record
	Path        string
	Changed     bool
	JustChanged bool
}

// Render is invoked once per block occurrence: it parses the block text
// and writes the record's JSON when it changed.
func (s *Service) Render(ctx context.Context, blockText string) (*Rendered, error) {
	return s.render(ctx, "", blockText)
}

func (s *Service) render(ctx context.Context, doc, blockText string) (*Rendered, error) {
	rec, err := params.ParseRecord(blockText, s.opts.DefaultUnit)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("Parameter block error: %v", err))
		return nil, err
	}
	return s.persist(ctx, doc, rec)
}

// Persist writes an already canonical record.
func (s *Service) Persist(ctx context.Context, rec params.Record) (*Rendered, error) {
	return s.persist(ctx, "", rec)
}

// persist writes rec; doc names the source document for the ledger, if known.
func (s *Service) persist(ctx context.Context, doc string, rec params.Record) (*Rendered, error) {
	path, err := export.RecordPath(s.opts.OutputDir, rec.Design)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("Parameter block error: %v", err))
		return nil, err
	}
	data, err := params.Encode(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", rec.Design, err)
	}

	changed, err := s.writer.WriteIfChanged(ctx, path, data)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("Could not write %s: %v", path, err))
		return nil, err
	}

	if changed {
		s.logger.Debug("record written",
			zap.String("design", rec.Design),
			zap.String("path", path),
			zap.Int("parameters", len(rec.Parameters)))
		if s.recorder != nil {
			entry := store.Entry{
				Design:   rec.Design,
				Document: doc,
				Path:     path,
				Hash:     export.Hash(data),
				Params:   len(rec.Parameters),
			}
			if err := s.recorder.Record(ctx, entry); err != nil {
				s.logger.Warn("export ledger write failed", zap.String("path", path), zap.Error(err))
			}
		}
	}

	return &Rendered{
		Record:      rec,
		Path:        path,
		Changed:     changed,
		JustChanged: s.writer.Recent().JustChanged(path),
	}, nil
}

// Blocks lists the parameter blocks of doc.
func (s *Service) Blocks(ctx context.Context, doc string) ([]document.Block, error) {
	text, err := s.host.DocumentText(ctx, doc)
	if err != nil {
		return nil, err
	}
	return s.locator.Find([]byte(text)), nil
}

// Commit replaces block index of doc with the rendering of rows and
// writes the resulting record. Rows are taken in the order given.
func (s *Service) Commit(ctx context.Context, doc string, index int, rows []params.Row) (*Rendered, error) {
	blocks, err := s.Blocks(ctx, doc)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(blocks) {
		return nil, fmt.Errorf("%w: %s has %d block(s), index %d", ErrBlockNotFound, doc, len(blocks), index)
	}
	b := blocks[index]

	base, err := params.ParseRecord(b.Text, s.opts.DefaultUnit)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("Parameter block error: %v", err))
		return nil, &BlockError{Index: b.Index, Line: b.StartLine, Err: err}
	}
	rec := params.ApplyEdits(base, rows)

	if err := s.host.ReplaceLines(ctx, doc, b.StartLine, b.EndLine, b.Indent(params.ToBlock(rec))); err != nil {
		s.notifier.Notify(fmt.Sprintf("Could not update %s: %v", doc, err))
		return nil, err
	}
	s.logger.Info("block updated",
		zap.String("document", doc),
		zap.Int("block", index),
		zap.Int("parameters", len(rec.Parameters)))

	return s.persist(ctx, doc, rec)
}

// Edit applies named updates to block index of doc: existing names are
// replaced in place, new names are appended.
func (s *Service) Edit(ctx context.Context, doc string, index int, updates []params.Row) (*Rendered, error) {
	blocks, err := s.Blocks(ctx, doc)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(blocks) {
		return nil, fmt.Errorf("%w: %s has %d block(s), index %d", ErrBlockNotFound, doc, len(blocks), index)
	}
	base, err := params.ParseRecord(blocks[index].Text, s.opts.DefaultUnit)
	if err != nil {
		return nil, &BlockError{Index: index, Line: blocks[index].StartLine, Err: err}
	}
	return s.Commit(ctx, doc, index, params.Upsert(params.Rows(base), updates))
}
