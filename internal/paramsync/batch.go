package paramsync

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BlockError ties a failure to the block that caused it.
type BlockError struct {
	Index int
	Line  int // first body line, zero-based
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d (line %d): %v", e.Index, e.Line+1, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// Report summarises one document export.
type Report struct {
	Document  string
	Blocks    int
	Written   int
	Unchanged int
	Failed    int
	Outputs   []*Rendered
	Errors    []*BlockError
}

// ExportDocument renders every block of doc. A failing block is counted
// and reported; the remaining blocks are still processed.
func (s *Service) ExportDocument(ctx context.Context, doc string) (*Report, error) {
	blocks, err := s.Blocks(ctx, doc)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("Could not read %s: %v", doc, err))
		return nil, err
	}

	report := &Report{Document: doc, Blocks: len(blocks)}
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out, err := s.render(ctx, doc, b.Text)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, &BlockError{Index: b.Index, Line: b.StartLine, Err: err})
			continue
		}
		if out.Changed {
			report.Written++
		} else {
			report.Unchanged++
		}
		report.Outputs = append(report.Outputs, out)
	}

	s.logger.Info("document exported",
		zap.String("document", doc),
		zap.Int("blocks", report.Blocks),
		zap.Int("written", report.Written),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("failed", report.Failed))

	if report.Failed > 0 {
		s.notifier.Notify(fmt.Sprintf("%d of %d parameter block(s) in %s failed", report.Failed, report.Blocks, doc))
	}
	return report, nil
}

// ExportAll exports each document in turn and returns the reports of the
// documents that could be read. Unreadable documents are counted in failed.
func (s *Service) ExportAll(ctx context.Context, docs []string) (reports []*Report, failed int) {
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		r, err := s.ExportDocument(ctx, doc)
		if r != nil {
			reports = append(reports, r)
		}
		if err != nil {
			failed++
		}
	}
	return reports, failed
}
