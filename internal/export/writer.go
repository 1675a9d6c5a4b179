package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Writer persists content only when it differs from what is on disk.
// Callers must not run two writes for the same path at the same time.
type Writer struct {
	storage Storage
	recent  *RecencyCache
	logger  *zap.Logger
}

// NewWriter wires a Writer. A nil cache gets a fresh one with the default
// window; a nil logger logs nothing.
func NewWriter(storage Storage, recent *RecencyCache, logger *zap.Logger) *Writer {
	if recent == nil {
		recent = NewRecencyCache(DefaultRecentWindow)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{storage: storage, recent: recent, logger: logger}
}

// Recent exposes the writer's recency cache.
func (w *Writer) Recent() *RecencyCache {
	return w.recent
}

// WriteIfChanged compares the trimmed existing content at path with the
// trimmed new content and writes only when they differ. Read failures are
// treated as "no prior content"; directory creation failures are ignored.
func (w *Writer) WriteIfChanged(ctx context.Context, path string, content []byte) (bool, error) {
	existing, err := w.storage.Read(ctx, path)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			w.logger.Debug("treating unreadable output as absent", zap.String("path", path), zap.Error(err))
		}
	} else if bytes.Equal(bytes.TrimSpace(existing), bytes.TrimSpace(content)) {
		w.logger.Debug("output unchanged", zap.String("path", path))
		return false, nil
	}

	if err := w.storage.EnsureDir(ctx, filepath.Dir(path)); err != nil {
		w.logger.Debug("ensure dir failed, writing anyway", zap.String("path", path), zap.Error(err))
	}

	if err := w.storage.Write(ctx, path, content); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}

	w.recent.Mark(path, content)
	w.logger.Info("output written", zap.String("path", path), zap.Int("bytes", len(content)))
	return true, nil
}
