package paramsync

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"fusionparams/internal/document"
)

// Host gives access to the documents that contain parameter blocks.
type Host interface {
	DocumentText(ctx context.Context, doc string) (string, error)
	ReplaceLines(ctx context.Context, doc string, start, end int, text string) error
}

// Notifier receives user-facing messages. Delivery is best effort.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// LogNotifier sends notifications to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(msg string) {
	if n.Logger != nil {
		n.Logger.Info(msg)
	}
}

// FileHost reads and rewrites documents on the local file system.
type FileHost struct{}

func (FileHost) DocumentText(_ context.Context, doc string) (string, error) {
	data, err := os.ReadFile(doc)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", doc, err)
	}
	return string(data), nil
}

func (h FileHost) ReplaceLines(ctx context.Context, doc string, start, end int, text string) error {
	current, err := h.DocumentText(ctx, doc)
	if err != nil {
		return err
	}
	updated, err := document.ReplaceLines(current, start, end, text)
	if err != nil {
		return fmt.Errorf("document %s: %w", doc, err)
	}
	info, err := os.Stat(doc)
	if err != nil {
		return fmt.Errorf("stat document %s: %w", doc, err)
	}
	if err := os.WriteFile(doc, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write document %s: %w", doc, err)
	}
	return nil
}
