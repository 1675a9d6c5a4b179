package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fusionparams/internal/export"
	"fusionparams/internal/logging"
	"fusionparams/internal/paramsync"
	"fusionparams/internal/store"
)

// app bundles the collaborators a command needs.
type app struct {
	service *paramsync.Service
	ledger  *store.Ledger
}

func (a *app) Close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			logger.Warn("failed to close ledger", zap.Error(err))
		}
	}
}

// newApp wires the service from the loaded config. Notifications go to out.
func newApp(out io.Writer) (*app, error) {
	exportLog := logging.For(logger, logging.CategoryExport)
	writer := export.NewWriter(export.NewOSStorage(), export.NewRecencyCache(export.DefaultRecentWindow), exportLog)

	a := &app{}
	opts := []paramsync.Option{
		paramsync.WithLogger(exportLog),
		paramsync.WithNotifier(paramsync.NotifierFunc(func(msg string) {
			fmt.Fprintln(out, styles.Warning.Render("! "+msg))
		})),
	}
	if cfg.Ledger.Enabled {
		l, err := store.OpenLedger(cfg.Ledger.Path)
		if err != nil {
			return nil, err
		}
		a.ledger = l
		opts = append(opts, paramsync.WithRecorder(l))
	}

	a.service = paramsync.New(paramsync.Options{
		OutputDir:   cfg.OutputDir,
		DefaultUnit: cfg.DefaultUnit,
		Language:    cfg.BlockLanguage,
	}, paramsync.FileHost{}, writer, opts...)
	return a, nil
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

// findDocuments lists the files under root whose names end in one of exts.
// Hidden directories and the output directory are skipped.
func findDocuments(root string, exts []string, outputDir string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || path == outputDir) {
				return filepath.SkipDir
			}
			return nil
		}
		lower := strings.ToLower(d.Name())
		for _, ext := range exts {
			if strings.HasSuffix(lower, strings.ToLower(ext)) {
				docs = append(docs, path)
				break
			}
		}
		return nil
	})
	sort.Strings(docs)
	return docs, err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
