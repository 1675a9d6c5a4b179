package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fusionparams/internal/logging"
	"fusionparams/internal/params"
	"fusionparams/internal/paramsync"
	"fusionparams/internal/watch"
)

var exportQuiet bool

// exportCmd renders every block of the given documents
var exportCmd = &cobra.Command{
	Use:   "export [docs...]",
	Short: "Export the parameter blocks of Markdown documents to JSON",
	Long: `Renders every fusion-params block of each document and writes
<output_dir>/<part>.json when the record changed.

Without arguments every document under the workspace is exported.
A block that fails to parse is reported; the other blocks are still written.`,
	RunE: runExport,
}

// renderCmd renders a single block read from a file or stdin
var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render one parameter block (file or stdin) to its JSON record",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRender,
}

// watchCmd re-exports documents as they are saved
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch documents and export their blocks on every save",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	docs := args
	if len(docs) == 0 {
		ws, err := resolveWorkspace()
		if err != nil {
			return err
		}
		docs, err = findDocuments(ws, cfg.Watch.Extensions, cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("failed to scan workspace: %w", err)
		}
		if len(docs) == 0 {
			fmt.Fprintln(out, styles.Muted.Render("No documents found."))
			return nil
		}
	}

	a, err := newApp(out)
	if err != nil {
		return err
	}
	defer a.Close()

	reports, unreadable := a.service.ExportAll(ctx, docs)
	failed := unreadable
	for _, r := range reports {
		printReport(out, r)
		failed += r.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d failure(s) during export", failed)
	}
	return nil
}

func printReport(out io.Writer, r *paramsync.Report) {
	if exportQuiet && r.Failed == 0 {
		return
	}
	fmt.Fprintf(out, "%s %s\n", styles.Bold.Render(r.Document),
		styles.Muted.Render(fmt.Sprintf("(%d block(s): %d written, %d unchanged, %d failed)",
			r.Blocks, r.Written, r.Unchanged, r.Failed)))
	if !exportQuiet {
		for _, o := range r.Outputs {
			mark := styles.Muted.Render("=")
			if o.Changed {
				mark = styles.Success.Render("+")
			}
			fmt.Fprintf(out, "  %s %s -> %s\n", mark, o.Record.Design, o.Path)
		}
	}
	for _, e := range r.Errors {
		fmt.Fprintf(out, "  %s %v\n", styles.Error.Render("x"), e)
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	a, err := newApp(out)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.service.Render(ctx, string(text))
	if err != nil {
		return err
	}

	status := styles.Muted.Render("unchanged")
	if r.Changed {
		status = styles.Success.Render("written")
	}
	fmt.Fprintf(out, "%s %s (%s)\n", styles.Title.Render(r.Record.Design), r.Path, status)
	fmt.Fprint(out, paramTable(r.Record))
	return nil
}

// paramTable lists the parameters of rec. Sorting only affects the listing.
func paramTable(rec params.Record) string {
	numeric, expression := rec.Counts()
	t := newTable(fmt.Sprintf("%d numeric, %d expression", numeric, expression), "#", "Name", "Value", "Kind")

	add := func(i int, p params.Parameter) {
		kind := "expression"
		value := params.RawValue(p)
		if n, ok := p.(params.Numeric); ok {
			kind = "numeric"
			if !n.ExplicitUnit && n.Unit != "" {
				value += " " + styles.Muted.Render("("+n.Unit+")")
			}
		}
		t.addRow(fmt.Sprint(i+1), p.ParamName(), value, kind)
	}

	if cfg != nil && cfg.Display.SortByName {
		for _, v := range params.SortedView(rec) {
			add(v.Index, v.Parameter)
		}
	} else {
		for i, p := range rec.Parameters {
			add(i, p)
		}
	}
	return t.String()
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	root := ""
	if len(args) == 1 {
		root = args[0]
	} else {
		ws, err := resolveWorkspace()
		if err != nil {
			return err
		}
		root = ws
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	a, err := newApp(out)
	if err != nil {
		return err
	}
	defer a.Close()

	watchLog := logging.For(logger, logging.CategoryWatch)
	handler := func(ctx context.Context, path string) error {
		r, err := a.service.ExportDocument(ctx, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		printReport(out, r)
		if r.Failed > 0 {
			return fmt.Errorf("%d block(s) failed", r.Failed)
		}
		return nil
	}

	w, err := watch.New(root, cfg.Watch.Extensions, cfg.GetDebounce(), handler, watchLog)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	fmt.Fprintf(out, "%s %s %s\n", styles.Title.Render("Watching"), root, styles.Muted.Render("(Ctrl+C to stop)"))

	<-ctx.Done()
	w.Stop()

	stats := w.Stats()
	watchLog.Info("watch finished",
		zap.Int("events", stats.Events),
		zap.Int("exports", stats.Handled),
		zap.Int("errors", stats.Errors))
	return nil
}
