package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fusionparams/internal/store"
)

var (
	historyDesign string
	historyLimit  int
)

// historyCmd lists the export ledger
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent JSON writes from the export ledger",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !cfg.Ledger.Enabled {
		fmt.Fprintln(out, styles.Muted.Render("The export ledger is disabled (set ledger.enabled in "+configHint()+")."))
		return nil
	}

	l, err := store.OpenLedger(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := commandContext(cmd)
	var entries []store.Entry
	if historyDesign != "" {
		entries, err = l.ForDesign(ctx, historyDesign, historyLimit)
	} else {
		entries, err = l.Recent(ctx, historyLimit)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, styles.Muted.Render("No exports recorded."))
		return nil
	}

	t := newTable("Export history", "Written", "Design", "Document", "Params", "Hash", "Path")
	for _, e := range entries {
		hash := e.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		doc := e.Document
		if doc == "" {
			doc = "-"
		}
		t.addRow(e.WrittenAt.Local().Format(time.DateTime), e.Design, doc, fmt.Sprint(e.Params), hash, e.Path)
	}
	fmt.Fprint(out, t.String())
	return nil
}

func configHint() string {
	if configPath != "" {
		return configPath
	}
	return ".fparams.yaml"
}
