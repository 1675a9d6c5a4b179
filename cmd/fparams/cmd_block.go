package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fusionparams/internal/params"
	"fusionparams/internal/paramsync"
)

var setReplace bool

// blockCmd turns a JSON record back into block text
var blockCmd = &cobra.Command{
	Use:   "block [json]",
	Short: "Print the parameter block for a JSON record (file or stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBlock,
}

// setCmd edits a block in place
var setCmd = &cobra.Command{
	Use:   "set <doc> <index> name=value...",
	Short: "Edit parameters of a block inside a document and re-export it",
	Long: `Updates the block at <index> (zero-based, in document order).

Existing names are changed in place and new names are appended; with
--replace the block keeps only the given rows, in the given order.
An empty value removes the row.

Example:
  fparams set bracket.md 0 width=45 "inset=width / 6"`,
	Args: cobra.MinimumNArgs(3),
	RunE: runSet,
}

func runBlock(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	rec, err := params.Decode(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), params.ToBlock(rec))
	return nil
}

// parseAssignments turns name=value arguments into rows.
func parseAssignments(args []string) ([]params.Row, error) {
	rows := make([]params.Row, 0, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		rows = append(rows, params.Row{Name: name, Raw: strings.TrimSpace(raw)})
	}
	return rows, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	doc := args[0]
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid block index %q: %w", args[1], err)
	}
	rows, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}

	a, err := newApp(out)
	if err != nil {
		return err
	}
	defer a.Close()

	var res *paramsync.Rendered
	if setReplace {
		res, err = a.service.Commit(ctx, doc, index, rows)
	} else {
		res, err = a.service.Edit(ctx, doc, index, rows)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", styles.Success.Render("Updated"), res.Path)
	fmt.Fprint(out, paramTable(res.Record))
	return nil
}
