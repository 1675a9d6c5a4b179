package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fusionparams/internal/fusion"
	"fusionparams/internal/logging"
	"fusionparams/internal/params"
)

var importWrite bool

// planCmd previews the CAD import of a record
var planCmd = &cobra.Command{
	Use:   "plan [json]",
	Short: "Show the user parameters the CAD importer would set for a record",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlan,
}

// importCadCmd converts a CAD export back into a block
var importCadCmd = &cobra.Command{
	Use:   "import-cad [json]",
	Short: "Turn a CAD parameter export into a parameter block",
	Long: `Reads the add-in's export file ({design, defaultUnit, parameters:[{name,
expression, comment}]}) and prints the equivalent parameter block.
Literal values such as "12 mm" become plain numbers again.

With --write the canonical JSON record is written to the output directory too.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImportCad,
}

func runPlan(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	rec, err := params.Decode(data)
	if err != nil {
		return err
	}

	t := newTable(rec.Design, "Name", "Expression", "Unit", "Comment")
	for _, a := range fusion.Plan(rec) {
		t.addRow(a.Name, a.Expression, a.Unit, a.Comment)
	}
	fmt.Fprint(cmd.OutOrStdout(), t.String())
	return nil
}

func runImportCad(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	rec, err := fusion.FromExport(data)
	if err != nil {
		return err
	}
	numeric, expression := rec.Counts()
	logging.For(logger, logging.CategoryFusion).Debug("CAD export read",
		zap.String("design", rec.Design),
		zap.Int("numeric", numeric),
		zap.Int("expression", expression))

	fmt.Fprint(out, params.ToBlock(rec))

	if !importWrite {
		return nil
	}
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.service.Persist(commandContext(cmd), rec)
	if err != nil {
		return err
	}
	if r.Changed {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.Success.Render("wrote "+r.Path))
	}
	return nil
}
