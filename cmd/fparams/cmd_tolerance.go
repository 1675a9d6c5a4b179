package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fusionparams/internal/params"
	"fusionparams/internal/tolerance"
	"fusionparams/internal/units"
)

var (
	tolEnable []string
	tolRows   []int
	tolAll    bool
	tolValue  float64
	tolUnit   string
	tolDigits int
	tolMode   string
)

// toleranceCmd shows display values with a tolerance applied
var toleranceCmd = &cobra.Command{
	Use:   "tolerance [json]",
	Short: "Show parameter values with a tolerance applied (display only)",
	Long: `Adds one record-wide tolerance to the enabled numeric parameters of a
JSON record and prints the result. The record itself is never changed.

Example:
  fparams tolerance params/Bracket.json --enable width,depth --value 0.2 --unit mm`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTolerance,
}

// toleranceSettings merges the config with the command flags.
func toleranceSettings(cmd *cobra.Command) (tolerance.Settings, error) {
	s := tolerance.Settings{
		Value:  cfg.Tolerance.Value,
		Digits: cfg.Tolerance.RoundingDigits,
	}
	if cmd.Flags().Changed("value") {
		s.Value = tolValue
	}
	if tolDigits >= 0 {
		s.Digits = tolDigits
	}

	unit := cfg.Tolerance.Unit
	if tolUnit != "" {
		unit = tolUnit
	}
	u, err := units.ParseLength(unit)
	if err != nil {
		return s, err
	}
	s.Unit = u

	mode := cfg.Tolerance.Mode
	if tolMode != "" {
		mode = tolMode
	}
	m, err := tolerance.ParseMode(mode)
	if err != nil {
		return s, err
	}
	s.Mode = m
	return s, nil
}

func runTolerance(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	rec, err := params.Decode(data)
	if err != nil {
		return err
	}
	s, err := toleranceSettings(cmd)
	if err != nil {
		return err
	}

	named := make(map[string]bool, len(tolEnable))
	for _, name := range tolEnable {
		named[name] = true
	}
	enabled := make([]bool, len(rec.Parameters))
	for i, p := range rec.Parameters {
		enabled[i] = tolAll || named[p.ParamName()]
	}
	for _, row := range tolRows {
		if row < 1 || row > len(enabled) {
			return fmt.Errorf("row %d out of range (record has %d parameters)", row, len(enabled))
		}
		enabled[row-1] = true
	}

	title := fmt.Sprintf("%s ± %s %s", rec.Design, params.FormatNumber(s.Value), s.Unit)
	t := newTable(title, "#", "Name", "Value", "With tolerance")
	for i, row := range tolerance.Table(rec, s, enabled) {
		display := styles.Muted.Render("n/a")
		if row.Applicable {
			display = row.Display
		}
		t.addRow(fmt.Sprint(i+1), row.Name, params.RawValue(rec.Parameters[i]), display)
	}
	fmt.Fprint(cmd.OutOrStdout(), t.String())
	return nil
}
