package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fusionparams/internal/config"
	"fusionparams/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fparams",
	Short: "Keep CAD user parameters in Markdown and export them as JSON",
	Long: `fparams reads fusion-params blocks from Markdown documents and writes one
canonical JSON record per design for the CAD add-in to import.

A block looks like:

    part: Bracket
    units: mm
    params:
      width: 40
      hole: 0.25 in
      inset: width / 8

Records are only rewritten when their content changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws, err := resolveWorkspace()
		if err != nil {
			return err
		}
		path := configPath
		if path == "" {
			path = filepath.Join(ws, config.DefaultConfigFile)
		}

		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		cfg.Resolve(ws)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		logging.For(logger, logging.CategoryBoot).Debug("config loaded",
			zap.String("path", path),
			zap.String("output_dir", cfg.OutputDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/"+config.DefaultConfigFile+")")

	exportCmd.Flags().BoolVar(&exportQuiet, "quiet", false, "Only print failures")

	setCmd.Flags().BoolVar(&setReplace, "replace", false, "Replace all rows of the block with the given ones")

	toleranceCmd.Flags().StringSliceVar(&tolEnable, "enable", nil, "Parameter names with the tolerance switched on")
	toleranceCmd.Flags().IntSliceVar(&tolRows, "row", nil, "Row positions (1-based) with the tolerance switched on")
	toleranceCmd.Flags().BoolVar(&tolAll, "all", false, "Enable the tolerance on every parameter")
	toleranceCmd.Flags().Float64Var(&tolValue, "value", 0, "Tolerance value (default: config)")
	toleranceCmd.Flags().StringVar(&tolUnit, "unit", "", "Tolerance unit: mm or in (default: config)")
	toleranceCmd.Flags().IntVar(&tolDigits, "digits", -1, "Rounding digits 0..10 (default: config)")
	toleranceCmd.Flags().StringVar(&tolMode, "mode", "", "Display mode: equation or result (default: config)")

	historyCmd.Flags().StringVar(&historyDesign, "design", "", "Only show writes of this design")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")

	importCadCmd.Flags().BoolVar(&importWrite, "write", false, "Also write the canonical JSON record")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(toleranceCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(importCadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
