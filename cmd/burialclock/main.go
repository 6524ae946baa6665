package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "burialclock",
		Short: "Cosmogenic nuclide burial-clock simulator",
		Long: `burialclock steps 10Be, 26Al and 36Cl concentrations through an
exposure, burial and re-exposure history and reports the 26Al/10Be and
36Cl/10Be ratios together with the apparent burial ages they imply.

Process settings come from BURIALCLOCK_* environment variables; scenario
durations come from a YAML preset file and the duration flags below.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("exposure", "", "Initial exposure duration in Myr")
	rootCmd.PersistentFlags().String("burial", "", "Burial duration in Myr")
	rootCmd.PersistentFlags().String("re-exposure", "", "Re-exposure duration in Myr")
	rootCmd.PersistentFlags().String("preset-file", "", "YAML file of named scenario presets (overrides BURIALCLOCK_PRESET_FILE)")
	rootCmd.PersistentFlags().String("preset", "", "Preset name to start from (overrides BURIALCLOCK_PRESET)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides BURIALCLOCK_LOG_LEVEL)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newExportCmd(),
		newPlayCmd(),
		newServeCmd(),
	)
	return rootCmd
}
