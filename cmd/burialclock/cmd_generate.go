package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/burial-clock/core"
)

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "generate",
		Aliases: []string{"summary"},
		Short:   "Generate a scenario and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			sum := core.Summarize(core.Generate(rt.settings))

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			return writeSummary(cmd.OutOrStdout(), sum)
		},
	}
}

func writeSummary(w io.Writer, s core.ScenarioSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "scenario\t%s\n", s.ID)
	fmt.Fprintf(tw, "settings\t%s\n", s.Label)
	fmt.Fprintf(tw, "frames\t%d (%d burial)\n", s.Frames, s.BurialFrames)
	fmt.Fprintf(tw, "time\t%.0f to %.0f yr\n", s.StartYears, s.EndYears)
	fmt.Fprintf(tw, "26Al/10Be\t%.3f to %.3f\n", s.MinR26_10, s.MaxR26_10)
	fmt.Fprintf(tw, "36Cl/10Be\t%.3f to %.3f\n", s.MinR36_10, s.MaxR36_10)
	fmt.Fprintf(tw, "max apparent age\t26/10 %.1f kyr, 36/10 %.1f kyr\n",
		s.MaxAge26Years/core.AgeUnitYears, s.MaxAge36Years/core.AgeUnitYears)
	fmt.Fprintf(tw, "final apparent age\t26/10 %.1f kyr, 36/10 %.1f kyr\n",
		s.FinalAge26Years/core.AgeUnitYears, s.FinalAge36Years/core.AgeUnitYears)
	return tw.Flush()
}
