package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/model"
	"github.com/signalsfoundry/burial-clock/timectrl"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a scenario frame by frame in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			speed, _ := cmd.Flags().GetFloat64("speed")
			tick, _ := cmd.Flags().GetDuration("tick")
			from, _ := cmd.Flags().GetFloat64("from")

			p := timectrl.NewPlayback(core.Generate(rt.settings), tick, timectrl.WithSpeed(speed))
			p.Seek(from)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, frameHeader)
			if f, ok := p.Current(); ok {
				writeFrameLine(out, p.Index(), f)
			}
			p.AddListener(func(i int, f model.Frame) {
				writeFrameLine(out, i, f)
			})

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().Float64("speed", timectrl.DefaultSpeed, "Playback speed multiplier (0.1 to 5)")
	cmd.Flags().Duration("tick", timectrl.DefaultTick, "Refresh interval; a frame advances every int(6/speed) ticks")
	cmd.Flags().Float64("from", 0, "Start position as a fraction of the scenario (0 to 1)")
	return cmd
}

const frameHeader = "frame\tt (yr)\tstatus\t26Al/10Be\t36Cl/10Be\tage 26/10 (kyr)\tage 36/10 (kyr)"

func writeFrameLine(w io.Writer, i int, f model.Frame) {
	age26, age36 := core.ApparentAges(f)
	fmt.Fprintf(w, "%d\t%.0f\t%s\t%.4f\t%.4f\t%.1f\t%.1f\n",
		i, f.TCumulative, f.Status, f.R26_10, f.R36_10,
		age26/core.AgeUnitYears, age36/core.AgeUnitYears)
}
