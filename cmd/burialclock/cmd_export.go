package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/internal/export"
	"github.com/signalsfoundry/burial-clock/internal/logging"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every frame of a scenario as CSV, JSON or MessagePack",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			formatName, _ := cmd.Flags().GetString("format")
			if formatName == "" {
				formatName = "csv"
				if ext := filepath.Ext(output); ext != "" {
					formatName = ext
				}
			}
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			sc := core.Generate(rt.settings)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := export.Write(w, format, sc); err != nil {
				return err
			}

			rt.log.Info(cmd.Context(), "scenario exported",
				logging.String("format", string(format)),
				logging.String("output", output),
				logging.Int("frames", sc.Len()),
			)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringP("format", "f", "", "csv, json or msgpack (default from the output extension, else csv)")
	return cmd
}
