package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"housepulse/internal/app"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		outDir  string
		topN    int
		trim    int
		formats []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and export the views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir != "" {
				dir, err := filepath.Abs(outDir)
				if err != nil {
					return fmt.Errorf("invalid output directory: %w", err)
				}
				c.cfg.Paths.ReportsDir = dir
			}
			if cmd.Flags().Changed("top") {
				c.cfg.Pipeline.TopN = topN
			}
			if cmd.Flags().Changed("trim") {
				c.cfg.Pipeline.OutlierTrim = trim
			}
			if len(formats) > 0 {
				for i := range formats {
					formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
				}
				c.cfg.Pipeline.ExportFormats = formats
			}
			if err := c.initLogger(); err != nil {
				return err
			}

			application, err := app.NewApplication(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.OTelProviders.Shutdown(context.WithoutCancel(cmd.Context())); err != nil {
					c.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
				}
			}()

			views, files, err := application.Export(cmd.Context(), "", nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := views.Stats
			fmt.Fprintf(out, "loaded %d, incomplete %d, trimmed %d, cleaned %d\n",
				s.Loaded, s.Incomplete, s.Trimmed, s.Cleaned)
			fmt.Fprintf(out, "house types %d, top %d, mapped %d, unmapped %d\n",
				s.HouseTypes, s.TopN, s.Mapped, s.Unmapped)
			for _, file := range files {
				fmt.Fprintln(out, file)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&outDir, "out", "", "directory for exported files (default: configured reports dir)")
	flags.IntVar(&topN, "top", 0, "number of listings placed on the map")
	flags.IntVar(&trim, "trim", 0, "number of most expensive listings dropped after cleaning")
	flags.StringSliceVar(&formats, "format", nil, "export formats: csv, json, xlsx")

	return cmd
}
