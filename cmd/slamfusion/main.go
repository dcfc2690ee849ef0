// Command slamfusion runs the sensor-fusion SLAM pipeline against a
// configuration file, writing output_file.json on normal termination or
// error_output.json if a sensor fault crashes the run.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/slamkit/fusion/internal/config"
	"github.com/slamkit/fusion/internal/output"
	"github.com/slamkit/fusion/internal/simulation"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	var printConfig bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "slamfusion <config-file>",
		Short: "Run the sensor-fusion SLAM pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			if printConfig {
				fmt.Printf("%+v\n", cfg)
				return nil
			}

			writer := output.NewFileWriter(outputDir)
			return simulation.Run(context.Background(), cfg, logger, writer)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().BoolVar(&printConfig, "print-config", false, "load, validate, and print the resolved configuration, then exit")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory to write output_file.json / error_output.json into (default: working directory)")

	return cmd
}
