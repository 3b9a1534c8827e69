/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AvaProtocol/aa-gasbench/core/config"
	"github.com/AvaProtocol/aa-gasbench/runner"
)

var (
	keepGoing bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "submit the benchmark bundles",
		Long: `Submit every bundle of the matrix in order and write results.json.
Use --matrix to load bundles from a YAML file and --filter to select a subset,
for example --filter 'size == 2 && "verifying" in paymasters'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to parse config file %s: %w", configFile, err)
			}

			path := matrixPath
			if path == "" {
				path = cfg.MatrixPath
			}
			bundles, err := loadBundles(path)
			if err != nil {
				return err
			}
			if len(bundles) == 0 {
				return fmt.Errorf("no bundle matches filter %q", filterSource)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			results, err := runner.RunWithConfig(ctx, cfg, bundles, runner.Options{KeepGoing: keepGoing})
			if results != nil {
				fmt.Printf("run %s: %d bundle(s) recorded in %s\n", results.RunID, len(results.Bundles), cfg.ResultsPath)
			}
			return err
		},
	}
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&matrixPath, "matrix", "m", "", "YAML matrix file, overrides matrix_path of the config")
	runCmd.Flags().StringVarP(&filterSource, "filter", "f", "", "boolean expression selecting bundles")
	runCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue with the next bundle after a failure, failed bundles are recorded either way")
}
