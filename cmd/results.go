/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AvaProtocol/aa-gasbench/storage"
)

var (
	dbPath string

	resultsCmd = &cobra.Command{
		Use:   "results [run id]",
		Short: "list stored benchmark runs",
		Long:  `Without argument list every run kept in the local store, with a run id print the bundles of that run`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.NewWithPath(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database %s: %w", dbPath, err)
			}
			defer db.Close()

			runs := storage.NewRunStore(db)

			if len(args) == 1 {
				results, err := runs.GetRun(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("run %s started %s\n", results.RunID, results.StartedAt.Format("2006-01-02 15:04:05"))
				for _, b := range results.Bundles {
					if !b.Success && b.Error != "" {
						fmt.Printf("  %-60s ops=%d FAILED %s\n", b.Name, b.OpCount, b.Error)
						continue
					}
					fmt.Printf("  %-60s ops=%d gas=%d gas/op=%d cost=%s ETH tx=%s\n",
						b.Name, b.OpCount, b.GasUsed, b.GasPerOp, b.CostEth, b.TxHash)
				}
				return nil
			}

			ids, err := runs.ListRunIDs()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("no run recorded yet")
				return nil
			}
			for _, id := range ids {
				results, err := runs.GetRun(id)
				if err != nil {
					return err
				}
				fmt.Printf("%s  %s  %d bundle(s)\n", id, results.StartedAt.Format("2006-01-02 15:04:05"), len(results.Bundles))
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().StringVar(&dbPath, "db", "./data/badger", "path of the run store, same as db_path in the config")
}
