package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AvaProtocol/aa-gasbench/core/backup"
	"github.com/AvaProtocol/aa-gasbench/storage"
)

var (
	backupDir   string
	restoreFile string

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup the run store",
		Long: `Backup every stored benchmark run to a directory.

Backups are stored in the format: /backup_dir/yy-mm-dd-hh-mm-ss/runs.bak
Use --db to specify the run store to backup.
Use --dir to specify where to store the backups.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.NewWithPath(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database %s: %w", dbPath, err)
			}
			defer db.Close()

			backupFile, err := backup.NewService(nil, db, backupDir).PerformBackup()
			if err != nil {
				return err
			}
			fmt.Printf("Backup completed successfully to %s\n", backupFile)
			return nil
		},
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore the run store from a backup",
		Long: `Restore benchmark runs from a backup file.

Use --db to specify the run store to restore to.
Use --file to specify the backup file to restore from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dbPath, 0755); err != nil {
				return fmt.Errorf("failed to create DB directory: %w", err)
			}

			db, err := storage.NewWithPath(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database %s: %w", dbPath, err)
			}
			defer db.Close()

			if err := backup.NewService(nil, db, "").Restore(restoreFile); err != nil {
				return err
			}
			fmt.Printf("Restore completed successfully\n")
			return nil
		},
	}
)

func init() {
	backupCmd.Flags().StringVar(&dbPath, "db", "./data/badger", "path of the run store, same as db_path in the config")
	backupCmd.Flags().StringVar(&backupDir, "dir", "./backup", "Directory to store backups")
	rootCmd.AddCommand(backupCmd)

	restoreCmd.Flags().StringVar(&dbPath, "db", "./data/badger", "path of the run store, same as db_path in the config")
	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "Backup file to restore from (required)")
	restoreCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(restoreCmd)
}
