package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AvaProtocol/aa-gasbench/pkg/logger"
	"github.com/AvaProtocol/aa-gasbench/storage"
)

const backupFileName = "runs.bak"

// Service snapshots the run store into timestamped directories so results
// survive wiping ./data between benchmark sessions.
type Service struct {
	logger    logger.Logger
	db        storage.Storage
	backupDir string
	now       func() time.Time
}

func NewService(log logger.Logger, db storage.Storage, backupDir string) *Service {
	return &Service{
		logger:    logger.EnsureLogger(log),
		db:        db,
		backupDir: backupDir,
		now:       time.Now,
	}
}

// PerformBackup writes a full backup of the store and returns the file path.
func (s *Service) PerformBackup() (string, error) {
	timestamp := s.now().Format("06-01-02-15-04-05")
	backupPath := filepath.Join(s.backupDir, timestamp)

	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup timestamp directory: %w", err)
	}

	backupFile := filepath.Join(backupPath, backupFileName)
	f, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	s.logger.Info("running backup", "file", backupFile)
	if _, err := s.db.Backup(context.Background(), f, 0); err != nil {
		return "", fmt.Errorf("backup operation failed: %w", err)
	}

	s.logger.Info("backup completed", "file", backupFile)
	return backupFile, nil
}

// Restore loads a file produced by PerformBackup into the store. Runs
// already present with the same id are overwritten.
func (s *Service) Restore(backupFile string) error {
	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	if err := s.db.Load(context.Background(), f); err != nil {
		return fmt.Errorf("restore from %s failed: %w", backupFile, err)
	}
	s.logger.Info("backup restored", "file", backupFile)
	return nil
}
