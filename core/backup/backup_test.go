package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/aa-gasbench/core/report"
	"github.com/AvaProtocol/aa-gasbench/core/testutil"
	"github.com/AvaProtocol/aa-gasbench/storage"
)

func TestBackup(t *testing.T) {
	t.Run("PerformBackup", func(t *testing.T) {
		db := testutil.TestMustDB()
		defer db.Close()
		tempDir := t.TempDir()

		runs := storage.NewRunStore(db)
		require.NoError(t, runs.SaveRun(report.Results{RunID: "01HZY", StartedAt: time.Now()}))

		service := NewService(testutil.GetLogger(), db, tempDir)
		service.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

		backupFile, err := service.PerformBackup()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "25-01-02-03-04-05", backupFileName), backupFile)

		info, err := os.Stat(backupFile)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})

	t.Run("RestoreIntoEmptyStore", func(t *testing.T) {
		src := testutil.TestMustDB()
		defer src.Close()
		require.NoError(t, storage.NewRunStore(src).SaveRun(report.Results{RunID: "01HZZ", StartedAt: time.Now()}))

		backupFile, err := NewService(nil, src, t.TempDir()).PerformBackup()
		require.NoError(t, err)

		dst := testutil.TestMustDB()
		defer dst.Close()
		require.NoError(t, NewService(nil, dst, t.TempDir()).Restore(backupFile))

		got, err := storage.NewRunStore(dst).GetRun("01HZZ")
		require.NoError(t, err)
		assert.Equal(t, "01HZZ", got.RunID)
	})

	t.Run("RestoreMissingFile", func(t *testing.T) {
		db := testutil.TestMustDB()
		defer db.Close()

		err := NewService(nil, db, t.TempDir()).Restore(filepath.Join(t.TempDir(), "nope.bak"))
		assert.Error(t, err)
	})

	t.Run("UnwritableBackupDir", func(t *testing.T) {
		db := testutil.TestMustDB()
		defer db.Close()

		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		_, err := NewService(nil, db, file).PerformBackup()
		assert.Error(t, err)
	})
}
