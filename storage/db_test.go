package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/aa-gasbench/core/report"
)

func TestBadgerStorageBasicOps(t *testing.T) {
	db, err := NewWithPath(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set([]byte("k:1"), []byte("one")))
	require.NoError(t, db.BatchWrite(map[string][]byte{
		"k:2":     []byte("two"),
		"other:1": []byte("x"),
	}))

	v, err := db.GetKey([]byte("k:1"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(v))

	ok, err := db.Exist([]byte("k:2"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.Exist([]byte("k:3"))
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := db.ListKeys("k:")
	require.NoError(t, err)
	assert.Equal(t, []string{"k:1", "k:2"}, keys)

	items, err := db.GetByPrefix([]byte("k:"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "two", string(items[1].Value))

	total, err := db.CountKeysByPrefix([]byte("k:"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = db.CountKeysByPrefix(nil)
	assert.Error(t, err)

	require.NoError(t, db.Delete([]byte("k:1")))
	_, err = db.GetKey([]byte("k:1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestroyRemovesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")
	db, err := NewWithPath(path)
	require.NoError(t, err)
	require.NoError(t, db.Set([]byte("k"), []byte("v")))

	require.NoError(t, Destroy(db.(*BadgerStorage)))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRunStore(t *testing.T) {
	db, err := NewInMemory()
	require.NoError(t, err)
	defer db.Close()

	runs := NewRunStore(db)

	first := report.Results{
		RunID:     "01J0000000000000000000000A",
		StartedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Bundles: []report.BundleEntry{
			{Name: "single-baseline-simple-account", OpCount: 1, GasUsed: 90_000, GasPerOp: 90_000, Success: true},
		},
		AddressLabels: map[string]string{"0x5ff137d4b0fdcd49dca30c7cf57e578a026d2789": "EntryPoint v0.6"},
	}
	second := report.Results{RunID: "01J0000000000000000000000B"}

	require.NoError(t, runs.SaveRun(second))
	require.NoError(t, runs.SaveRun(first))
	assert.Error(t, runs.SaveRun(report.Results{}))

	ids, err := runs.ListRunIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{first.RunID, second.RunID}, ids)

	total, err := runs.CountRuns()
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	got, err := runs.GetRun(first.RunID)
	require.NoError(t, err)
	assert.Equal(t, first.Bundles, got.Bundles)
	assert.Equal(t, first.AddressLabels, got.AddressLabels)
	assert.True(t, first.StartedAt.Equal(got.StartedAt))

	_, err = runs.GetRun("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
