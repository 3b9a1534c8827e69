package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AvaProtocol/aa-gasbench/core/report"
)

const runPrefix = "run:"

func RunKey(runID string) []byte {
	return []byte(runPrefix + runID)
}

// RunStore keeps the results of every benchmark run keyed by run id. Run ids
// are ULIDs, so key order is submission order.
type RunStore struct {
	db Storage
}

func NewRunStore(db Storage) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) SaveRun(results report.Results) error {
	if results.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return s.db.Set(RunKey(results.RunID), data)
}

func (s *RunStore) GetRun(runID string) (*report.Results, error) {
	data, err := s.db.GetKey(RunKey(runID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("run %s not found: %w", runID, err)
		}
		return nil, err
	}

	var results report.Results
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// ListRunIDs returns every stored run id, oldest first.
func (s *RunStore) ListRunIDs() ([]string, error) {
	keys, err := s.db.ListKeys(runPrefix)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, runPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RunStore) CountRuns() (int64, error) {
	return s.db.CountKeysByPrefix([]byte(runPrefix))
}
