package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"github.com/AvaProtocol/aa-gasbench/model"
)

// BundleEntry is one bundle as written to results.json.
type BundleEntry struct {
	Name        string `json:"name"`
	TxHash      string `json:"txHash"`
	OpCount     int    `json:"opCount"`
	GasUsed     uint64 `json:"gasUsed"`
	GasPerOp    uint64 `json:"gasPerOp"`
	CalldataGas uint64 `json:"calldataGas"`
	BlockNumber uint64 `json:"blockNumber"`
	CostEth     string `json:"costEth"`
	Success     bool   `json:"success"`
	ErrorCode   string `json:"errorCode,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Results is the full artifact of one run.
type Results struct {
	RunID         string            `json:"runId"`
	StartedAt     time.Time         `json:"startedAt"`
	Bundles       []BundleEntry     `json:"bundles"`
	AddressLabels map[string]string `json:"addressLabels"`
}

// ResultsWriter collects bundle results of a run in submission order.
type ResultsWriter struct {
	mu        sync.Mutex
	runID     string
	startedAt time.Time
	results   []*model.BundleResult
	names     *NameRegistry
}

func NewResultsWriter(names *NameRegistry) *ResultsWriter {
	if names == nil {
		names = NewNameRegistry()
	}
	return &ResultsWriter{
		runID:     ulid.Make().String(),
		startedAt: time.Now().UTC(),
		names:     names,
	}
}

func (w *ResultsWriter) RunID() string {
	return w.runID
}

func (w *ResultsWriter) AddResult(result *model.BundleResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	result.RunID = w.runID
	w.results = append(w.results, result)
}

// Len is the number of results recorded so far.
func (w *ResultsWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.results)
}

func (w *ResultsWriter) Results() Results {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Results{
		RunID:         w.runID,
		StartedAt:     w.startedAt,
		Bundles:       lo.Map(w.results, func(r *model.BundleResult, _ int) BundleEntry { return toEntry(r) }),
		AddressLabels: w.names.Map(),
	}
}

// WriteResults writes results.json style output to path, creating the
// parent directory when needed.
func (w *ResultsWriter) WriteResults(path string) error {
	data, err := json.MarshalIndent(w.Results(), "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func toEntry(r *model.BundleResult) BundleEntry {
	txHash := ""
	if r.TxHash != (common.Hash{}) {
		txHash = r.TxHash.Hex()
	}
	return BundleEntry{
		Name:        r.Name,
		TxHash:      txHash,
		OpCount:     r.OpCount,
		GasUsed:     r.GasUsed,
		GasPerOp:    r.GasPerOp(),
		CalldataGas: r.CalldataGas,
		BlockNumber: r.BlockNumber,
		CostEth:     WeiToEth(r.Cost()),
		Success:     !r.Failed(),
		ErrorCode:   string(r.ErrorCode),
		Error:       r.Error,
	}
}
