package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BundleResult is what the benchmark records for one mined handleOps call.
type BundleResult struct {
	RunID             string           `json:"runId,omitempty"`
	Name              string           `json:"name"`
	TxHash            common.Hash      `json:"txHash"`
	OpCount           int              `json:"opCount"`
	GasUsed           uint64           `json:"gasUsed"`
	BlockNumber       uint64           `json:"blockNumber"`
	EffectiveGasPrice *big.Int         `json:"effectiveGasPrice,omitempty"`
	OpSuccess         []bool           `json:"opSuccess"`
	CalldataGas       uint64           `json:"calldataGas"`
	Senders           []common.Address `json:"senders"`
	// Error is set on bundles that failed before or during submission.
	Error     string    `json:"error,omitempty"`
	ErrorCode ErrorCode `json:"errorCode,omitempty"`
}

// NewFailedBundleResult records a bundle that produced no usable receipt.
func NewFailedBundleResult(name string, opCount int, err error) *BundleResult {
	code, _ := CodeOf(err)
	return &BundleResult{
		Name:      name,
		OpCount:   opCount,
		Error:     err.Error(),
		ErrorCode: code,
	}
}

// Failed reports whether the bundle errored or any operation reported failure.
func (r *BundleResult) Failed() bool {
	if r.Error != "" {
		return true
	}
	for _, ok := range r.OpSuccess {
		if !ok {
			return true
		}
	}
	return false
}

// GasPerOp is the average gas the bundle spent per operation.
func (r *BundleResult) GasPerOp() uint64 {
	if r.OpCount == 0 {
		return 0
	}
	return r.GasUsed / uint64(r.OpCount)
}

// Cost is gas used times the effective gas price, in wei.
func (r *BundleResult) Cost() *big.Int {
	if r.EffectiveGasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(r.GasUsed), r.EffectiveGasPrice)
}
