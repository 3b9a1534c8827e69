package eip1559

import (
	"context"
	"math/big"
)

// DefaultPriorityFee is the fixed tip every benchmark operation pays, 1 gwei.
var DefaultPriorityFee = big.NewInt(1_000_000_000)

// BaseFeeSource reports the base fee of the latest block.
type BaseFeeSource interface {
	BaseFee(ctx context.Context) (*big.Int, error)
}

// MaxFeePerGas is baseFee + priorityFee. A nil base fee counts as zero, which
// is what a legacy chain reports.
func MaxFeePerGas(baseFee, priorityFee *big.Int) *big.Int {
	fee := new(big.Int)
	if baseFee != nil {
		fee.Set(baseFee)
	}
	if priorityFee != nil {
		fee.Add(fee, priorityFee)
	}
	return fee
}

// SuggestFee returns (maxFeePerGas, maxPriorityFeePerGas) for the next
// operation, with no headroom over the latest base fee.
func SuggestFee(ctx context.Context, source BaseFeeSource, priorityFee *big.Int) (*big.Int, *big.Int, error) {
	if priorityFee == nil {
		priorityFee = DefaultPriorityFee
	}

	baseFee, err := source.BaseFee(ctx)
	if err != nil {
		return nil, nil, err
	}

	return MaxFeePerGas(baseFee, priorityFee), new(big.Int).Set(priorityFee), nil
}
