package report

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// WeiToEth renders a wei amount in ether without losing precision.
func WeiToEth(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -18).String()
}

// FormatGwei renders a wei amount in gwei, rounded to 3 decimals.
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -9).Round(3).String()
}
