package bundler

import "math/big"

// DefaultGasLimit is used for every gas limit of a benchmark operation. No
// estimation is done: the limits only need to be generous enough for
// deployment plus a paymaster round trip.
const DefaultGasLimit = 1_000_000

type GasEstimation struct {
	PreVerificationGas   *big.Int
	VerificationGasLimit *big.Int
	CallGasLimit         *big.Int
}

// FixedGasLimits returns a fresh set of the default limits.
func FixedGasLimits() *GasEstimation {
	return &GasEstimation{
		PreVerificationGas:   big.NewInt(DefaultGasLimit),
		VerificationGasLimit: big.NewInt(DefaultGasLimit),
		CallGasLimit:         big.NewInt(DefaultGasLimit),
	}
}
