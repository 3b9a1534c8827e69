package config

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func addressOr(raw string, fallback common.Address) common.Address {
	if raw == "" {
		return fallback
	}
	return common.HexToAddress(raw)
}

func weiOr(raw string, fallback *big.Int) (*big.Int, error) {
	if raw == "" {
		return new(big.Int).Set(fallback), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid wei amount %q", raw)
	}
	return v, nil
}
