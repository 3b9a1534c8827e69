package aa

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
)

// DefaultEntryPointAddress is the canonical EntryPoint v0.6 deployment.
var DefaultEntryPointAddress = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

// Addresses holds every contract the benchmark talks to.
type Addresses struct {
	EntryPoint           common.Address
	SimpleAccountFactory common.Address
	KernelFactory        common.Address
	KernelImplementation common.Address
	KernelECDSAValidator common.Address
	VerifyingPaymaster   common.Address
	Token                common.Address
}

// Labels maps every configured contract to the name it carries in results.
func (a Addresses) Labels() map[common.Address]string {
	return map[common.Address]string{
		a.EntryPoint:           "EntryPoint v0.6",
		a.VerifyingPaymaster:   "VerifyingPaymaster",
		a.Token:                "Test Token",
		a.SimpleAccountFactory: "SimpleAccountFactory",
		a.KernelFactory:        "KernelFactory v2.3",
		a.KernelImplementation: "KernelAccountImplementation v2.3",
		a.KernelECDSAValidator: "KernelECDSAValidator v2.3",
	}
}

func call(ctx context.Context, chain chainio.Chain, to common.Address, contract abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	out, err := chain.Call(ctx, to, data)
	if err != nil {
		return nil, fmt.Errorf("%s call to %s failed: %w", method, to.Hex(), err)
	}

	res, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return res, nil
}

func callBig(ctx context.Context, chain chainio.Chain, to common.Address, contract abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	res, err := call(ctx, chain, to, contract, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(res[0], new(*big.Int)).(**big.Int), nil
}

func callAddress(ctx context.Context, chain chainio.Chain, to common.Address, contract abi.ABI, method string, args ...interface{}) (common.Address, error) {
	res, err := call(ctx, chain, to, contract, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(res[0], new(common.Address)).(*common.Address), nil
}

func transact(ctx context.Context, chain chainio.Chain, to common.Address, value *big.Int, contract abi.ABI, method string, args ...interface{}) (*types.Receipt, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	receipt, err := chain.Transact(ctx, to, value, data)
	if err != nil {
		return receipt, fmt.Errorf("%s on %s failed: %w", method, to.Hex(), err)
	}
	return receipt, nil
}
