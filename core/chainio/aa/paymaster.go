package aa

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/userop"
)

// VerifyingPaymaster is a client for the EntryPoint v0.6 sample verifying
// paymaster, whose signer is the benchmark's controlling key.
type VerifyingPaymaster struct {
	chain   chainio.Chain
	address common.Address
}

func NewVerifyingPaymaster(chain chainio.Chain, address common.Address) *VerifyingPaymaster {
	return &VerifyingPaymaster{chain: chain, address: address}
}

func (p *VerifyingPaymaster) Address() common.Address {
	return p.address
}

// GetHash returns the digest the paymaster signer has to sign. The contract
// hashes the operation including the length of PaymasterAndData, so op must
// already carry data of its final length.
func (p *VerifyingPaymaster) GetHash(ctx context.Context, op *userop.UserOperation, validUntil, validAfter *big.Int) (common.Hash, error) {
	res, err := call(ctx, p.chain, p.address, VerifyingPaymasterABI, "getHash", *op, validUntil, validAfter)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(*abi.ConvertType(res[0], new([32]byte)).(*[32]byte)), nil
}

// Deposit funds the paymaster's balance on the entry point.
func (p *VerifyingPaymaster) Deposit(ctx context.Context, amount *big.Int) error {
	_, err := transact(ctx, p.chain, p.address, amount, VerifyingPaymasterABI, "deposit")
	return err
}

func (p *VerifyingPaymaster) GetDeposit(ctx context.Context) (*big.Int, error) {
	return callBig(ctx, p.chain, p.address, VerifyingPaymasterABI, "getDeposit")
}
