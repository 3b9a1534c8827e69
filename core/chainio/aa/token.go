package aa

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
)

// Token is the mintable ERC20 used by token transfer operations.
type Token struct {
	chain   chainio.Chain
	address common.Address
}

func NewToken(chain chainio.Chain, address common.Address) *Token {
	return &Token{chain: chain, address: address}
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	_, err := transact(ctx, t.chain, t.address, nil, TokenABI, "mint", to, amount)
	return err
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return callBig(ctx, t.chain, t.address, TokenABI, "balanceOf", account)
}

func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return TokenABI.Pack("transfer", to, amount)
}
