package chainio

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/AvaProtocol/aa-gasbench/pkg/logger"
)

// Chain is the slice of an execution client the benchmark needs. Every
// transaction is sent from a single controlling key and waited on until mined.
type Chain interface {
	ChainID(ctx context.Context) (*big.Int, error)
	// BaseFee is the base fee of the latest block, zero on pre-London chains.
	BaseFee(ctx context.Context) (*big.Int, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	// Transact sends value and data to `to` and blocks until the receipt is
	// available. A reverted transaction is reported as *RevertError together
	// with its receipt.
	Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	// From is the address transactions are sent from.
	From() common.Address
}

type RevertError struct {
	TxHash common.Hash
	To     common.Address
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction %s to %s reverted", e.TxHash.Hex(), e.To.Hex())
}

// EthChain implements Chain over a JSON-RPC endpoint.
type EthChain struct {
	client *ethclient.Client
	auth   *bind.TransactOpts
	logger logger.Logger
}

func NewEthChain(client *ethclient.Client, auth *bind.TransactOpts, lgr logger.Logger) *EthChain {
	return &EthChain{
		client: client,
		auth:   auth,
		logger: logger.EnsureLogger(lgr),
	}
}

// Dial connects to rpcURL and prepares a transactor for the given key.
func Dial(ctx context.Context, rpcURL string, auth func(chainID *big.Int) (*bind.TransactOpts, error), lgr logger.Logger) (*EthChain, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}

	opts, err := auth(chainID)
	if err != nil {
		client.Close()
		return nil, err
	}

	return NewEthChain(client, opts, lgr), nil
}

func (c *EthChain) Close() {
	c.client.Close()
}

func (c *EthChain) ChainID(ctx context.Context) (*big.Int, error) {
	return c.client.ChainID(ctx)
}

func (c *EthChain) BaseFee(ctx context.Context) (*big.Int, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	if header.BaseFee == nil {
		return new(big.Int), nil
	}
	return header.BaseFee, nil
}

func (c *EthChain) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.client.CallContract(ctx, ethereum.CallMsg{
		From: c.auth.From,
		To:   &to,
		Data: data,
	}, nil)
}

func (c *EthChain) Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	opts := *c.auth
	opts.Context = ctx
	opts.Value = value

	contract := bind.NewBoundContract(to, abi.ABI{}, c.client, c.client, c.client)
	tx, err := contract.RawTransact(&opts, data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("transaction sent", "txHash", tx.Hash().Hex(), "to", to.Hex(), "nonce", tx.Nonce())

	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &RevertError{TxHash: tx.Hash(), To: to}
	}

	return receipt, nil
}

func (c *EthChain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.client.BalanceAt(ctx, account, nil)
}

func (c *EthChain) From() common.Address {
	return c.auth.From
}
