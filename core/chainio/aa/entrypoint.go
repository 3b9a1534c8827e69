package aa

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/userop"
)

// DefaultNonceKey is the nonce key every benchmark operation uses.
var DefaultNonceKey = big.NewInt(0)

// EntryPoint is a thin client for the EntryPoint v0.6 contract.
type EntryPoint struct {
	chain   chainio.Chain
	address common.Address
}

func NewEntryPoint(chain chainio.Chain, address common.Address) *EntryPoint {
	return &EntryPoint{chain: chain, address: address}
}

func (e *EntryPoint) Address() common.Address {
	return e.address
}

func (e *EntryPoint) GetNonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error) {
	if key == nil {
		key = DefaultNonceKey
	}
	return callBig(ctx, e.chain, e.address, EntryPointABI, "getNonce", sender, key)
}

func (e *EntryPoint) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return callBig(ctx, e.chain, e.address, EntryPointABI, "balanceOf", account)
}

func (e *EntryPoint) DepositTo(ctx context.Context, account common.Address, amount *big.Int) error {
	_, err := transact(ctx, e.chain, e.address, amount, EntryPointABI, "depositTo", account)
	return err
}

// HandleOps submits every operation in one transaction and returns its
// receipt. The receipt is returned even when the transaction reverted.
func (e *EntryPoint) HandleOps(ctx context.Context, ops []*userop.UserOperation, beneficiary common.Address) (*types.Receipt, error) {
	packed := make([]userop.UserOperation, len(ops))
	for i, op := range ops {
		packed[i] = *op
	}
	return transact(ctx, e.chain, e.address, nil, EntryPointABI, "handleOps", packed, beneficiary)
}

// PackIncrementNonce is the calldata an account sends to the entry point to
// bump its own nonce for key.
func PackIncrementNonce(key *big.Int) ([]byte, error) {
	return EntryPointABI.Pack("incrementNonce", key)
}

// UserOperationEvent is the decoded event the entry point emits once per
// executed operation.
type UserOperationEvent struct {
	UserOpHash    [32]byte
	Sender        common.Address
	Paymaster     common.Address
	Nonce         *big.Int
	Success       bool
	ActualGasCost *big.Int
	ActualGasUsed *big.Int
}

// ParseUserOperationEvents decodes every UserOperationEvent emitted by the
// entry point at address in the given logs, in log order.
func ParseUserOperationEvents(address common.Address, logs []*types.Log) ([]UserOperationEvent, error) {
	eventID := EntryPointABI.Events["UserOperationEvent"].ID
	contract := bind.NewBoundContract(address, EntryPointABI, nil, nil, nil)

	var events []UserOperationEvent
	for _, log := range logs {
		if log.Address != address || len(log.Topics) == 0 || log.Topics[0] != eventID {
			continue
		}

		var ev UserOperationEvent
		if err := contract.UnpackLog(&ev, "UserOperationEvent", *log); err != nil {
			return nil, fmt.Errorf("failed to decode UserOperationEvent: %w", err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// ParseUserOperationEvents decodes the events this entry point emitted.
func (e *EntryPoint) ParseUserOperationEvents(receipt *types.Receipt) ([]UserOperationEvent, error) {
	return ParseUserOperationEvents(e.address, receipt.Logs)
}

// PackUserOperationEvent builds the log the entry point would emit for ev.
// The in-memory chain used in tests emits events through it.
func PackUserOperationEvent(address common.Address, ev UserOperationEvent) (*types.Log, error) {
	event := EntryPointABI.Events["UserOperationEvent"]
	data, err := event.Inputs.NonIndexed().Pack(ev.Nonce, ev.Success, ev.ActualGasCost, ev.ActualGasUsed)
	if err != nil {
		return nil, err
	}

	return &types.Log{
		Address: address,
		Topics: []common.Hash{
			event.ID,
			common.Hash(ev.UserOpHash),
			common.BytesToHash(ev.Sender.Bytes()),
			common.BytesToHash(ev.Paymaster.Bytes()),
		},
		Data: data,
	}, nil
}
