package preset

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/core/chainio/aa"
	"github.com/AvaProtocol/aa-gasbench/model"
)

var (
	// Sent to every fresh destination so the measured call never pays for
	// creating the recipient account.
	DestinationWarmupWei = big.NewInt(1)
	ValueTransferWei     = big.NewInt(100_000)
	TokenMintAmount      = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	TokenTransferAmount  = big.NewInt(1000)
)

// buildCallData returns the account calldata for the descriptor's action
// against a fresh destination.
func (e *Environment) buildCallData(ctx context.Context, desc model.OperationDescriptor, wallet aa.Wallet, sender common.Address) ([]byte, error) {
	destination := e.newDestination()
	details := map[string]interface{}{"sender": sender.Hex(), "destination": destination.Hex()}

	if _, err := e.chain.Transact(ctx, destination, DestinationWarmupWei, nil); err != nil {
		return nil, model.WrapNetworkError("failed to warm up destination", err, details)
	}

	var (
		target common.Address
		value  *big.Int
		inner  []byte
	)

	switch desc.Action {
	case model.NativeValueTransfer:
		target = destination
		value = ValueTransferWei
		inner = []byte{}
	case model.TokenTransfer:
		for _, holder := range []common.Address{sender, destination} {
			if err := e.token.Mint(ctx, holder, TokenMintAmount); err != nil {
				return nil, model.WrapNetworkError("failed to mint test token", err, details)
			}
		}
		transfer, err := aa.PackTransfer(destination, TokenTransferAmount)
		if err != nil {
			return nil, err
		}
		target = e.token.Address()
		value = big.NewInt(0)
		inner = transfer
	default:
		return nil, model.NewConfigurationError("unsupported user op action", map[string]interface{}{"action": desc.Action.String()})
	}

	return wallet.ExecuteCall(target, value, inner)
}
