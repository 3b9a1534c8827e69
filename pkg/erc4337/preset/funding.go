package preset

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/model"
)

var (
	// SelfBalance sends this much to the sender, which then pays gas itself.
	SelfBalanceFunding = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	// SelfDeposit sends a little to the sender and pays gas from an entry
	// point deposit.
	SelfDepositBalance = new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil)
	SelfDepositAmount  = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

func (e *Environment) fundForGas(ctx context.Context, sender common.Address, desc model.OperationDescriptor) error {
	details := map[string]interface{}{"sender": sender.Hex(), "gasPayment": desc.GasPaymentStrategy.String()}

	switch desc.GasPaymentStrategy {
	case model.SelfBalance:
		if _, err := e.chain.Transact(ctx, sender, SelfBalanceFunding, nil); err != nil {
			return model.WrapNetworkError("failed to fund sender", err, details)
		}
	case model.SelfDeposit:
		if _, err := e.chain.Transact(ctx, sender, SelfDepositBalance, nil); err != nil {
			return model.WrapNetworkError("failed to fund sender", err, details)
		}
		if err := e.entryPoint.DepositTo(ctx, sender, SelfDepositAmount); err != nil {
			return model.WrapNetworkError("failed to deposit for sender", err, details)
		}
	default:
		return model.NewConfigurationError("gas payment strategy not supported", details)
	}

	return nil
}
