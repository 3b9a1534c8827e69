package preset

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/core/chainio/aa"
	"github.com/AvaProtocol/aa-gasbench/model"
)

// bundleState is what later operations of a bundle can see of earlier ones.
type bundleState struct {
	descriptors []model.OperationDescriptor
	senders     []common.Address
}

func (s *bundleState) add(desc model.OperationDescriptor, sender common.Address) {
	s.descriptors = append(s.descriptors, desc)
	s.senders = append(s.senders, sender)
}

// resolveSender returns the sender of an operation and the salt it was
// derived with. A reused sender is taken from the bundle as is, with salt 0.
// Fresh senders get the next run-wide salt; pre-created accounts are deployed
// and nonce-primed here.
func (e *Environment) resolveSender(ctx context.Context, desc model.OperationDescriptor, state *bundleState, reuse *int) (common.Address, *big.Int, error) {
	if reuse != nil {
		ref := *reuse
		details := map[string]interface{}{"reuse": ref}
		if ref < 0 || ref >= len(state.senders) {
			return common.Address{}, nil, model.NewConfigurationError("reuse index must point at an earlier operation", details)
		}
		if state.descriptors[ref].CreationStrategy != model.UsePreCreatedAccount {
			return common.Address{}, nil, model.NewConfigurationError("reused sender must come from a pre-created account", details)
		}
		return state.senders[ref], big.NewInt(0), nil
	}

	wallet, err := e.wallets.Get(desc.WalletKind)
	if err != nil {
		return common.Address{}, nil, err
	}

	e.globalSalt++
	salt := big.NewInt(e.globalSalt)

	if desc.CreationStrategy == model.UsePreCreatedAccount {
		if err := wallet.CreateAccount(ctx, salt); err != nil {
			return common.Address{}, nil, model.WrapNetworkError("failed to create account", err, map[string]interface{}{"salt": salt.String()})
		}
	}

	sender, err := wallet.PredictAddress(ctx, salt)
	if err != nil {
		return common.Address{}, nil, model.WrapNetworkError("failed to predict account address", err, map[string]interface{}{"salt": salt.String()})
	}

	if desc.CreationStrategy == model.UsePreCreatedAccount {
		if err := e.initializeNonce(ctx, wallet, sender); err != nil {
			return common.Address{}, nil, err
		}
	}

	e.names.Add(sender, wallet.Label())
	return sender, salt, nil
}

// initializeNonce makes the account bump its own entry point nonce once, so
// the one-time nonce storage write is not charged to a measured operation.
func (e *Environment) initializeNonce(ctx context.Context, wallet aa.Wallet, sender common.Address) error {
	if e.primed[sender] {
		return nil
	}
	details := map[string]interface{}{"sender": sender.Hex()}

	nonce, err := e.entryPoint.GetNonce(ctx, sender, aa.DefaultNonceKey)
	if err != nil {
		return model.WrapNetworkError("failed to read nonce", err, details)
	}

	if nonce.Sign() == 0 {
		increment, err := aa.PackIncrementNonce(aa.DefaultNonceKey)
		if err != nil {
			return err
		}
		calldata, err := wallet.ExecuteCall(e.entryPoint.Address(), big.NewInt(0), increment)
		if err != nil {
			return err
		}
		if _, err := e.chain.Transact(ctx, sender, nil, calldata); err != nil {
			return model.WrapNetworkError("failed to prime nonce", err, details)
		}

		nonce, err = e.entryPoint.GetNonce(ctx, sender, aa.DefaultNonceKey)
		if err != nil {
			return model.WrapNetworkError("failed to read nonce", err, details)
		}
	}

	if nonce.Cmp(big.NewInt(1)) != 0 {
		details["nonce"] = nonce.String()
		return model.NewInvariantViolation("nonce priming did not leave the account at nonce 1", details)
	}

	e.primed[sender] = true
	e.logger.Debug("nonce primed", "sender", sender.Hex())
	return nil
}

func (e *Environment) buildInitCode(desc model.OperationDescriptor, wallet aa.Wallet, salt *big.Int) ([]byte, error) {
	if desc.CreationStrategy == model.UsePreCreatedAccount {
		return []byte{}, nil
	}
	return wallet.InitCode(salt)
}
