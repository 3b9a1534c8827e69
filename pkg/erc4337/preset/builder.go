package preset

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/core/chainio/aa"
	"github.com/AvaProtocol/aa-gasbench/core/report"
	"github.com/AvaProtocol/aa-gasbench/model"
	"github.com/AvaProtocol/aa-gasbench/pkg/eip1559"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/bundler"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/userop"
)

// buildUserOp assembles, signs and funds one operation. Fields are filled in
// the order the hashes depend on them: paymaster data once everything else
// is final, the signature last.
func (e *Environment) buildUserOp(ctx context.Context, desc model.OperationDescriptor, state *bundleState, reuse *int) (*userop.UserOperation, error) {
	wallet, err := e.wallets.Get(desc.WalletKind)
	if err != nil {
		return nil, err
	}

	sender, salt, err := e.resolveSender(ctx, desc, state, reuse)
	if err != nil {
		return nil, err
	}

	initCode, err := e.buildInitCode(desc, wallet, salt)
	if err != nil {
		return nil, err
	}

	callData, err := e.buildCallData(ctx, desc, wallet, sender)
	if err != nil {
		return nil, err
	}

	maxFeePerGas, maxPriorityFeePerGas, err := eip1559.SuggestFee(ctx, e.chain, e.priorityFee)
	if err != nil {
		return nil, model.WrapNetworkError("failed to read base fee", err, nil)
	}

	nonce, err := e.nonces.NextNonce(ctx, sender, e.fetchNonce)
	if err != nil {
		return nil, model.WrapNetworkError("failed to read nonce", err, map[string]interface{}{"sender": sender.Hex()})
	}

	gas := bundler.FixedGasLimits()
	op := &userop.UserOperation{
		Sender:               sender,
		Nonce:                nonce,
		InitCode:             initCode,
		CallData:             callData,
		CallGasLimit:         gas.CallGasLimit,
		VerificationGasLimit: gas.VerificationGasLimit,
		PreVerificationGas:   gas.PreVerificationGas,
		MaxFeePerGas:         maxFeePerGas,
		MaxPriorityFeePerGas: maxPriorityFeePerGas,
		PaymasterAndData:     []byte{},
		Signature:            []byte{},
	}

	op.PaymasterAndData, err = e.buildPaymasterData(ctx, op, desc)
	if err != nil {
		return nil, err
	}

	op.Signature, err = e.signUserOp(op, wallet)
	if err != nil {
		return nil, err
	}

	if err := e.fundForGas(ctx, sender, desc); err != nil {
		return nil, err
	}

	e.nonces.IncrementNonce(sender, nonce)
	state.add(desc, sender)

	e.logger.Debug("user op built",
		"sender", sender.Hex(),
		"nonce", nonce.String(),
		"descriptor", desc.String(),
		"maxFeeGwei", report.FormatGwei(maxFeePerGas),
		"initCode", len(initCode) > 0)
	return op, nil
}

func (e *Environment) fetchNonce(ctx context.Context, sender common.Address) (*big.Int, error) {
	return e.entryPoint.GetNonce(ctx, sender, aa.DefaultNonceKey)
}

// SubmitBundle builds every operation of bundle in order, submits them in one
// handleOps transaction and checks that each one executed successfully.
// Descriptor and reuse errors are reported before anything is sent to the
// chain. On failure the nonce ledger entries of the bundle's senders are
// dropped so their next use re-reads the chain.
func (e *Environment) SubmitBundle(ctx context.Context, bundle model.BundleDescriptor) (*model.BundleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	if e.chainID == nil {
		return nil, model.NewInvariantViolation("environment is not initialized", map[string]interface{}{"bundle": bundle.Name})
	}

	log := e.logger.With("bundle", bundle.Name)
	state := &bundleState{}

	result, err := e.submit(ctx, bundle, state)
	if err != nil {
		for _, sender := range lo.Uniq(state.senders) {
			e.nonces.ResetNonce(sender)
		}
		log.Error("bundle failed", "error", err)
		return nil, err
	}

	log.Info("bundle mined",
		"txHash", result.TxHash.Hex(),
		"ops", result.OpCount,
		"gasUsed", result.GasUsed,
		"block", result.BlockNumber)
	return result, nil
}

func (e *Environment) submit(ctx context.Context, bundle model.BundleDescriptor, state *bundleState) (*model.BundleResult, error) {
	ops := make([]*userop.UserOperation, 0, bundle.Size())
	for i, desc := range bundle.Operations {
		var reuse *int
		if ref, ok := bundle.Reuse(i); ok {
			reuse = &ref
		}

		op, err := e.buildUserOp(ctx, desc, state, reuse)
		if err != nil {
			return nil, fmt.Errorf("bundle %q operation %d: %w", bundle.Name, i, err)
		}
		ops = append(ops, op)
	}

	e.logger.Debug("submitting handleOps",
		"bundle", bundle.Name,
		"beneficiary", e.beneficiary.Hex(),
		"ops", lo.Map(ops, func(op *userop.UserOperation, _ int) bundler.UserOperation { return bundler.FromUserOp(op) }))

	receipt, err := e.entryPoint.HandleOps(ctx, ops, e.beneficiary)
	if err != nil {
		var revert *chainio.RevertError
		if errors.As(err, &revert) {
			return nil, model.NewBenchError(model.OnChainExecutionFailure, "handleOps reverted",
				map[string]interface{}{"bundle": bundle.Name, "txHash": revert.TxHash.Hex()}, err)
		}
		return nil, model.WrapNetworkError("failed to submit bundle", err, map[string]interface{}{"bundle": bundle.Name})
	}
	if receipt == nil {
		return nil, model.NewInvariantViolation("handleOps returned no receipt", map[string]interface{}{"bundle": bundle.Name})
	}

	events, err := e.entryPoint.ParseUserOperationEvents(receipt)
	if err != nil {
		return nil, err
	}
	if err := validateAllOpsSucceeded(bundle.Name, ops, events); err != nil {
		return nil, err
	}

	return &model.BundleResult{
		Name:              bundle.Name,
		TxHash:            receipt.TxHash,
		OpCount:           len(ops),
		GasUsed:           receipt.GasUsed,
		BlockNumber:       blockNumber(receipt.BlockNumber),
		EffectiveGasPrice: receipt.EffectiveGasPrice,
		OpSuccess:         lo.Map(events, func(ev aa.UserOperationEvent, _ int) bool { return ev.Success }),
		CalldataGas:       lo.SumBy(ops, func(op *userop.UserOperation) uint64 { return op.CalldataGas() }),
		Senders:           lo.Map(ops, func(op *userop.UserOperation, _ int) common.Address { return op.Sender }),
	}, nil
}

// validateAllOpsSucceeded requires one successful UserOperationEvent per
// submitted operation. The entry point does not revert when an inner call
// fails, it only reports it in the event.
func validateAllOpsSucceeded(bundle string, ops []*userop.UserOperation, events []aa.UserOperationEvent) error {
	if len(events) != len(ops) {
		return model.NewExecutionFailure("user operation event count does not match bundle size", map[string]interface{}{
			"bundle": bundle,
			"ops":    len(ops),
			"events": len(events),
		})
	}

	for i, ev := range events {
		if !ev.Success {
			return model.NewExecutionFailure("user operation success status is false", map[string]interface{}{
				"bundle":     bundle,
				"index":      i,
				"sender":     ev.Sender.Hex(),
				"nonce":      ev.Nonce.String(),
				"userOpHash": common.Hash(ev.UserOpHash).Hex(),
			})
		}
	}
	return nil
}

func blockNumber(n *big.Int) uint64 {
	if n == nil {
		return 0
	}
	return n.Uint64()
}
