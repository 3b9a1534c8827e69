package preset

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/aa-gasbench/model"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/userop"
)

// PaymasterAndData for the verifying paymaster is
// address(20) + abi.encode(uint48 validUntil, uint48 validAfter)(64) + signature(65).
const VerifyingPaymasterDataLength = common.AddressLength + 64 + 65

var (
	MockValidUntil = big.NewInt(0xdeadbeef)
	MockValidAfter = big.NewInt(0x1234)

	uint48Type, _ = abi.NewType("uint48", "", nil)
	validityArgs  = abi.Arguments{
		{Name: "validUntil", Type: uint48Type},
		{Name: "validAfter", Type: uint48Type},
	}
)

// buildPaymasterData returns the PaymasterAndData for op. For the verifying
// paymaster op.PaymasterAndData is first set to a placeholder of the final
// length, since the paymaster's hash depends on that length.
func (e *Environment) buildPaymasterData(ctx context.Context, op *userop.UserOperation, desc model.OperationDescriptor) ([]byte, error) {
	switch desc.PaymasterKind {
	case model.NoPaymaster:
		return []byte{}, nil
	case model.VerifyingPaymaster:
	default:
		return nil, model.NewConfigurationError("unsupported paymaster", map[string]interface{}{"paymaster": desc.PaymasterKind.String()})
	}

	details := map[string]interface{}{"sender": op.Sender.Hex()}

	placeholder := bytes.Repeat([]byte{0xff}, VerifyingPaymasterDataLength)
	op.PaymasterAndData = placeholder

	hash, err := e.paymaster.GetHash(ctx, op, MockValidUntil, MockValidAfter)
	if err != nil {
		return nil, model.WrapNetworkError("failed to get paymaster hash", err, details)
	}

	sig, err := e.signer.SignMessage(hash.Bytes())
	if err != nil {
		return nil, err
	}

	validity, err := validityArgs.Pack(MockValidUntil, MockValidAfter)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(placeholder))
	data = append(data, e.paymaster.Address().Bytes()...)
	data = append(data, validity...)
	data = append(data, sig...)

	if len(data) != len(placeholder) {
		details["length"] = len(data)
		details["placeholderLength"] = len(placeholder)
		return nil, model.NewInvariantViolation("paymaster data length differs from placeholder", details)
	}

	return data, nil
}
