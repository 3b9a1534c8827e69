package model

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseline = OperationDescriptor{
	WalletKind:         SimpleAccountV06,
	PaymasterKind:      NoPaymaster,
	GasPaymentStrategy: SelfBalance,
	CreationStrategy:   UsePreCreatedAccount,
	Action:             NativeValueTransfer,
}

func TestPaymasterKindsAreDistinct(t *testing.T) {
	assert.NotEqual(t, NoPaymaster, VerifyingPaymaster)
	assert.NotEqual(t, VerifyingPaymaster, ERC20TokenPaymaster)
	assert.NotEqual(t, NoPaymaster, ERC20TokenPaymaster)
}

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name string
		desc OperationDescriptor
		ok   bool
	}{
		{"baseline", baseline, true},
		{"kernel", baseline.WithWallet(KernelLiteV23), true},
		{"init code", baseline.WithCreation(DeployViaInitCodeInOperation), true},
		{"verifying paymaster", baseline.WithPaymaster(VerifyingPaymaster), true},
		{"self deposit", baseline.WithGasPayment(SelfDeposit), true},
		{"token transfer", baseline.WithAction(TokenTransfer), true},
		{"erc20 paymaster", baseline.WithPaymaster(ERC20TokenPaymaster), false},
		{"paymaster deposit", baseline.WithGasPayment(PaymasterDeposit), false},
		{"paymaster balance", baseline.WithGasPayment(PaymasterBalance), false},
		{"unknown wallet", baseline.WithWallet(WalletKind(9)), false},
		{"unknown action", baseline.WithAction(Action(9)), false},
		{"unknown creation", baseline.WithCreation(CreationStrategy(9)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestUnknownEnumValuesFormatTheirNumber(t *testing.T) {
	assert.Equal(t, "unknown(9)", WalletKind(9).String())
	assert.Equal(t, "unknown(9)", PaymasterKind(9).String())
	assert.Equal(t, "unknown(9)", GasPaymentStrategy(9).String())
	assert.Equal(t, "unknown(9)", CreationStrategy(9).String())
	assert.Equal(t, "unknown(-1)", Action(-1).String())

	desc := baseline.WithWallet(WalletKind(9))
	assert.Contains(t, desc.String(), "unknown(9)")

	err := desc.Validate()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestParseEnums(t *testing.T) {
	w, err := ParseWalletKind("Kernel-Lite-v2.3")
	require.NoError(t, err)
	assert.Equal(t, KernelLiteV23, w)

	p, err := ParsePaymasterKind(" verifying ")
	require.NoError(t, err)
	assert.Equal(t, VerifyingPaymaster, p)

	g, err := ParseGasPaymentStrategy("self-deposit")
	require.NoError(t, err)
	assert.Equal(t, SelfDeposit, g)

	c, err := ParseCreationStrategy("init-code")
	require.NoError(t, err)
	assert.Equal(t, DeployViaInitCodeInOperation, c)

	a, err := ParseAction("token-transfer")
	require.NoError(t, err)
	assert.Equal(t, TokenTransfer, a)

	_, err = ParseWalletKind("safe")
	assert.True(t, IsConfigurationError(err))

	assert.Equal(t, "unknown(7)", WalletKind(7).String())
	assert.Equal(t, "simple-account-v0.6/none/self-balance/pre-created/value-transfer", baseline.String())
}

func TestBundleValidate(t *testing.T) {
	tests := []struct {
		name   string
		bundle BundleDescriptor
		ok     bool
	}{
		{"single", BundleDescriptor{Name: "a", Operations: []OperationDescriptor{baseline}}, true},
		{"reuse earlier pre-created", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline, baseline, baseline},
			ReuseIndex: []*int{nil, IntRef(0), IntRef(1)},
		}, true},
		{"no name", BundleDescriptor{Operations: []OperationDescriptor{baseline}}, false},
		{"empty", BundleDescriptor{Name: "a"}, false},
		{"index length", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline, baseline},
			ReuseIndex: []*int{nil},
		}, false},
		{"self reference", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline},
			ReuseIndex: []*int{IntRef(0)},
		}, false},
		{"negative reference", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline, baseline},
			ReuseIndex: []*int{nil, IntRef(-1)},
		}, false},
		{"target deployed by init code", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline.WithCreation(DeployViaInitCodeInOperation), baseline},
			ReuseIndex: []*int{nil, IntRef(0)},
		}, false},
		{"reusing op carries init code", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline, baseline.WithCreation(DeployViaInitCodeInOperation)},
			ReuseIndex: []*int{nil, IntRef(0)},
		}, false},
		{"wallet mismatch", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline, baseline.WithWallet(KernelLiteV23)},
			ReuseIndex: []*int{nil, IntRef(0)},
		}, false},
		{"sponsored then self-paid on reused sender", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline.WithPaymaster(VerifyingPaymaster), baseline},
			ReuseIndex: []*int{nil, IntRef(0)},
		}, true},
		{"self-paid then sponsored on reused sender", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline, baseline.WithPaymaster(VerifyingPaymaster)},
			ReuseIndex: []*int{nil, IntRef(0)},
		}, true},
		{"sponsored on distinct senders", BundleDescriptor{
			Name: "a",
			Operations: []OperationDescriptor{
				baseline.WithPaymaster(VerifyingPaymaster),
				baseline.WithPaymaster(VerifyingPaymaster),
			},
		}, true},
		{"sponsored twice on reused sender", BundleDescriptor{
			Name: "a",
			Operations: []OperationDescriptor{
				baseline.WithPaymaster(VerifyingPaymaster),
				baseline.WithPaymaster(VerifyingPaymaster),
			},
			ReuseIndex: []*int{nil, IntRef(0)},
		}, false},
		{"sponsored twice through reuse chain", BundleDescriptor{
			Name: "a",
			Operations: []OperationDescriptor{
				baseline.WithPaymaster(VerifyingPaymaster),
				baseline,
				baseline.WithPaymaster(VerifyingPaymaster),
			},
			ReuseIndex: []*int{nil, IntRef(0), IntRef(1)},
		}, false},
		{"unsupported descriptor", BundleDescriptor{
			Name:       "a",
			Operations: []OperationDescriptor{baseline, baseline.WithGasPayment(PaymasterBalance)},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bundle.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err), err.Error())
		})
	}
}

func TestValidateAddsBundleContext(t *testing.T) {
	err := BundleDescriptor{
		Name:       "ctx",
		Operations: []OperationDescriptor{baseline, baseline.WithGasPayment(PaymasterBalance)},
	}.Validate()

	var be *BenchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "ctx", be.Details["bundle"])
	assert.Equal(t, 1, be.Details["index"])
}

func TestReuse(t *testing.T) {
	b := BundleDescriptor{
		Name:       "a",
		Operations: []OperationDescriptor{baseline, baseline},
		ReuseIndex: []*int{nil, IntRef(0)},
	}

	_, ok := b.Reuse(0)
	assert.False(t, ok)
	ref, ok := b.Reuse(1)
	assert.True(t, ok)
	assert.Equal(t, 0, ref)
	_, ok = b.Reuse(5)
	assert.False(t, ok)
	assert.Equal(t, 2, b.Size())
}

func TestErrorCodes(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapNetworkError("failed to read nonce", cause, map[string]interface{}{"sender": "0x1"})

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, NetworkOrProviderError, code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	wrapped := fmt.Errorf("bundle x: %w", NewExecutionFailure("op failed", nil))
	assert.True(t, IsExecutionFailure(wrapped))
	assert.Equal(t, wrapped, WrapNetworkError("step", wrapped, nil))

	assert.Nil(t, WrapNetworkError("step", nil, nil))
	assert.True(t, IsInvariantViolation(NewInvariantViolation("bad", nil)))
	_, ok = CodeOf(cause)
	assert.False(t, ok)
}

func TestBundleResult(t *testing.T) {
	r := &BundleResult{GasUsed: 300, OpCount: 3}
	assert.Equal(t, uint64(100), r.GasPerOp())
	assert.Equal(t, "0", r.Cost().String())

	r.EffectiveGasPrice = big.NewInt(2)
	assert.Equal(t, "600", r.Cost().String())

	assert.Equal(t, uint64(0), (&BundleResult{}).GasPerOp())
	assert.False(t, r.Failed())
}

func TestFailedBundleResult(t *testing.T) {
	r := NewFailedBundleResult("b", 2, NewExecutionFailure("user operation success status is false", nil))
	assert.True(t, r.Failed())
	assert.Equal(t, OnChainExecutionFailure, r.ErrorCode)
	assert.Equal(t, 2, r.OpCount)

	plain := NewFailedBundleResult("b", 1, fmt.Errorf("dial tcp: refused"))
	assert.Empty(t, plain.ErrorCode)
	assert.Equal(t, "dial tcp: refused", plain.Error)

	assert.True(t, (&BundleResult{OpSuccess: []bool{true, false}}).Failed())
}
