package model

import (
	"fmt"
	"strings"
)

// WalletKind selects the smart account implementation an operation targets.
type WalletKind int

const (
	SimpleAccountV06 WalletKind = iota
	KernelLiteV23
)

// PaymasterKind selects how an operation is sponsored. Every kind carries its
// own tag, "no paymaster" and "verifying paymaster" are never the same value.
type PaymasterKind int

const (
	NoPaymaster PaymasterKind = iota
	VerifyingPaymaster
	ERC20TokenPaymaster
)

// GasPaymentStrategy selects where the gas for an operation is paid from.
type GasPaymentStrategy int

const (
	SelfBalance GasPaymentStrategy = iota
	SelfDeposit
	PaymasterDeposit
	PaymasterBalance
)

// CreationStrategy selects whether the account exists before the operation runs.
type CreationStrategy int

const (
	UsePreCreatedAccount CreationStrategy = iota
	DeployViaInitCodeInOperation
)

// Action is the inner call an operation performs through its account.
type Action int

const (
	NativeValueTransfer Action = iota
	TokenTransfer
)

var (
	walletKindNames = map[WalletKind]string{
		SimpleAccountV06: "simple-account-v0.6",
		KernelLiteV23:    "kernel-lite-v2.3",
	}
	paymasterKindNames = map[PaymasterKind]string{
		NoPaymaster:         "none",
		VerifyingPaymaster:  "verifying",
		ERC20TokenPaymaster: "erc20-token",
	}
	gasPaymentNames = map[GasPaymentStrategy]string{
		SelfBalance:      "self-balance",
		SelfDeposit:      "self-deposit",
		PaymasterDeposit: "paymaster-deposit",
		PaymasterBalance: "paymaster-balance",
	}
	creationNames = map[CreationStrategy]string{
		UsePreCreatedAccount:         "pre-created",
		DeployViaInitCodeInOperation: "init-code",
	}
	actionNames = map[Action]string{
		NativeValueTransfer: "value-transfer",
		TokenTransfer:       "token-transfer",
	}
)

func enumName[T ~int](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(v))
}

func parseEnum[T comparable](names map[T]string, kind, s string) (T, error) {
	for v, name := range names {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return v, nil
		}
	}
	var zero T
	return zero, NewConfigurationError(fmt.Sprintf("unknown %s %q", kind, s), map[string]interface{}{kind: s})
}

func (k WalletKind) String() string         { return enumName(walletKindNames, k) }
func (k PaymasterKind) String() string      { return enumName(paymasterKindNames, k) }
func (s GasPaymentStrategy) String() string { return enumName(gasPaymentNames, s) }
func (s CreationStrategy) String() string   { return enumName(creationNames, s) }
func (a Action) String() string             { return enumName(actionNames, a) }

func ParseWalletKind(s string) (WalletKind, error) {
	return parseEnum(walletKindNames, "wallet", s)
}

func ParsePaymasterKind(s string) (PaymasterKind, error) {
	return parseEnum(paymasterKindNames, "paymaster", s)
}

func ParseGasPaymentStrategy(s string) (GasPaymentStrategy, error) {
	return parseEnum(gasPaymentNames, "gas_payment", s)
}

func ParseCreationStrategy(s string) (CreationStrategy, error) {
	return parseEnum(creationNames, "creation", s)
}

func ParseAction(s string) (Action, error) {
	return parseEnum(actionNames, "action", s)
}

// OperationDescriptor describes one desired UserOperation. It is a plain value
// and is consumed exactly once to build one operation.
type OperationDescriptor struct {
	WalletKind         WalletKind
	PaymasterKind      PaymasterKind
	GasPaymentStrategy GasPaymentStrategy
	CreationStrategy   CreationStrategy
	Action             Action
}

// With* helpers return modified copies, mirroring how the benchmark cases are
// derived from a baseline.
func (d OperationDescriptor) WithWallet(w WalletKind) OperationDescriptor {
	d.WalletKind = w
	return d
}

func (d OperationDescriptor) WithCreation(c CreationStrategy) OperationDescriptor {
	d.CreationStrategy = c
	return d
}

func (d OperationDescriptor) WithPaymaster(p PaymasterKind) OperationDescriptor {
	d.PaymasterKind = p
	return d
}

func (d OperationDescriptor) WithGasPayment(g GasPaymentStrategy) OperationDescriptor {
	d.GasPaymentStrategy = g
	return d
}

func (d OperationDescriptor) WithAction(a Action) OperationDescriptor {
	d.Action = a
	return d
}

func (d OperationDescriptor) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", d.WalletKind, d.PaymasterKind, d.GasPaymentStrategy, d.CreationStrategy, d.Action)
}

// Validate rejects combinations the pipeline does not implement. It never
// touches the chain.
func (d OperationDescriptor) Validate() error {
	details := map[string]interface{}{"descriptor": d.String()}

	if _, ok := walletKindNames[d.WalletKind]; !ok {
		return NewConfigurationError("unsupported wallet implementation", details)
	}
	if _, ok := creationNames[d.CreationStrategy]; !ok {
		return NewConfigurationError("unsupported creation strategy", details)
	}
	if _, ok := actionNames[d.Action]; !ok {
		return NewConfigurationError("unsupported user op action", details)
	}

	switch d.PaymasterKind {
	case NoPaymaster, VerifyingPaymaster:
	default:
		return NewConfigurationError("unsupported paymaster", details)
	}

	switch d.GasPaymentStrategy {
	case SelfBalance, SelfDeposit:
	default:
		return NewConfigurationError("gas payment strategy not supported", details)
	}

	return nil
}
