package matrix

import (
	"github.com/AvaProtocol/aa-gasbench/model"
)

var (
	SimpleAccountV06Baseline = model.OperationDescriptor{
		WalletKind:         model.SimpleAccountV06,
		PaymasterKind:      model.NoPaymaster,
		GasPaymentStrategy: model.SelfBalance,
		CreationStrategy:   model.UsePreCreatedAccount,
		Action:             model.NativeValueTransfer,
	}
	SimpleAccountV06WithCreation       = SimpleAccountV06Baseline.WithCreation(model.DeployViaInitCodeInOperation)
	SimpleAccountV06VerifyingPaymaster = SimpleAccountV06Baseline.WithPaymaster(model.VerifyingPaymaster)

	KernelLiteV23Baseline           = SimpleAccountV06Baseline.WithWallet(model.KernelLiteV23)
	KernelLiteV23WithCreation       = KernelLiteV23Baseline.WithCreation(model.DeployViaInitCodeInOperation)
	KernelLiteV23VerifyingPaymaster = KernelLiteV23Baseline.WithPaymaster(model.VerifyingPaymaster)
)

// Builtin is the default benchmark matrix: a single and a double operation
// bundle for each wallet baseline, deployment through init code and the
// verifying paymaster, followed by token transfers, entry point deposits and
// bundles that reuse one sender several times.
func Builtin() []model.BundleDescriptor {
	bundles := []model.BundleDescriptor{}

	variants := []struct {
		wallet string
		ops    []model.OperationDescriptor
	}{
		{"simple-account", []model.OperationDescriptor{SimpleAccountV06Baseline, SimpleAccountV06WithCreation, SimpleAccountV06VerifyingPaymaster}},
		{"zerodev-kernel-lite", []model.OperationDescriptor{KernelLiteV23Baseline, KernelLiteV23WithCreation, KernelLiteV23VerifyingPaymaster}},
	}
	suffixes := []string{"baseline", "with-creation", "verifying-paymaster"}

	for _, v := range variants {
		for i, op := range v.ops {
			bundles = append(bundles,
				model.BundleDescriptor{
					Name:       "single-" + v.wallet + "-" + suffixes[i],
					Operations: []model.OperationDescriptor{op},
				},
				model.BundleDescriptor{
					Name:       "double-" + v.wallet + "-" + suffixes[i],
					Operations: []model.OperationDescriptor{op, op},
				},
			)
		}
	}

	for _, v := range []struct {
		wallet string
		base   model.OperationDescriptor
	}{
		{"simple-account", SimpleAccountV06Baseline},
		{"zerodev-kernel-lite", KernelLiteV23Baseline},
	} {
		token := v.base.WithAction(model.TokenTransfer)
		deposit := v.base.WithGasPayment(model.SelfDeposit)

		bundles = append(bundles,
			model.BundleDescriptor{
				Name:       "single-" + v.wallet + "-token-transfer",
				Operations: []model.OperationDescriptor{token},
			},
			model.BundleDescriptor{
				Name:       "double-" + v.wallet + "-token-transfer-verifying-paymaster",
				Operations: []model.OperationDescriptor{token.WithPaymaster(model.VerifyingPaymaster), token.WithPaymaster(model.VerifyingPaymaster)},
			},
			model.BundleDescriptor{
				Name:       "single-" + v.wallet + "-self-deposit",
				Operations: []model.OperationDescriptor{deposit},
			},
			model.BundleDescriptor{
				Name:       "triple-" + v.wallet + "-same-sender",
				Operations: []model.OperationDescriptor{v.base, v.base, v.base},
				ReuseIndex: []*int{nil, model.IntRef(0), model.IntRef(1)},
			},
		)
	}

	return bundles
}
