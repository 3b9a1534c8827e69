package matrix

import (
	"github.com/expr-lang/expr"
	"github.com/samber/lo"

	"github.com/AvaProtocol/aa-gasbench/model"
)

// filterEnv exposes a bundle to filter expressions, for example
// `size == 1 && "kernel-lite-v2.3" in wallets`.
func filterEnv(b model.BundleDescriptor) map[string]any {
	names := func(f func(op model.OperationDescriptor) string) []string {
		return lo.Uniq(lo.Map(b.Operations, func(op model.OperationDescriptor, _ int) string { return f(op) }))
	}

	return map[string]any{
		"name":        b.Name,
		"size":        b.Size(),
		"wallets":     names(func(op model.OperationDescriptor) string { return op.WalletKind.String() }),
		"paymasters":  names(func(op model.OperationDescriptor) string { return op.PaymasterKind.String() }),
		"gasPayments": names(func(op model.OperationDescriptor) string { return op.GasPaymentStrategy.String() }),
		"creations":   names(func(op model.OperationDescriptor) string { return op.CreationStrategy.String() }),
		"actions":     names(func(op model.OperationDescriptor) string { return op.Action.String() }),
		"reuse":       lo.SomeBy(b.ReuseIndex, func(i *int) bool { return i != nil }),
	}
}

// Filter keeps the bundles for which the boolean expression holds. An empty
// expression keeps everything.
func Filter(bundles []model.BundleDescriptor, expression string) ([]model.BundleDescriptor, error) {
	if expression == "" {
		return bundles, nil
	}

	program, err := expr.Compile(expression, expr.Env(filterEnv(model.BundleDescriptor{})), expr.AsBool())
	if err != nil {
		return nil, model.NewConfigurationError("invalid filter expression: "+err.Error(), map[string]interface{}{"filter": expression})
	}

	var kept []model.BundleDescriptor
	for _, b := range bundles {
		result, err := expr.Run(program, filterEnv(b))
		if err != nil {
			return nil, model.NewConfigurationError("filter expression failed: "+err.Error(), map[string]interface{}{"bundle": b.Name})
		}
		if result.(bool) {
			kept = append(kept, b)
		}
	}
	return kept, nil
}
