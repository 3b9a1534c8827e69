package model

import "fmt"

// BundleDescriptor is an ordered batch of operation descriptors submitted in
// one handleOps call.
//
// ReuseIndex is optional. When present it has one entry per operation; a
// non-nil entry at position i names an earlier operation whose sender
// operation i reuses instead of deriving a fresh account.
type BundleDescriptor struct {
	Name       string
	Operations []OperationDescriptor
	ReuseIndex []*int
}

// Reuse returns the index whose sender operation i reuses, if any.
func (b BundleDescriptor) Reuse(i int) (int, bool) {
	if i < 0 || i >= len(b.ReuseIndex) || b.ReuseIndex[i] == nil {
		return 0, false
	}
	return *b.ReuseIndex[i], true
}

// Size is the number of operations in the bundle.
func (b BundleDescriptor) Size() int {
	return len(b.Operations)
}

// Validate checks every descriptor and every reuse reference. All failures
// are configuration errors and are raised before any chain access.
func (b BundleDescriptor) Validate() error {
	if b.Name == "" {
		return NewConfigurationError("bundle name is required", nil)
	}
	if len(b.Operations) == 0 {
		return NewConfigurationError("bundle has no operations", map[string]interface{}{"bundle": b.Name})
	}
	if b.ReuseIndex != nil && len(b.ReuseIndex) != len(b.Operations) {
		return NewConfigurationError(
			fmt.Sprintf("reuse index has %d entries for %d operations", len(b.ReuseIndex), len(b.Operations)),
			map[string]interface{}{"bundle": b.Name},
		)
	}

	// root of the reuse chain of each operation, i.e. the operation that
	// derived the sender
	roots := make([]int, len(b.Operations))
	sponsored := map[int]int{}

	for i, op := range b.Operations {
		roots[i] = i
		if err := op.Validate(); err != nil {
			return withDetail(err, "bundle", b.Name, "index", i)
		}

		ref, ok := b.Reuse(i)
		if !ok {
			if op.PaymasterKind == VerifyingPaymaster {
				sponsored[i] = i
			}
			continue
		}
		details := map[string]interface{}{"bundle": b.Name, "index": i, "reuse": ref}

		if ref < 0 || ref >= i {
			return NewConfigurationError("reuse index must point at an earlier operation", details)
		}
		target := b.Operations[ref]
		if target.CreationStrategy != UsePreCreatedAccount {
			return NewConfigurationError("reused sender must come from a pre-created account", details)
		}
		if op.CreationStrategy != UsePreCreatedAccount {
			return NewConfigurationError("operation reusing a sender cannot deploy it again", details)
		}
		if op.WalletKind != target.WalletKind {
			return NewConfigurationError("operation reusing a sender must target the same wallet implementation", details)
		}
		roots[i] = roots[ref]

		if op.PaymasterKind == VerifyingPaymaster {
			// The verifying paymaster signs over its per-sender counter, which
			// every sponsored operation of the sender advances during
			// validation. A second signature from before submission is stale.
			if first, ok := sponsored[roots[i]]; ok {
				details["sponsoredAt"] = first
				return NewConfigurationError("verifying paymaster cannot sponsor a sender twice within one bundle", details)
			}
			sponsored[roots[i]] = i
		}
	}

	return nil
}

// IntRef is a small helper for building reuse indexes in literals.
func IntRef(i int) *int {
	return &i
}
