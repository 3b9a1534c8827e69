package cmd

import (
	"github.com/AvaProtocol/aa-gasbench/core/matrix"
	"github.com/AvaProtocol/aa-gasbench/model"
)

var (
	matrixPath   string
	filterSource string
)

// loadBundles resolves the bundles of a run: the matrix file when one is
// given, the built-in matrix otherwise, narrowed by the filter expression.
func loadBundles(path string) ([]model.BundleDescriptor, error) {
	bundles := matrix.Builtin()
	if path != "" {
		var err error
		bundles, err = matrix.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	return matrix.Filter(bundles, filterSource)
}
