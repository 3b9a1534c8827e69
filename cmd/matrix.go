package cmd

import (
	"fmt"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/aa-gasbench/model"
)

var (
	matrixVerbose bool

	matrixCmd = &cobra.Command{
		Use:   "matrix",
		Short: "print the resolved bundle matrix",
		Long:  `Print the bundles a run would submit, after loading --matrix and applying --filter`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, err := loadBundles(matrixPath)
			if err != nil {
				return err
			}

			for _, b := range bundles {
				if err := b.Validate(); err != nil {
					fmt.Printf("%-60s invalid: %v\n", b.Name, err)
					continue
				}
				fmt.Printf("%-60s %d op(s)\n", b.Name, b.Size())
				if matrixVerbose {
					for i, op := range b.Operations {
						line := fmt.Sprintf("  [%d] %s", i, op)
						if ref, ok := b.Reuse(i); ok {
							line = fmt.Sprintf("%s reuses [%d]", line, ref)
						}
						fmt.Println(line)
					}
				}
			}

			if matrixVerbose {
				pp.Println(summarize(bundles))
			}
			return nil
		},
	}
)

type matrixSummary struct {
	Bundles    int
	Operations int
	ByWallet   map[string]int
}

func summarize(bundles []model.BundleDescriptor) matrixSummary {
	s := matrixSummary{Bundles: len(bundles), ByWallet: map[string]int{}}
	for _, b := range bundles {
		s.Operations += b.Size()
		for _, op := range b.Operations {
			s.ByWallet[op.WalletKind.String()]++
		}
	}
	return s
}

func init() {
	rootCmd.AddCommand(matrixCmd)

	matrixCmd.Flags().StringVarP(&matrixPath, "matrix", "m", "", "YAML matrix file, the built-in matrix when empty")
	matrixCmd.Flags().StringVarP(&filterSource, "filter", "f", "", "boolean expression selecting bundles")
	matrixCmd.Flags().BoolVarP(&matrixVerbose, "verbose", "v", false, "print every operation descriptor")
}
