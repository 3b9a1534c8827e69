package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var (
	configFile = "./config/gasbench.yaml"
	rootCmd    = &cobra.Command{
		Use:   "gasbench",
		Short: "ERC-4337 bundle gas benchmark",
		Long: `Build bundles of EntryPoint v0.6 user operations across wallet,
paymaster, creation and gas payment strategies, submit them and record the
gas each bundle used.

Such as "gasbench run" or "gasbench matrix --filter 'size == 1'"
`,
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/gasbench.yaml", "Path to config file")
}
