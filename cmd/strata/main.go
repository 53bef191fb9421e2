// strata is the admin CLI: cluster format, topology evolution, node serve.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stratastore/strata/ais"
)

func main() {
	root := &cobra.Command{
		Use:           "strata",
		Short:         "strata erasure-coded object storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFormatCmd(), newTopologyCmd(), newServeCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "strata:", err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storage node daemon",
		RunE: func(_ *cobra.Command, _ []string) error {
			return ais.Run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to node configuration (JSON)")
	return cmd
}
