// Command esmemory serves and administers Elasticsearch-backed semantic memory indexes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esmemory/internal/config"
	"github.com/kailas-cloud/esmemory/internal/version"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:           "esmemory",
		Short:         "Semantic memory store on Elasticsearch",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "config environment (local, dev, prod)")

	cmd.AddCommand(serveCmd(&env))
	cmd.AddCommand(indexesCmd(&env))
	cmd.AddCommand(normalizeCmd(&env))
	return cmd
}
