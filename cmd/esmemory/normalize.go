package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esmemory/internal/config"
	"github.com/kailas-cloud/esmemory/internal/domain/indexname"
)

// normalizeCmd prints the physical index name for each argument without touching the engine.
func normalizeCmd(env *string) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "normalize [name...]",
		Short: "Show the physical index name for logical names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("prefix") {
				if cfg, err := config.Load(*env); err == nil {
					prefix = cfg.Elasticsearch.IndexPrefix
				}
			}
			codec := indexname.New(prefix)

			failed := 0
			for _, name := range args {
				res := codec.Validate(name)
				if res.OK() {
					fmt.Printf("%s\t%s\n", name, res.Name)
					continue
				}
				failed++
				fmt.Printf("%s\tinvalid: %s\n", name, strings.Join(res.Errors, "; "))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d names are invalid", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "index prefix (default: elasticsearch.index_prefix)")
	return cmd
}
