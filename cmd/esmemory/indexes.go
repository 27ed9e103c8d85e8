package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func indexesCmd(env *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Manage memory indexes",
	}
	cmd.AddCommand(indexesListCmd(env))
	cmd.AddCommand(indexesCreateCmd(env))
	cmd.AddCommand(indexesDeleteCmd(env))
	return cmd
}

// withApp loads and wires the app, runs fn and releases resources.
func withApp(ctx context.Context, env string, fn func(a *app) error) error {
	a, err := loadApp(env)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.wire(ctx); err != nil {
		return err
	}
	return fn(a)
}

func indexesListCmd(env *string) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memory indexes under the configured prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *env, func(a *app) error {
				names, err := a.memory.GetIndexes(cmd.Context())
				if err != nil {
					return fmt.Errorf("list indexes: %w", err)
				}
				if jsonOutput {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(names) //nolint:wrapcheck // stdout
				}
				if len(names) == 0 {
					fmt.Println("No indexes.")
					return nil
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME")
				for _, n := range names {
					fmt.Fprintln(tw, n)
				}
				return tw.Flush() //nolint:wrapcheck // stdout
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func indexesCreateCmd(env *string) *cobra.Command {
	var dims int
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a memory index unless it exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *env, func(a *app) error {
				res, err := a.memory.CreateIndex(cmd.Context(), args[0], dims)
				if err != nil {
					return fmt.Errorf("create index: %w", err)
				}
				physical, _ := a.memory.IndexName(args[0])
				fmt.Printf("Index %s %s\n", physical, res)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&dims, "dims", 0, "vector size (default: elasticsearch.vector_size)")
	return cmd
}

func indexesDeleteCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a memory index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *env, func(a *app) error {
				if err := a.memory.DeleteIndex(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("delete index: %w", err)
				}
				fmt.Printf("Deleted index %s\n", args[0])
				return nil
			})
		},
	}
}
