package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stupidcoderJung/arctic-embedding-v1/vecdb"
)

func (a *app) tablesCmd() *cobra.Command {
	tables := &cobra.Command{
		Use:   "tables",
		Short: "List vector tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := vecdb.Connect(ctx, a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			names, err := db.TableNames(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				st, err := db.Stats(ctx, name)
				if err != nil {
					return err
				}
				index := st.IndexKind
				if index == "" {
					index = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\trows=%d\tdim=%d\tmetric=%s\tindex=%s\n", name, st.Rows, st.Dimension, st.Metric, index)
			}
			return nil
		},
	}
	reindex := &cobra.Command{
		Use:   "reindex <table>",
		Short: "Rebuild the persisted index of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := vecdb.Connect(ctx, a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := db.Reindex(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reindexed:%d\n", n)
			return nil
		},
	}
	tables.AddCommand(reindex)
	return tables
}
