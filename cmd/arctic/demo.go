package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stupidcoderJung/arctic-embedding-v1/index"
	"github.com/stupidcoderJung/arctic-embedding-v1/pipeline"
	"github.com/stupidcoderJung/arctic-embedding-v1/vecdb"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

var demoTexts = []string{
	"The quick brown fox jumps over the lazy dog",
	"Vector databases store embeddings for similarity search",
	"Snowflake Arctic Embed produces 384-dimensional sentence vectors",
	"SQLite is an embedded relational database",
}

func (a *app) demoCmd() *cobra.Command {
	var query string
	var limit int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Embed sample texts into a demo table and query it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, e, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			defer e.Close()

			metric, err := vector.ParseMetric(a.cfg.Store.Metric)
			if err != nil {
				return err
			}
			kind, err := index.ParseKind(a.cfg.Store.Index)
			if err != nil {
				return err
			}
			docs := make([]pipeline.Document, len(demoTexts))
			for i, text := range demoTexts {
				docs[i] = pipeline.Document{ID: fmt.Sprint(i), Text: text}
			}
			p := &pipeline.Pipeline{Embedder: e, Normalize: a.cfg.Embedding.Normalize}
			if err := p.Replace(ctx, db, "demo", docs, vecdb.WithMetric(metric), vecdb.WithIndex(kind)); err != nil {
				return err
			}
			matches, err := p.Query(ctx, query, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "query: %s\n", query)
			for i, m := range matches {
				fmt.Fprintf(out, "%d. %s (distance %.4f)\n", i+1, m.Text, m.Distance)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "embedded database for vectors", "Query text")
	cmd.Flags().IntVarP(&limit, "limit", "k", 3, "Number of results")
	return cmd
}
