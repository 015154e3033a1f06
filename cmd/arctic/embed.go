package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/stupidcoderJung/arctic-embedding-v1/embed"
	"github.com/stupidcoderJung/arctic-embedding-v1/internal/log"
	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

func (a *app) embedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "embed <text>...",
		Short: "Print embeddings of the given texts as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := embed.New(cmd.Context(), a.cfg.Embedding, embed.WithLogger(log.Logger("embed")))
			if err != nil {
				return err
			}
			defer e.Close()
			vecs, err := e.Embed(cmd.Context(), args)
			if err != nil {
				return err
			}
			if a.cfg.Embedding.Normalize {
				for _, v := range vecs {
					vector.Normalize(v)
				}
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(vecs)
		},
	}
}
