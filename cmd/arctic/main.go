// Command arctic embeds text and manages a local vector store and
// long-term memory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stupidcoderJung/arctic-embedding-v1/embed"
	"github.com/stupidcoderJung/arctic-embedding-v1/internal/config"
	"github.com/stupidcoderJung/arctic-embedding-v1/internal/log"
	"github.com/stupidcoderJung/arctic-embedding-v1/vecdb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	var configFile string
	a := &app{}
	root := &cobra.Command{
		Use:           "arctic",
		Short:         "Text embeddings with a local vector store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if err := log.Init(cfg.Log); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("ARCTIC_CONFIG"), "TOML configuration file")

	root.AddCommand(a.embedCmd(), a.demoCmd(), a.ltmCmd(), a.tablesCmd())
	return root
}

// openStore connects to the configured database and builds the embedder,
// cached in the database when enabled.
func (a *app) openStore(ctx context.Context) (*vecdb.DB, embed.Embedder, error) {
	db, err := vecdb.Connect(ctx, a.cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	e, err := embed.New(ctx, a.cfg.Embedding, embed.WithCache(db.EmbeddingCache()), embed.WithLogger(log.Logger("embed")))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, e, nil
}
