package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stupidcoderJung/arctic-embedding-v1/embed"
	"github.com/stupidcoderJung/arctic-embedding-v1/memory"
)

func (a *app) ltmCmd() *cobra.Command {
	ltm := &cobra.Command{
		Use:   "ltm",
		Short: "Long-term memory commands",
	}

	var listLimit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored memories",
		RunE: a.withMemory(func(ctx context.Context, cmd *cobra.Command, s *memory.Service, args []string) error {
			entries, err := s.List(ctx, listLimit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n", e.ID, e.Category, e.Text)
			}
			return nil
		}),
	}
	list.Flags().IntVar(&listLimit, "limit", 0, "Max entries, 0 for all")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics",
		RunE: a.withMemory(func(ctx context.Context, cmd *cobra.Command, s *memory.Service, args []string) error {
			n, err := s.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total memories: %d\n", n)
			return nil
		}),
	}

	var searchLimit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories",
		Args:  cobra.ExactArgs(1),
		RunE: a.withMemory(func(ctx context.Context, cmd *cobra.Command, s *memory.Service, args []string) error {
			results, err := s.Recall(ctx, args[0], searchLimit, 0.3)
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return nil
		}),
	}
	search.Flags().IntVar(&searchLimit, "limit", 5, "Max results")

	recall := &cobra.Command{
		Use:   "recall <prompt>",
		Short: "Print the memory context block for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: a.withMemory(func(ctx context.Context, cmd *cobra.Command, s *memory.Service, args []string) error {
			if !a.cfg.Memory.AutoRecall {
				return nil
			}
			block, err := s.AutoRecall(ctx, args[0])
			if err != nil {
				return err
			}
			if block != "" {
				fmt.Fprintln(cmd.OutOrStdout(), block)
			}
			return nil
		}),
	}

	var importance float64
	var category string
	store := &cobra.Command{
		Use:   "store <text>",
		Short: "Store a memory",
		Args:  cobra.ExactArgs(1),
		RunE: a.withMemory(func(ctx context.Context, cmd *cobra.Command, s *memory.Service, args []string) error {
			c := memory.Category(category)
			if category == "" {
				c = memory.DetectCategory(args[0])
			}
			e, err := s.Store(ctx, args[0], importance, c)
			var dup *memory.DuplicateError
			if errors.As(err, &dup) {
				fmt.Fprintf(cmd.OutOrStdout(), "Similar memory already exists: %s\n", dup.Existing.Text)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s [%s]\n", e.ID, e.Category)
			return nil
		}),
	}
	store.Flags().Float64Var(&importance, "importance", memory.DefaultImportance, "Importance 0-1")
	store.Flags().StringVar(&category, "category", "", "preference, fact, decision, entity or other; detected when empty")

	forget := &cobra.Command{
		Use:   "forget <id|query>",
		Short: "Delete a memory by id, or by query when exactly one matches",
		Args:  cobra.ExactArgs(1),
		RunE: a.withMemory(func(ctx context.Context, cmd *cobra.Command, s *memory.Service, args []string) error {
			err := s.Forget(ctx, args[0])
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Memory %s forgotten\n", args[0])
				return nil
			}
			if !errors.Is(err, memory.ErrInvalidID) {
				return err
			}
			deleted, candidates, err := s.ForgetByQuery(ctx, args[0])
			if err != nil {
				return err
			}
			switch {
			case deleted != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "Forgotten: %q\n", deleted.Text)
			case len(candidates) == 0:
				fmt.Fprintln(cmd.OutOrStdout(), "No matching memories found.")
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Found %d candidates. Specify memory id:\n", len(candidates))
				printResults(cmd, candidates)
			}
			return nil
		}),
	}

	capture := &cobra.Command{
		Use:   "capture",
		Short: "Capture memories from a JSON array of messages on stdin",
		RunE: a.withMemory(func(ctx context.Context, cmd *cobra.Command, s *memory.Service, args []string) error {
			if !a.cfg.Memory.AutoCapture {
				return nil
			}
			var messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			}
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&messages); err != nil {
				return fmt.Errorf("decode messages: %w", err)
			}
			in := make([]memory.Message, len(messages))
			for i, m := range messages {
				in[i] = memory.Message{Role: m.Role, Content: m.Content}
			}
			n, err := s.AutoCapture(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Captured %d memories\n", n)
			return nil
		}),
	}

	ltm.AddCommand(list, stats, search, recall, store, forget, capture)
	return ltm
}

type memoryFunc func(ctx context.Context, cmd *cobra.Command, s *memory.Service, args []string) error

// withMemory opens the store and memory service around fn.
func (a *app) withMemory(fn memoryFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, e, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		defer e.Close()
		s := memory.New(db, e, memory.WithTable(a.cfg.Memory.Table), memory.WithDimension(dimension(a, e)))
		return fn(ctx, cmd, s, args)
	}
}

func dimension(a *app, e embed.Embedder) int {
	if d := e.Dimension(); d > 0 {
		return d
	}
	return a.cfg.Store.Dimension
}

func printResults(cmd *cobra.Command, results []memory.Result) {
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No relevant memories found.")
		return
	}
	for i, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s [%s] %s (%.0f%%)\n", i+1, r.ID, r.Category, r.Text, r.Score*100)
	}
}
