package embed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

const (
	// MPSFallbackEnv lets the native binary fall back to CPU for operators
	// the Metal backend lacks.
	MPSFallbackEnv = "PYTORCH_ENABLE_MPS_FALLBACK=1"

	defaultTimeout     = 60 * time.Second
	defaultConcurrency = 2
)

// ProcessConfig configures native binary embedders.
type ProcessConfig struct {
	Binary    string
	ModelPath string
	// Timeout bounds a single invocation; 0 selects 60s.
	Timeout time.Duration
	// Concurrency bounds simultaneous spawns for a batch.
	Concurrency int
	// Dimension truncates or zero-pads output; 0 keeps it as produced.
	Dimension int
	// Env is appended to the parent environment.
	Env    []string
	Logger *slog.Logger
}

func (c *ProcessConfig) init() error {
	if c.Binary == "" {
		return errors.New("embed: binary path required")
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

func (c *ProcessConfig) environ() []string {
	env := append(os.Environ(), MPSFallbackEnv)
	return append(env, c.Env...)
}

// ProcessError reports a native binary that exited unsuccessfully.
type ProcessError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("embed: %s exited with code %d: %s", e.Binary, e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Process spawns the native binary once per text:
//
//	<binary> <model> <text> --json
type Process struct {
	cfg ProcessConfig
}

// NewProcess returns a per-call process embedder.
func NewProcess(cfg ProcessConfig) (*Process, error) {
	if err := cfg.init(); err != nil {
		return nil, err
	}
	return &Process{cfg: cfg}, nil
}

// Dimension returns the configured output size.
func (p *Process) Dimension() int { return p.cfg.Dimension }

// Close is a no-op; no process outlives a call.
func (p *Process) Close() error { return nil }

// Embed runs one process per text with bounded concurrency.
func (p *Process) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := p.run(gctx, text)
			if err != nil {
				return err
			}
			out[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Process) run(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.cfg.Binary, p.cfg.ModelPath, sanitize(text), "--json")
	cmd.Env = p.cfg.environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	started := time.Now()
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("embed: %s: %w", p.cfg.Binary, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ProcessError{Binary: p.cfg.Binary, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("embed: start %s: %w", p.cfg.Binary, err)
	}
	vec, err := ParseVector(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	p.cfg.Logger.Debug("embedded text", "chars", len(text), "dim", len(vec), "elapsed", time.Since(started))
	return vector.FitDimension(vec, p.cfg.Dimension), nil
}
