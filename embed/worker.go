package embed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

// Worker keeps one native process alive and feeds it a line per text:
//
//	<binary> <model>
//
// The process answers each line with a JSON array on one line; other output
// lines are skipped. Requests are serialised. A request that fails with
// the process in an unknown state stops it, and the next request starts a
// fresh process.
type Worker struct {
	cfg ProcessConfig

	mu     sync.Mutex
	proc   *workerProc
	closed bool
}

// workerProc is one running worker. Only its reader goroutine touches
// stdout; Wait is called after the reader has seen EOF.
type workerProc struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *lockedBuffer
	lines  chan []byte
	// readErr is valid once lines is closed.
	readErr error
}

// NewWorker returns a persistent process embedder. The process starts on
// the first request.
func NewWorker(cfg ProcessConfig) (*Worker, error) {
	if err := cfg.init(); err != nil {
		return nil, err
	}
	return &Worker{cfg: cfg}, nil
}

// Dimension returns the configured output size.
func (w *Worker) Dimension() int { return w.cfg.Dimension }

// Embed sends texts one at a time to the worker process.
func (w *Worker) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := w.roundTrip(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vector.FitDimension(vec, w.cfg.Dimension)
	}
	return out, nil
}

func (w *Worker) roundTrip(ctx context.Context, text string) ([]float32, error) {
	reused := w.proc != nil && w.idle()
	vec, answered, err := w.attempt(ctx, text)
	var perr *ProcessError
	if reused && !answered && errors.As(err, &perr) {
		// The process exited between requests; retry on a fresh one.
		vec, _, err = w.attempt(ctx, text)
	}
	return vec, err
}

// idle discards output left over from earlier requests. It reports false,
// after reaping, when the process has already exited.
func (w *Worker) idle() bool {
	p := w.proc
	for {
		select {
		case line, ok := <-p.lines:
			if !ok {
				w.proc = nil
				p.shutdown(0)
				return false
			}
			w.cfg.Logger.Debug("discarding stale worker output", "binary", w.cfg.Binary, "line", string(bytes.TrimSpace(line)))
		default:
			return true
		}
	}
}

// attempt runs one request. answered reports whether the process wrote any
// output line for it.
func (w *Worker) attempt(ctx context.Context, text string) (vec []float32, answered bool, err error) {
	if w.proc == nil {
		if err := w.start(); err != nil {
			return nil, false, err
		}
	}
	p := w.proc
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	written := make(chan error, 1)
	go func() {
		_, err := io.WriteString(p.stdin, sanitize(text)+"\n")
		written <- err
	}()

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil, answered, fmt.Errorf("embed: worker %s: %w", w.cfg.Binary, ctx.Err())
		case err := <-written:
			if err != nil {
				return nil, answered, w.exited(err)
			}
			written = nil
		case line, ok := <-p.lines:
			if !ok {
				return nil, answered, w.exited(p.readErr)
			}
			answered = true
			vec, err := ParseVector(line)
			switch {
			case err == nil:
				return vec, true, nil
			case errors.Is(err, ErrEmptyEmbedding):
				// The answer was consumed; the process stays in step.
				return nil, true, err
			}
			w.cfg.Logger.Debug("skipping worker output", "binary", w.cfg.Binary, "line", string(bytes.TrimSpace(line)))
		}
	}
}

func (w *Worker) start() error {
	cmd := exec.Command(w.cfg.Binary, w.cfg.ModelPath)
	cmd.Env = w.cfg.environ()
	cmd.WaitDelay = time.Second
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("embed: worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("embed: worker stdout: %w", err)
	}
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("embed: start worker %s: %w", w.cfg.Binary, err)
	}
	p := &workerProc{cmd: cmd, stdin: stdin, stderr: stderr, lines: make(chan []byte, 16)}
	go p.read(stdout)
	w.proc = p
	w.cfg.Logger.Info("embedding worker started", "binary", w.cfg.Binary, "pid", cmd.Process.Pid)
	return nil
}

func (p *workerProc) read(stdout io.Reader) {
	r := bufio.NewReader(stdout)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			p.lines <- line
		}
		if err != nil {
			p.readErr = err
			close(p.lines)
			return
		}
	}
}

// drain discards output until the reader sees EOF or timeout elapses.
func (p *workerProc) drain(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-p.lines:
			if !ok {
				return true
			}
		case <-timer.C:
			return false
		}
	}
}

// shutdown closes stdin, gives the process grace to exit, kills it when
// it does not, and reaps it.
func (p *workerProc) shutdown(grace time.Duration) {
	_ = p.stdin.Close()
	if !p.drain(grace) {
		_ = p.cmd.Process.Kill()
		p.drain(2 * time.Second)
	}
	_ = p.cmd.Wait()
}

// exited reaps a dead worker and reports why it stopped.
func (w *Worker) exited(cause error) error {
	p := w.proc
	w.proc = nil
	p.shutdown(time.Second)
	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	w.cfg.Logger.Warn("embedding worker exited", "binary", w.cfg.Binary, "code", code, "cause", cause)
	return &ProcessError{Binary: w.cfg.Binary, ExitCode: code, Stderr: p.stderr.String()}
}

// stop kills the current process, if any.
func (w *Worker) stop() {
	if w.proc == nil {
		return
	}
	p := w.proc
	w.proc = nil
	p.shutdown(0)
}

// Close ends the worker process: stdin is closed first so the process can
// exit on its own, then it is killed.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.proc == nil {
		return nil
	}
	p := w.proc
	w.proc = nil
	p.shutdown(2 * time.Second)
	return nil
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
