package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/weiihann/kernelbench/kernel"
)

// Process runs kernels in a long-lived worker binary, one request at a time.
type Process struct {
	id         string
	label      string
	BinaryPath string
	ExtraArgs  []string
	Env        []string
	Logger     *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr syncBuffer
	client *client
	hello  Hello
}

// NewProcess creates a worker-backed strategy. For workers that need a
// wrapper (e.g. taskset for CPU pinning), pass the wrapper as binaryPath and
// the worker path in extraArgs. Env is appended to the inherited environment.
func NewProcess(
	id, label, binaryPath string,
	extraArgs, env []string,
	logger *slog.Logger,
) *Process {
	return &Process{
		id:         id,
		label:      label,
		BinaryPath: binaryPath,
		ExtraArgs:  extraArgs,
		Env:        env,
		Logger:     logger.With(slog.String("strategy", id)),
	}
}

// ID implements Strategy.
func (p *Process) ID() string { return p.id }

// Label implements Strategy.
func (p *Process) Label() string { return p.label }

// Hello returns the handshake received from the worker. It is only
// meaningful after Start.
func (p *Process) Hello() Hello { return p.hello }

// Start launches the worker and waits for its handshake.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("worker %s already started", p.id)
	}

	binary, err := exec.LookPath(p.BinaryPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStrategyUnavailable, p.id, err)
	}

	// The worker outlives Start, so it is bound to context.WithoutCancel and
	// stopped by Close rather than by ctx.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), binary, p.ExtraArgs...)

	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("worker %s stdin: %w", p.id, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("worker %s stdout: %w", p.id, err)
	}

	p.stderr.Reset()
	cmd.Stderr = &p.stderr

	p.Logger.InfoContext(ctx, "starting worker",
		slog.String("binary", binary),
		slog.Any("args", p.ExtraArgs),
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStrategyUnavailable, p.id, err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.client = newClient(stdin, stdout)

	hello, err := p.client.readHello()
	if err != nil {
		p.stopLocked()

		return fmt.Errorf("%w: %s: %w\nstderr: %s",
			ErrStrategyUnavailable, p.id, err, p.stderr.String())
	}

	p.hello = hello

	p.Logger.InfoContext(ctx, "worker ready",
		slog.String("compiler", hello.Compiler),
		slog.String("go_version", hello.GoVersion),
		slog.String("platform", hello.GOOS+"/"+hello.GOARCH),
	)

	return nil
}

// Invoke sends one request to the worker and waits for the response. The
// elapsed time is the worker's own measurement of the kernel call.
func (p *Process) Invoke(ctx context.Context, k kernel.Kernel, params []uint32) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	if err := k.Check(params); err != nil {
		return Outcome{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return Outcome{}, fmt.Errorf("worker %s not started", p.id)
	}

	// A cancelled context kills the worker, which unblocks the pending read.
	proc := p.cmd.Process
	stop := context.AfterFunc(ctx, func() { _ = proc.Kill() })
	defer stop()

	resp, err := p.client.call(Request{Kernel: k.ID, Params: params})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, fmt.Errorf("worker %s: %w", p.id, ctxErr)
		}

		if errors.Is(err, errWorkerClosed) {
			return Outcome{}, fmt.Errorf("worker %s: %w\nstderr: %s",
				p.id, err, p.stderr.String())
		}

		return Outcome{}, fmt.Errorf("worker %s: %w", p.id, err)
	}

	if resp.Value.Kind != k.Result {
		return Outcome{}, fmt.Errorf("worker %s: %s returned %s, want %s",
			p.id, k.ID, resp.Value.Kind, k.Result)
	}

	if resp.ElapsedNs < 0 {
		return Outcome{}, fmt.Errorf("worker %s: negative elapsed time %d",
			p.id, resp.ElapsedNs)
	}

	return Outcome{Value: resp.Value, Elapsed: time.Duration(resp.ElapsedNs)}, nil
}

// Close ends the worker's input and waits for it to exit.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil
	}

	return p.stopLocked()
}

const workerExitTimeout = 10 * time.Second

func (p *Process) stopLocked() error {
	cmd := p.cmd
	p.cmd = nil
	p.client = nil

	_ = p.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var err error

	select {
	case err = <-done:
	case <-time.After(workerExitTimeout):
		_ = cmd.Process.Kill()
		err = <-done
	}

	if err != nil {
		return fmt.Errorf("worker %s exit: %w\nstderr: %s",
			p.id, err, p.stderr.String())
	}

	p.Logger.Info("worker stopped")

	return nil
}

// syncBuffer collects worker stderr, which exec copies from its own goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.Reset()
}
