package harness

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/kernelbench/kernel"
	"github.com/weiihann/kernelbench/workload"
)

const workerEnv = "KERNELBENCH_TEST_WORKER"

// TestMain turns the test binary into a worker when workerEnv is set, so the
// process strategy can be exercised without building cmd/kernelworker.
func TestMain(m *testing.M) {
	if os.Getenv(workerEnv) == "1" {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		logger.Info("test worker serving")

		if err := Serve(os.Stdin, os.Stdout, logger); err != nil {
			logger.Error("serve", slog.String("error", err.Error()))
			os.Exit(1)
		}

		os.Exit(0)
	}

	os.Exit(m.Run())
}

func newTestWorker() *Process {
	return NewProcess(
		StrategyNative, "test worker", os.Args[0],
		[]string{"-test.run=^$"},
		[]string{workerEnv + "=1"},
		discardLogger(),
	)
}

func smallWorkload(t *testing.T) []workload.Descriptor {
	t.Helper()

	descriptors, err := workload.Build(workload.Config{
		Profile: workload.Profile{Name: "small", Params: map[string][]uint32{
			"fibonacci":   {10},
			"mandelbrot":  {8, 6, 1},
			"nbody":       {10},
			"sieve":       {1},
			"raytracer":   {6, 4, 1},
			"flocking":    {10, 2},
			"polynomials": {10},
			"particles":   {10, 10},
			"arcfour":     {1},
			"seahash":     {1},
			"radix":       {1},
		}},
	})
	require.NoError(t, err)
	require.Len(t, descriptors, len(kernel.IDs()))

	return descriptors
}

func TestProcessHandshake(t *testing.T) {
	p := newTestWorker()
	require.NoError(t, p.Start(context.Background()))

	hello := p.Hello()
	assert.Equal(t, ProtocolVersion, hello.Protocol)
	assert.Equal(t, kernel.IDs(), hello.Kernels)

	require.NoError(t, p.Close())
}

func TestProcessAgreesWithInProcess(t *testing.T) {
	worker := newTestWorker()

	suite := NewSuite(
		smallWorkload(t),
		[]Strategy{NewInProcess(), worker},
		discardLogger(),
	)

	var records []Record
	require.NoError(t, suite.Run(context.Background(), collect(&records)))
	require.Len(t, records, 2*len(kernel.IDs()))

	for i := 0; i < len(records); i += 2 {
		inProc, proc := records[i], records[i+1]

		assert.Equal(t, inProc.Kernel, proc.Kernel)
		assert.Equal(t, StrategyOptimized, inProc.Strategy)
		assert.Equal(t, StrategyNative, proc.Strategy)
		assert.True(t, inProc.Result.Equal(proc.Result),
			"%s: in-process %v, worker %v", inProc.Kernel, inProc.Result, proc.Result)
		assert.GreaterOrEqual(t, proc.Elapsed, time.Duration(0))
	}

	// The suite closes its strategies, which reaps the worker.
	assert.Nil(t, worker.cmd)
}

func TestProcessCloseReapsWorker(t *testing.T) {
	p := newTestWorker()
	require.NoError(t, p.Start(context.Background()))

	cmd := p.cmd

	out, err := p.Invoke(context.Background(), mustLookup(t, "fibonacci"), []uint32{10})
	require.NoError(t, err)
	assert.Equal(t, kernel.Uint32Value(89), out.Value)

	require.NoError(t, p.Close())
	require.NotNil(t, cmd.ProcessState)
	assert.True(t, cmd.ProcessState.Exited())
	assert.True(t, cmd.ProcessState.Success())

	// A second Close is a no-op.
	require.NoError(t, p.Close())

	_, err = p.Invoke(context.Background(), mustLookup(t, "fibonacci"), []uint32{10})
	require.ErrorContains(t, err, "not started")
}

func TestProcessKilledWorker(t *testing.T) {
	p := newTestWorker()
	require.NoError(t, p.Start(context.Background()))

	require.NoError(t, p.cmd.Process.Kill())

	_, err := p.Invoke(context.Background(), mustLookup(t, "fibonacci"), []uint32{10})
	require.ErrorIs(t, err, errWorkerClosed)
	assert.ErrorContains(t, err, "stderr:")

	// Close waits for stderr to drain, so the worker's log line is attached.
	err = p.Close()
	require.Error(t, err)
	assert.ErrorContains(t, err, "test worker serving")
}

func TestProcessInvokeCancelled(t *testing.T) {
	p := newTestWorker()
	require.NoError(t, p.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Invoke(ctx, mustLookup(t, "fibonacci"), []uint32{10})
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, p.Close())
}

func mustLookup(t *testing.T, id string) kernel.Kernel {
	t.Helper()

	k, err := kernel.Lookup(id)
	require.NoError(t, err)

	return k
}
