package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/kernelbench/kernel"
	"github.com/weiihann/kernelbench/workload"
)

// fakeStrategy records calls and runs kernels in-process.
type fakeStrategy struct {
	id       string
	startErr error
	failOn   int
	elapsed  time.Duration

	started bool
	closed  bool
	calls   []string
}

func (f *fakeStrategy) ID() string    { return f.id }
func (f *fakeStrategy) Label() string { return "fake " + f.id }

func (f *fakeStrategy) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}

	f.started = true

	return nil
}

func (f *fakeStrategy) Invoke(_ context.Context, k kernel.Kernel, params []uint32) (Outcome, error) {
	f.calls = append(f.calls, k.ID)

	if f.failOn > 0 && len(f.calls) == f.failOn {
		return Outcome{}, errors.New("boom")
	}

	v, err := k.Invoke(params)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Value: v, Elapsed: f.elapsed * time.Duration(len(f.calls))}, nil
}

func (f *fakeStrategy) Close() error {
	f.closed = true
	return nil
}

func quickWorkload(t *testing.T, ids ...string) []workload.Descriptor {
	t.Helper()

	descriptors, err := workload.Build(workload.Config{
		Profile: workload.Profile{Name: "test", Params: map[string][]uint32{
			"fibonacci": {10},
			"sieve":     {1},
			"radix":     {1},
		}},
		Enabled: func(id string) bool {
			for _, want := range ids {
				if id == want {
					return true
				}
			}

			return false
		},
	})
	require.NoError(t, err)

	return descriptors
}

func collect(records *[]Record) Sink {
	return func(r Record) error {
		*records = append(*records, r)
		return nil
	}
}

func TestSuiteOneRecordPerPair(t *testing.T) {
	optimized := &fakeStrategy{id: StrategyOptimized, elapsed: time.Millisecond}
	baseline := &fakeStrategy{id: StrategyBaseline, elapsed: time.Millisecond}

	suite := NewSuite(
		quickWorkload(t, "fibonacci", "sieve", "radix"),
		[]Strategy{baseline, optimized},
		discardLogger(),
	)

	var records []Record
	require.NoError(t, suite.Run(context.Background(), collect(&records)))

	require.Len(t, records, 6)

	want := []struct{ kernel, strategy string }{
		{"fibonacci", StrategyOptimized},
		{"fibonacci", StrategyBaseline},
		{"sieve", StrategyOptimized},
		{"sieve", StrategyBaseline},
		{"radix", StrategyOptimized},
		{"radix", StrategyBaseline},
	}

	for i, w := range want {
		assert.Equal(t, w.kernel, records[i].Kernel, "record %d", i)
		assert.Equal(t, w.strategy, records[i].Strategy, "record %d", i)
		assert.Equal(t, suite.RunID, records[i].RunID)
		assert.GreaterOrEqual(t, records[i].Elapsed, time.Duration(0))
	}

	assert.Equal(t, kernel.Uint32Value(89), records[0].Result)
	assert.Equal(t, "Fibonacci", records[0].KernelName)
	assert.Equal(t, "fake optimized", records[0].StrategyLabel)
	assert.Equal(t, []uint32{10}, records[0].Params)
}

func TestSuiteReportsSecondInvocation(t *testing.T) {
	s := &fakeStrategy{id: StrategyOptimized, elapsed: time.Second}

	suite := NewSuite(quickWorkload(t, "fibonacci"), []Strategy{s}, discardLogger())

	var records []Record
	require.NoError(t, suite.Run(context.Background(), collect(&records)))

	require.Len(t, records, 1)
	assert.Equal(t, []string{"fibonacci", "fibonacci"}, s.calls)
	assert.Equal(t, 2*time.Second, records[0].Elapsed)
}

func TestSuiteRunIDIsUUID(t *testing.T) {
	suite := NewSuite(nil, nil, discardLogger())

	_, err := uuid.Parse(suite.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, suite.RunID, NewSuite(nil, nil, discardLogger()).RunID)
}

func TestSuiteNoStrategiesNoRecords(t *testing.T) {
	suite := NewSuite(quickWorkload(t, "fibonacci", "sieve"), nil, discardLogger())

	var records []Record
	require.NoError(t, suite.Run(context.Background(), collect(&records)))
	assert.Empty(t, records)
}

func TestSuiteStartFailureEmitsNothing(t *testing.T) {
	optimized := &fakeStrategy{id: StrategyOptimized}
	native := &fakeStrategy{id: StrategyNative, startErr: ErrStrategyUnavailable}
	baseline := &fakeStrategy{id: StrategyBaseline}

	suite := NewSuite(
		quickWorkload(t, "fibonacci"),
		[]Strategy{optimized, native, baseline},
		discardLogger(),
	)

	var records []Record
	err := suite.Run(context.Background(), collect(&records))
	require.ErrorIs(t, err, ErrStrategyUnavailable)

	assert.Empty(t, records)
	assert.True(t, optimized.closed)
	assert.False(t, baseline.started)
	assert.Empty(t, optimized.calls)
}

func TestSuiteInvokeFailureAborts(t *testing.T) {
	optimized := &fakeStrategy{id: StrategyOptimized}
	// Third call is the warm-up of the second kernel.
	baseline := &fakeStrategy{id: StrategyBaseline, failOn: 3}

	suite := NewSuite(
		quickWorkload(t, "fibonacci", "sieve", "radix"),
		[]Strategy{optimized, baseline},
		discardLogger(),
	)

	var records []Record
	err := suite.Run(context.Background(), collect(&records))
	require.ErrorContains(t, err, "sieve under baseline: warm-up: boom")

	require.Len(t, records, 3)
	assert.Equal(t, "sieve", records[2].Kernel)
	assert.Equal(t, StrategyOptimized, records[2].Strategy)

	assert.NotContains(t, optimized.calls, "radix")
	assert.True(t, optimized.closed)
	assert.True(t, baseline.closed)
}

func TestSuiteSinkFailureAborts(t *testing.T) {
	s := &fakeStrategy{id: StrategyOptimized}

	suite := NewSuite(quickWorkload(t, "fibonacci", "sieve"), []Strategy{s}, discardLogger())

	sinkErr := errors.New("disk full")
	err := suite.Run(context.Background(), func(Record) error { return sinkErr })
	require.ErrorIs(t, err, sinkErr)

	assert.Equal(t, []string{"fibonacci", "fibonacci"}, s.calls)
	assert.True(t, s.closed)
}

func TestSuiteWithInProcess(t *testing.T) {
	suite := NewSuite(
		quickWorkload(t, "fibonacci", "radix"),
		[]Strategy{NewInProcess()},
		discardLogger(),
	)

	var records []Record
	require.NoError(t, suite.Run(context.Background(), collect(&records)))

	require.Len(t, records, 2)
	assert.Equal(t, kernel.Uint32Value(89), records[0].Result)
	assert.Equal(t, kernel.Int32Value(53), records[1].Result)
}
