package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/weiihann/kernelbench/kernel"
)

// Strategy identifiers, listed in run order.
const (
	StrategyOptimized = "optimized"
	StrategyNative    = "native"
	StrategyBaseline  = "baseline"
)

// ErrStrategyUnavailable is returned when a strategy cannot be started on
// this host, for example because its worker binary is missing.
var ErrStrategyUnavailable = errors.New("strategy unavailable")

// KnownStrategies returns the supported strategy identifiers in run order.
func KnownStrategies() []string {
	return []string{StrategyOptimized, StrategyNative, StrategyBaseline}
}

// Outcome is what a strategy reports for one invocation.
type Outcome struct {
	Value   kernel.Value
	Elapsed time.Duration
}

// Strategy is one way of executing a kernel. Start is called once before any
// Invoke and Close once after the last.
type Strategy interface {
	ID() string
	Label() string
	Start(ctx context.Context) error
	Invoke(ctx context.Context, k kernel.Kernel, params []uint32) (Outcome, error)
	Close() error
}

// OrderStrategies returns strategies sorted into run order. Unknown
// identifiers keep their relative order after the known ones.
func OrderStrategies(strategies []Strategy) []Strategy {
	ordered := slices.Clone(strategies)
	known := KnownStrategies()

	rank := func(s Strategy) int {
		if i := slices.Index(known, s.ID()); i >= 0 {
			return i
		}

		return len(known)
	}

	slices.SortStableFunc(ordered, func(a, b Strategy) int {
		return rank(a) - rank(b)
	})

	return ordered
}

// InProcess runs kernels directly in the harness process, compiled with the
// same toolchain and flags as the harness itself.
type InProcess struct{}

// NewInProcess returns the in-process strategy.
func NewInProcess() *InProcess {
	return &InProcess{}
}

// ID implements Strategy.
func (*InProcess) ID() string { return StrategyOptimized }

// Label implements Strategy.
func (*InProcess) Label() string {
	return fmt.Sprintf("%s %s in-process", runtime.Compiler, runtime.Version())
}

// Start implements Strategy.
func (*InProcess) Start(context.Context) error { return nil }

// Invoke implements Strategy.
func (*InProcess) Invoke(ctx context.Context, k kernel.Kernel, params []uint32) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	if err := k.Check(params); err != nil {
		return Outcome{}, err
	}

	value, elapsed, err := Measure(k, params)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Value: value, Elapsed: elapsed}, nil
}

// Close implements Strategy.
func (*InProcess) Close() error { return nil }
