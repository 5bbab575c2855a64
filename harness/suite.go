package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/weiihann/kernelbench/workload"
)

// Suite runs a workload under a set of strategies.
type Suite struct {
	RunID      string
	Workload   []workload.Descriptor
	Strategies []Strategy
	Logger     *slog.Logger
}

// NewSuite creates a Suite with a fresh run identifier. Strategies are put
// into run order.
func NewSuite(
	descriptors []workload.Descriptor,
	strategies []Strategy,
	logger *slog.Logger,
) *Suite {
	runID := uuid.NewString()

	return &Suite{
		RunID:      runID,
		Workload:   slices.Clone(descriptors),
		Strategies: OrderStrategies(strategies),
		Logger:     logger.With(slog.String("run_id", runID)),
	}
}

// Run starts every strategy, then measures each kernel under each strategy
// in order, passing one record per pair to sink. Each pair is invoked twice
// and only the second invocation is reported. The first failure ends the run;
// records already passed to sink stay valid. Strategies are closed on return.
func (s *Suite) Run(ctx context.Context, sink Sink) (err error) {
	started := make([]Strategy, 0, len(s.Strategies))

	defer func() {
		for i := len(started) - 1; i >= 0; i-- {
			if cerr := started[i].Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close %s: %w", started[i].ID(), cerr))
			}
		}
	}()

	for _, strategy := range s.Strategies {
		if err := strategy.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", strategy.ID(), err)
		}

		started = append(started, strategy)
	}

	s.Logger.InfoContext(ctx, "suite started",
		slog.Int("kernels", len(s.Workload)),
		slog.Int("strategies", len(s.Strategies)),
	)

	for _, d := range s.Workload {
		for _, strategy := range s.Strategies {
			record, err := s.measure(ctx, d, strategy)
			if err != nil {
				return fmt.Errorf("%s under %s: %w", d.Kernel.ID, strategy.ID(), err)
			}

			s.Logger.InfoContext(ctx, "kernel measured",
				slog.String("kernel", record.Kernel),
				slog.String("strategy", record.Strategy),
				slog.Duration("elapsed", record.Elapsed),
				slog.String("result", record.Result.String()),
			)

			if err := sink(record); err != nil {
				return fmt.Errorf("emit %s under %s: %w", d.Kernel.ID, strategy.ID(), err)
			}
		}
	}

	return nil
}

func (s *Suite) measure(ctx context.Context, d workload.Descriptor, strategy Strategy) (Record, error) {
	if _, err := strategy.Invoke(ctx, d.Kernel, d.Params); err != nil {
		return Record{}, fmt.Errorf("warm-up: %w", err)
	}

	outcome, err := strategy.Invoke(ctx, d.Kernel, d.Params)
	if err != nil {
		return Record{}, fmt.Errorf("measured run: %w", err)
	}

	return Record{
		RunID:         s.RunID,
		Kernel:        d.Kernel.ID,
		KernelName:    d.Kernel.Name,
		Params:        slices.Clone(d.Params),
		Strategy:      strategy.ID(),
		StrategyLabel: strategy.Label(),
		Result:        outcome.Value,
		Elapsed:       outcome.Elapsed,
	}, nil
}
