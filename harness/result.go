// Package harness runs kernels under each execution strategy and produces
// one timing record per (kernel, strategy) pair.
package harness

import (
	"time"

	"github.com/weiihann/kernelbench/kernel"
)

// Record is the outcome of one measured invocation.
type Record struct {
	RunID         string        `json:"run_id"`
	Kernel        string        `json:"kernel"`
	KernelName    string        `json:"kernel_name"`
	Params        []uint32      `json:"params"`
	Strategy      string        `json:"strategy"`
	StrategyLabel string        `json:"strategy_label"`
	Result        kernel.Value  `json:"result"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

// Sink consumes records in the order they are produced. An error from a sink
// aborts the run.
type Sink func(Record) error
