package harness

import (
	"fmt"
	"time"

	"github.com/weiihann/kernelbench/kernel"
)

// Measure calls k once and returns its result and the monotonic time spent
// inside the call. Params must already have passed k.Check. A kernel panic
// is returned as an error; nothing else sits between the two clock reads.
func Measure(k kernel.Kernel, params []uint32) (value kernel.Value, elapsed time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel %s panicked: %v", k.ID, r)
		}
	}()

	start := time.Now()
	value = k.Call(params)
	elapsed = time.Since(start)

	return value, elapsed, nil
}
