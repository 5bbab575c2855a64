// Package report formats benchmark records into comparison tables.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/weiihann/kernelbench/harness"
)

// ErrNoRecords is returned when there is nothing to report.
var ErrNoRecords = errors.New("no records to report")

// Run is everything a report is built from.
type Run struct {
	RunID     string           `json:"run_id"`
	Host      harness.Host     `json:"host"`
	Records   []harness.Record `json:"records"`
	Agreement []Agreement      `json:"agreement"`
}

// NewRun bundles records with their agreement check. Float results may
// differ by at most maxULP units in the last place.
func NewRun(runID string, host harness.Host, records []harness.Record, maxULP uint) Run {
	return Run{
		RunID:     runID,
		Host:      host,
		Records:   records,
		Agreement: CheckAgreement(records, maxULP),
	}
}

// Agree reports whether every kernel produced the same result under every
// strategy.
func (r Run) Agree() bool {
	for _, a := range r.Agreement {
		if !a.Match {
			return false
		}
	}

	return true
}

// Generate writes a markdown comparison table for the run.
func Generate(w io.Writer, run Run) error {
	if len(run.Records) == 0 {
		return ErrNoRecords
	}

	fastest := findFastest(run.Records)

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run `%s` on %s\n", run.RunID, describeHost(run.Host))
	fmt.Fprintln(w)

	// Agreement check.
	if run.Agree() {
		fmt.Fprintln(w, "Results: **all strategies agree**")
	} else {
		fmt.Fprintln(w, "Results: **MISMATCH**")

		for _, a := range run.Agreement {
			if a.Match {
				continue
			}

			parts := make([]string, len(a.Results))
			for i, sr := range a.Results {
				parts[i] = sr.Strategy + "=" + sr.Value.String()
			}

			fmt.Fprintf(w, "  - %s: %s\n", a.Kernel, strings.Join(parts, ", "))
		}
	}

	fmt.Fprintln(w)

	// Table.
	fmt.Fprintln(w, "| Kernel | Strategy | Params | Elapsed | Relative | Result |")
	fmt.Fprintln(w, "|--------|----------|--------|---------|----------|--------|")

	for _, r := range run.Records {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
			r.KernelName,
			r.StrategyLabel,
			formatParams(r.Params),
			formatElapsed(r.Elapsed),
			relative(r, fastest),
			r.Result,
		)
	}

	return nil
}

// GenerateJSON writes the run as JSON to w.
func GenerateJSON(w io.Writer, run Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(run)
}

func describeHost(h harness.Host) string {
	desc := fmt.Sprintf("%s/%s, %d CPUs, %s", h.OS, h.Arch, h.NumCPU, h.GoVersion)
	if len(h.Features) > 0 {
		desc += " (" + strings.Join(h.Features, " ") + ")"
	}

	return desc
}

// findFastest returns the shortest positive elapsed time per kernel.
func findFastest(records []harness.Record) map[string]time.Duration {
	fastest := make(map[string]time.Duration)

	for _, r := range records {
		if r.Elapsed <= 0 {
			continue
		}

		if cur, ok := fastest[r.Kernel]; !ok || r.Elapsed < cur {
			fastest[r.Kernel] = r.Elapsed
		}
	}

	return fastest
}

func relative(r harness.Record, fastest map[string]time.Duration) string {
	ratio := 1.0
	if f := fastest[r.Kernel]; f > 0 && r.Elapsed > 0 {
		ratio = float64(r.Elapsed) / float64(f)
	}

	return fmt.Sprintf("%.2fx", ratio)
}

func formatParams(params []uint32) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}

	return strings.Join(parts, "×")
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
