package report

import (
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weiihann/kernelbench/harness"
)

// WriteMetrics writes the run in Prometheus text exposition format to path,
// for pickup by a node exporter textfile collector.
func WriteMetrics(path string, run Run) error {
	reg := prometheus.NewRegistry()

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kernelbench_run_info",
		Help: "Run identity and host, always 1.",
	}, []string{"run_id", "go_version", "os", "arch"})

	elapsed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kernelbench_elapsed_seconds",
		Help: "Measured time of one kernel invocation.",
	}, []string{"kernel", "strategy"})

	rel := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kernelbench_relative_elapsed",
		Help: "Elapsed time divided by the fastest strategy for the kernel.",
	}, []string{"kernel", "strategy"})

	agree := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kernelbench_result_agreement",
		Help: "1 if every strategy produced the same result for the kernel.",
	}, []string{"kernel"})

	reg.MustRegister(info, elapsed, rel, agree)

	info.WithLabelValues(run.RunID, run.Host.GoVersion, run.Host.OS, run.Host.Arch).Set(1)

	fastest := findFastest(run.Records)

	for _, r := range run.Records {
		elapsed.WithLabelValues(r.Kernel, r.Strategy).Set(r.Elapsed.Seconds())
		rel.WithLabelValues(r.Kernel, r.Strategy).Set(ratioOrNaN(r, fastest))
	}

	for _, a := range run.Agreement {
		v := 0.0
		if a.Match {
			v = 1
		}

		agree.WithLabelValues(a.Kernel).Set(v)
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}

	return nil
}

func ratioOrNaN(r harness.Record, fastest map[string]time.Duration) float64 {
	f := fastest[r.Kernel]
	if f <= 0 || r.Elapsed <= 0 {
		return math.NaN()
	}

	return float64(r.Elapsed) / float64(f)
}
