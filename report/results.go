package report

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/weiihann/kernelbench/harness"
)

// WriteResult writes one record as a results-file line:
// "(<strategy label>) <kernel name>: <elapsed> ns".
func WriteResult(w io.Writer, r harness.Record) error {
	_, err := fmt.Fprintf(w, "(%s) %s: %d ns\n",
		r.StrategyLabel, r.KernelName, r.Elapsed.Nanoseconds())

	return err
}

// ResultsFile appends result lines to a file as records arrive.
type ResultsFile struct {
	f *os.File
	w *bufio.Writer
}

// OpenResultsFile opens path for appending, creating it if needed.
func OpenResultsFile(path string) (*ResultsFile, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results file %s: %w", path, err)
	}

	return &ResultsFile{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes one record and flushes it to the file.
func (rf *ResultsFile) Append(r harness.Record) error {
	if err := WriteResult(rf.w, r); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return rf.w.Flush()
}

// Close flushes and closes the file.
func (rf *ResultsFile) Close() error {
	flushErr := rf.w.Flush()
	if err := rf.f.Close(); err != nil {
		return err
	}

	return flushErr
}
