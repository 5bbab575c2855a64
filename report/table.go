package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorBorder   = lipgloss.Color("#16858E")
	colorHeader   = lipgloss.Color("#2CD7C7")
	colorFastest  = lipgloss.Color("#2CD7C7")
	colorMismatch = lipgloss.Color("#E74C3C")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorHeader)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorHeader).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	fastestStyle  = cellStyle.Foreground(colorFastest)
	mismatchStyle = cellStyle.Foreground(colorMismatch)
)

const (
	colElapsed = 3
	colResult  = 5
)

// GenerateTable writes the run as a styled terminal table.
func GenerateTable(w io.Writer, run Run) error {
	if len(run.Records) == 0 {
		return ErrNoRecords
	}

	fastest := findFastest(run.Records)

	mismatched := make(map[string]bool)
	for _, a := range run.Agreement {
		if !a.Match {
			mismatched[a.Kernel] = true
		}
	}

	rows := make([][]string, len(run.Records))
	for i, r := range run.Records {
		rows[i] = []string{
			r.KernelName,
			r.StrategyLabel,
			formatParams(r.Params),
			formatElapsed(r.Elapsed),
			relative(r, fastest),
			r.Result.String(),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("Kernel", "Strategy", "Params", "Elapsed", "Relative", "Result").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			r := run.Records[row]

			switch {
			case col == colResult && mismatched[r.Kernel]:
				return mismatchStyle
			case col == colElapsed && r.Elapsed > 0 && r.Elapsed == fastest[r.Kernel]:
				return fastestStyle
			default:
				return cellStyle
			}
		})

	status := "all strategies agree"
	if !run.Agree() {
		status = "MISMATCH"
	}

	if _, err := fmt.Fprintln(w, titleStyle.Render("Benchmark Results")+"  "+status); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, t.String())

	return err
}
