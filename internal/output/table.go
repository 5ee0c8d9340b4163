package output

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"event-analytics/internal/runner"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func writeTables(w io.Writer, results []runner.ReportResult) error {
	for _, res := range results {
		if _, err := fmt.Fprintf(w, "%s (%s)\n", titleStyle.Render(res.Title), res.Duration.Round(time.Microsecond)); err != nil {
			return err
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers(res.Result.Columns...)
		for _, record := range Rows(res.Result) {
			t.Row(record...)
		}

		if _, err := fmt.Fprintln(w, t.Render()); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
