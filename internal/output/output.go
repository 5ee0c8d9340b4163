package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"event-analytics/internal/reports"
	"event-analytics/internal/runner"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Write renders every report result to w in the chosen format.
func Write(w io.Writer, results []runner.ReportResult, format Format) error {
	switch format {
	case FormatTable:
		return writeTables(w, results)
	case FormatJSON:
		return writeJSON(w, results)
	case FormatCSV:
		return writeCSV(w, results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

type jsonReport struct {
	Report     string                   `json:"report"`
	Title      string                   `json:"title"`
	DurationMS float64                  `json:"duration_ms"`
	Rows       []map[string]interface{} `json:"rows"`
}

func writeJSON(w io.Writer, results []runner.ReportResult) error {
	out := make([]jsonReport, 0, len(results))
	for _, res := range results {
		jr := jsonReport{
			Report:     res.Name,
			Title:      res.Title,
			DurationMS: float64(res.Duration.Microseconds()) / 1000,
			Rows:       make([]map[string]interface{}, 0, len(res.Result.Rows)),
		}
		for _, row := range res.Result.Rows {
			obj := make(map[string]interface{}, len(row))
			for i, col := range res.Result.Columns {
				obj[col] = row[i]
			}
			jr.Rows = append(jr.Rows, obj)
		}
		out = append(out, jr)
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}

func writeCSV(w io.Writer, results []runner.ReportResult) error {
	writer := csv.NewWriter(w)
	for _, res := range results {
		if err := writer.Write([]string{"# " + res.Name}); err != nil {
			return err
		}
		if err := writer.Write(res.Result.Columns); err != nil {
			return err
		}
		for _, row := range res.Result.Rows {
			record := make([]string, len(row))
			for i, cell := range row {
				record[i] = FormatValue(cell)
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// FormatValue renders one cell. A nil rate is an empty cell, never
// an error.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', 2, 64)
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Rows renders a full result set through FormatValue.
func Rows(rs *reports.ResultSet) [][]string {
	rendered := make([][]string, len(rs.Rows))
	for i, row := range rs.Rows {
		record := make([]string, len(row))
		for j, cell := range row {
			record[j] = FormatValue(cell)
		}
		rendered[i] = record
	}
	return rendered
}
