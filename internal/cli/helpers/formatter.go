package helpers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"
)

// OutputFormat represents the desired output format.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
)

// SupportedFormats lists every output format, default first.
var SupportedFormats = []OutputFormat{FormatTable, FormatJSON, FormatCSV}

// Result is a set of rows with a fixed column order.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// NewResult orders the columns of rows: names from preferred that occur in
// the rows come first, in that order, followed by the rest sorted.
func NewResult(rows []map[string]any, preferred ...string) Result {
	seen := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			seen[col] = true
		}
	}

	var columns []string
	for _, col := range preferred {
		if seen[col] {
			columns = append(columns, col)
			delete(seen, col)
		}
	}
	rest := make([]string, 0, len(seen))
	for col := range seen {
		rest = append(rest, col)
	}
	slices.Sort(rest)

	return Result{Columns: append(columns, rest...), Rows: rows}
}

// Formatter defines the interface for formatting query results.
type Formatter interface {
	Format(result Result, writer io.Writer) error
}

// NewFormatter creates a new Formatter for the given format.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatTable:
		return &TableFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatCSV:
		return &CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// JSONFormatter formats rows as a JSON array of objects.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(result Result, writer io.Writer) error {
	rows := result.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// TableFormatter formats rows as an aligned text table.
type TableFormatter struct{}

func (f *TableFormatter) Format(result Result, writer io.Writer) error {
	if len(result.Rows) == 0 {
		_, err := fmt.Fprintln(writer, "No rows returned")
		return err
	}

	w := tabwriter.NewWriter(writer, 0, 0, 3, ' ', 0)
	if _, err := fmt.Fprintln(w, strings.Join(result.Columns, "\t")); err != nil {
		return err
	}
	for _, row := range result.Rows {
		if _, err := fmt.Fprintln(w, strings.Join(rowValues(result.Columns, row), "\t")); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(writer, "\n%d row(s) returned\n", len(result.Rows))
	return err
}

// CSVFormatter formats rows as CSV with a header line.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(result Result, writer io.Writer) error {
	if len(result.Rows) == 0 {
		return nil
	}

	w := csv.NewWriter(writer)
	if err := w.Write(result.Columns); err != nil {
		return err
	}
	for _, row := range result.Rows {
		if err := w.Write(rowValues(result.Columns, row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func rowValues(columns []string, row map[string]any) []string {
	values := make([]string, len(columns))
	for i, col := range columns {
		values[i] = formatValue(row[col])
	}
	return values
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
