package helpers

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

var testRows = []map[string]any{
	{"currency": "USD", "count": int64(3), "first_seen": time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
	{"currency": "EUR", "count": int64(2), "first_seen": nil},
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  OutputFormat
		wantErr bool
	}{
		{
			name:    "table formatter",
			format:  FormatTable,
			wantErr: false,
		},
		{
			name:    "json formatter",
			format:  FormatJSON,
			wantErr: false,
		},
		{
			name:    "csv formatter",
			format:  FormatCSV,
			wantErr: false,
		},
		{
			name:    "unsupported format",
			format:  OutputFormat("unsupported"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFormatter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got == nil {
				t.Errorf("NewFormatter() returned nil formatter")
			}
		})
	}
}

func TestNewResult_ColumnOrder(t *testing.T) {
	result := NewResult(testRows, "currency", "missing")

	want := []string{"currency", "count", "first_seen"}
	if strings.Join(result.Columns, ",") != strings.Join(want, ",") {
		t.Errorf("Columns = %v, want %v", result.Columns, want)
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	for _, rows := range [][]map[string]any{testRows, nil} {
		buf := &bytes.Buffer{}
		if err := (&JSONFormatter{}).Format(NewResult(rows), buf); err != nil {
			t.Fatalf("JSONFormatter.Format() error = %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("JSONFormatter.Format() produced invalid JSON: %v", err)
		}
		if len(decoded) != len(rows) {
			t.Errorf("decoded %d rows, want %d", len(decoded), len(rows))
		}
	}
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name         string
		rows         []map[string]any
		wantContains []string
	}{
		{
			name: "rows",
			rows: testRows,
			wantContains: []string{
				"currency", "count", "first_seen",
				"USD", "2024-01-01T10:00:00Z",
				"EUR", "NULL",
				"2 row(s) returned",
			},
		},
		{
			name:         "no rows",
			rows:         nil,
			wantContains: []string{"No rows returned"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := (&TableFormatter{}).Format(NewResult(tt.rows, "currency"), buf); err != nil {
				t.Fatalf("TableFormatter.Format() error = %v", err)
			}

			output := buf.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(output, want) {
					t.Errorf("TableFormatter.Format() output missing %q\nGot: %s", want, output)
				}
			}
		})
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&CSVFormatter{}).Format(NewResult(testRows, "currency", "count"), buf); err != nil {
		t.Fatalf("CSVFormatter.Format() error = %v", err)
	}

	want := "currency,count,first_seen\nUSD,3,2024-01-01T10:00:00Z\nEUR,2,NULL\n"
	if buf.String() != want {
		t.Errorf("CSVFormatter.Format() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := (&CSVFormatter{}).Format(NewResult(nil), buf); err != nil {
		t.Fatalf("CSVFormatter.Format() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("CSVFormatter.Format() on no rows = %q, want empty", buf.String())
	}
}
