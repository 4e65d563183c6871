package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	levels := []struct {
		name     string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{" INFO ", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tc := range levels {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseLevel(tc.name); got != tc.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.name, got, tc.expected)
			}
		})
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Debug().Msg("built query")
	logger.Info().Msg("loaded rows")
	logger.Warn().Msg("retrying query")

	output := buf.String()
	if strings.Contains(output, "built query") || strings.Contains(output, "loaded rows") {
		t.Errorf("Expected debug and info to be filtered at warn level, got %q", output)
	}
	if !strings.Contains(output, "retrying query") {
		t.Error("Expected warn message to be logged")
	}
}

func TestNew_DebugLogsQueries(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Output: &buf})

	logger.Debug().Str("query", "SELECT 1").Msg("Built analytics query")

	if !strings.Contains(buf.String(), `"query":"SELECT 1"`) {
		t.Errorf("Expected structured query field, got %q", buf.String())
	}
}

func TestNewWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithBackend(NewWithComponent(Config{Level: "info", Output: &buf}, "store"), "clickhouse")

	logger.Info().Msg("pool opened")

	output := buf.String()
	if !strings.Contains(output, `"component":"store"`) {
		t.Error("Expected log to contain component field")
	}
	if !strings.Contains(output, `"backend":"clickhouse"`) {
		t.Error("Expected log to contain backend field")
	}
}

func TestNew_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Pretty: true, Output: &buf})

	logger.Info().Msg("rendered query")

	if !strings.Contains(buf.String(), "rendered query") {
		t.Error("Expected pretty output to contain message")
	}
}

func TestNew_DefaultOutput(t *testing.T) {
	logger := New(Config{Level: "info"})
	logger.Info().Msg("no output configured")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Expected default level 'info', got '%s'", cfg.Level)
	}
	if !cfg.Pretty {
		t.Error("Expected default pretty to be true")
	}
	if cfg.Output == nil {
		t.Error("Expected default output to be set")
	}
}
