package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// captureSetup points the global logger at a buffer and restores info level afterwards.
func captureSetup(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg.Output = buf
	Setup(cfg)
	t.Cleanup(func() { Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}}) })
	return buf
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
	if cfg.Output == nil {
		t.Error("Expected a default output")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"off", LevelDisabled, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	tests := []struct {
		level LogLevel
		shown []string
		quiet []string
	}{
		{LevelDebug, []string{"fetch debug", "fetch info", "fetch warn"}, nil},
		{LevelInfo, []string{"fetch info", "fetch warn"}, []string{"fetch debug"}},
		{LevelWarn, []string{"fetch warn", "fetch error"}, []string{"fetch debug", "fetch info"}},
		{"bogus", []string{"fetch info"}, []string{"fetch debug"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := captureSetup(t, Config{Level: tt.level})

			logger := NewLogger("voog-client")
			logger.Debug().Msg("fetch debug")
			logger.Info().Msg("fetch info")
			logger.Warn().Msg("fetch warn")
			logger.Error().Msg("fetch error")

			output := buf.String()
			for _, want := range tt.shown {
				if !strings.Contains(output, want) {
					t.Errorf("Expected %q in output at %s level", want, tt.level)
				}
			}
			for _, unwanted := range tt.quiet {
				if strings.Contains(output, unwanted) {
					t.Errorf("Expected %q to be filtered at %s level", unwanted, tt.level)
				}
			}
		})
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := captureSetup(t, Config{Level: LevelInfo, Pretty: true})

	logger := NewLogger("serve")
	logger.Info().Msg("listening")

	output := buf.String()
	if !strings.Contains(output, "listening") {
		t.Fatalf("Expected message in pretty output, got %q", output)
	}
	if strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("Expected console output, got JSON %q", output)
	}
}

func TestNewInstanceLogger(t *testing.T) {
	buf := captureSetup(t, Config{Level: LevelInfo})

	logger := NewInstanceLogger("pagination", 7)
	logger.Info().Int("page", 2).Msg("Page rendered")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("Expected one JSON record, got %q: %v", buf.String(), err)
	}
	if record["component"] != "pagination" {
		t.Errorf("component = %v, want pagination", record["component"])
	}
	if record["instance"] != float64(7) {
		t.Errorf("instance = %v, want 7", record["instance"])
	}
	if record["page"] != float64(2) {
		t.Errorf("page = %v, want 2", record["page"])
	}
}

func TestDisabledLevel(t *testing.T) {
	buf := captureSetup(t, Config{Level: LevelDisabled})

	logger := NewLogger("browse")
	logger.Error().Msg("should not appear")

	if buf.Len() != 0 {
		t.Errorf("Expected no output when disabled, got %q", buf.String())
	}
}
