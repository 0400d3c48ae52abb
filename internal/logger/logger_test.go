package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "events loaded",
			fields:  Fields{"count": 3},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "request sent",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "delete failed",
			err:     errors.New("status 500"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > 0
			if logged != tt.want {
				t.Fatalf("log() logged = %v, want %v", logged, tt.want)
			}
			if !logged {
				return
			}

			var entry LogEntry
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
			}
			if entry.Message != tt.message {
				t.Errorf("Message = %q, want %q", entry.Message, tt.message)
			}
			if entry.Level != string(tt.level) {
				t.Errorf("Level = %q, want %q", entry.Level, tt.level)
			}
			if tt.err != nil && entry.Error != tt.err.Error() {
				t.Errorf("Error = %q, want %q", entry.Error, tt.err.Error())
			}
		})
	}
}

func TestNew_NilOutput(t *testing.T) {
	logger := New(LevelDebug, nil)
	// Must not panic
	logger.Info("discarded", nil)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("remote.list_events")
	m.IncrCounter("remote.list_events")
	m.IncrCounter("remote.list_events")

	snapshot := m.GetSnapshot()
	counters := snapshot["counters"].(map[string]int64)

	if counters["remote.list_events"] != 3 {
		t.Errorf("Counter = %v, want 3", counters["remote.list_events"])
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("store.events", 12)
	m.SetGauge("store.events", 11)

	snapshot := m.GetSnapshot()
	gauges := snapshot["gauges"].(map[string]float64)

	if gauges["store.events"] != 11 {
		t.Errorf("Gauge = %v, want 11", gauges["store.events"])
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("remote.create_event", 100*time.Millisecond)
	m.RecordTiming("remote.create_event", 200*time.Millisecond)
	m.RecordTiming("remote.create_event", 150*time.Millisecond)

	snapshot := m.GetSnapshot()
	timings := snapshot["timings"].(map[string]map[string]interface{})

	timing := timings["remote.create_event"]
	if timing["count"].(int) != 3 {
		t.Errorf("Timing count = %v, want 3", timing["count"])
	}
	if timing["min"].(string) != "100ms" {
		t.Errorf("Min timing = %v, want 100ms", timing["min"])
	}
	if timing["max"].(string) != "200ms" {
		t.Errorf("Max timing = %v, want 200ms", timing["max"])
	}
}

func TestTimed(t *testing.T) {
	ResetMetrics()
	defer ResetMetrics()

	Timed("remote.delete_event", time.Now().Add(-5*time.Millisecond))

	snapshot := GetMetricsSnapshot()
	counters := snapshot["counters"].(map[string]int64)
	if counters["remote.delete_event"] != 1 {
		t.Errorf("Timed() counter = %v, want 1", counters["remote.delete_event"])
	}
	timings := snapshot["timings"].(map[string]map[string]interface{})
	if _, ok := timings["remote.delete_event"]; !ok {
		t.Error("Timed() did not record a timing")
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	previous := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(previous)

	Debug("debug line", nil)
	Info("info line", Fields{"key": "value"})
	Warn("warn line", nil)
	Error("error line", Fields{"component": "test"}, errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Errorf("package-level functions wrote %d lines, want 4", len(lines))
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.minLevel, &buf)

			logger.log(tt.logLevel, "test", nil, nil)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}
