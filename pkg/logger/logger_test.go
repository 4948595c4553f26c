package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xdigest/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "chatty"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "xdigest.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)

			if tt.cfg.File != "" {
				_, statErr := os.Stat(tt.cfg.File)
				assert.NoError(t, statErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, zerolog.InfoLevel)

	l.Debug("hidden")
	l.Info("shown")
	l.Warn("warned")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "warned")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, zerolog.DebugLevel)

	child := l.WithField("run_id", "abc").WithFields(map[string]interface{}{
		"page":  2,
		"delay": 1500 * time.Millisecond,
		"done":  true,
	})
	child.Info("page fetched")

	out := buf.String()
	assert.Contains(t, out, `"run_id":"abc"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, `"done":true`)

	// Parent is unaffected by the child's fields
	buf.Reset()
	l.Info("parent")
	assert.NotContains(t, buf.String(), "run_id")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, zerolog.DebugLevel)

	l.WithError(errors.New("connection refused")).Error("fetch failed")
	assert.Contains(t, buf.String(), `"error":"connection refused"`)

	assert.Equal(t, l, l.WithError(nil))
}

func TestStructuredMethods(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, zerolog.DebugLevel).WithField("component", "crawler")

	l.WarnWithFields("slow page", map[string]interface{}{"duration_ms": int64(4200)})

	out := buf.String()
	assert.Contains(t, out, `"component":"crawler"`)
	assert.Contains(t, out, `"duration_ms":4200`)
	assert.Contains(t, out, "slow page")
}

func TestLogRequest(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://example.test/graphql", 200, time.Second)
	LogRequest(tl, "GET", "https://example.test/graphql", 429, time.Second)
	LogRequest(tl, "GET", "https://example.test/graphql", 503, time.Second)

	assert.True(t, tl.HasMessage("DEBUG", "HTTP request completed"))
	assert.True(t, tl.HasMessage("WARN", "upstream client error"))
	assert.True(t, tl.HasMessage("WARN", "upstream server error"))
}

func TestLogPage(t *testing.T) {
	tl := NewTestLogger()
	LogPage(tl, 3, 10, 2, true, false)

	msgs := tl.GetMessagesByLevel("INFO")
	require.Len(t, msgs, 1)
	assert.Equal(t, 3, msgs[0].Fields["page"])
	assert.Equal(t, 10, msgs[0].Fields["kept"])
	assert.Equal(t, false, msgs[0].Fields["limit_reached"])
}

func TestTestLoggerSharesCapture(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("run_id", "r1").WithError(errors.New("boom"))
	child.Warn("degraded")
	tl.Info("plain")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "r1", msgs[0].Fields["run_id"])
	assert.EqualError(t, msgs[0].Error, "boom")
	assert.Nil(t, msgs[1].Fields)
	assert.True(t, tl.HasError())
	assert.Contains(t, tl.String(), "[WARN] degraded")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.WithField("k", "v").WithError(errors.New("x")).Error("ignored")
		LogComponentStart(l, "crawler", map[string]interface{}{"max_pages": 30})
		LogComponentStop(l, "crawler", "done")
	})
}
