package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegrab/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{
			name: "file output",
			cfg: &config.LoggingConfig{
				Level: "info",
				File:  filepath.Join(t.TempDir(), "logs", "imagegrab.log"),
			},
		},
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
		})
	}
}

func TestFileOutputWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l, err := New(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	l.WithField("keyword", "lighthouse").Info("Searching")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"keyword":"lighthouse"`)
	assert.Contains(t, string(data), `"message":"Searching"`)
}

func TestWithFieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "info")
	require.NoError(t, err)

	l.Debug("hidden")
	l.WithFields(map[string]interface{}{"count": 3, "dur": time.Second}).Info("shown")
	l.WithError(errors.New("boom")).Error("failed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, float64(3), lines[0]["count"])
	assert.Equal(t, "imagegrab", lines[0]["app"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestChildLoggerDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)

	_ = base.WithField("url", "http://x/a.jpg")
	base.Info("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["url"]
	assert.False(t, ok)
}

func TestHelpers(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)

	LogOutcome(l, "completed", "http://x/a.jpg", "a.jpg", "", nil)
	LogOutcome(l, "failed", "http://x/b.jpg", "b.jpg", "network", errors.New("refused"))
	LogSearch(l, "red fox", 12, nil)
	LogSummary(l, 1, 0, 1, time.Second)
	LogRequest(l, "GET", "http://x/c.jpg", 503, time.Millisecond)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 5)
	assert.Equal(t, "Download completed", lines[0]["message"])
	assert.Equal(t, "Download failed", lines[1]["message"])
	assert.Equal(t, "network", lines[1]["reason"])
	assert.Equal(t, float64(12), lines[2]["links"])
	assert.Equal(t, float64(1), lines[3]["errors"])
	assert.Equal(t, "warn", lines[4]["level"])
}

func TestLogOutcomeStaysOutOfInfoOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "info")
	require.NoError(t, err)

	LogOutcome(l, "completed", "http://x/a.jpg", "a.jpg", "", nil)
	LogOutcome(l, "skipped", "http://x/b.jpg", "b.jpg", "exists", nil)
	LogOutcome(l, "failed", "http://x/c.jpg", "c.jpg", "protocol", errors.New("HTTP 404"))

	assert.Empty(t, buf.String())
}

func TestLogRequestLevels(t *testing.T) {
	cases := map[int]string{
		200: "debug",
		404: "error",
		403: "error",
		429: "warn",
		502: "warn",
	}
	for code, level := range cases {
		var buf bytes.Buffer
		l, err := NewWithWriter(&buf, "debug")
		require.NoError(t, err)

		LogRequest(l, "GET", "http://x/a.jpg", code, time.Millisecond)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, level, lines[0]["level"], "status %d", code)
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "info")
	require.NoError(t, err)

	SetLogger(l)
	WithField("scope", "global").Info("hello")

	assert.Contains(t, buf.String(), `"scope":"global"`)
	assert.Same(t, l, GetLogger())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.WithField("a", 1).WithError(errors.New("x")).Error("nothing")
		l.InfoWithFields("nothing", nil)
	})
	assert.Nil(t, l.GetZerolog())
}
