package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  int
	}{
		{DebugLevel, 4},
		{InfoLevel, 3},
		{WarnLevel, 2},
		{ErrorLevel, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			var buf bytes.Buffer
			l := New(tt.level, &buf)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")
			assert.Len(t, decodeLines(t, &buf), tt.want)
		})
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(InfoLevel, &buf).WithField("service", "discopt")
	l.WithError(errors.New("boom")).Info("run failed", map[string]interface{}{"job": "abc"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "run failed", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "discopt", entry["service"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "abc", entry["job"])
	assert.Contains(t, entry["caller"], "logging/logger_test.go")
	assert.NotEmpty(t, entry["timestamp"])
}

func TestLoggerWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(InfoLevel, &buf)
	_ = parent.WithField("child", true)
	parent.Info("parent")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "child")
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(InfoLevel, TextFormat, &buf)
	l.Info("started", map[string]interface{}{"b": 2, "a": 1})

	line := buf.String()
	assert.Contains(t, line, "INFO  started")
	assert.Less(t, strings.Index(line, "a=1"), strings.Index(line, "b=2"))
}

func TestFatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := New(InfoLevel, &buf)
	code := -1
	l.sink.exit = func(c int) { code = c }

	l.Fatal("cannot continue")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "FATAL")
}

func TestLoggerConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(InfoLevel, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.WithField("worker", i).Info("tick")
		}()
	}
	wg.Wait()

	assert.Len(t, decodeLines(t, &buf), 20)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel(" Error "))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := t.TempDir() + "/discopt.log"
	l, err := NewLogger(&Config{Level: "debug", Format: "text", Output: path})
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, l.Level())
	assert.Equal(t, TextFormat, l.sink.format)

	_, err = NewLogger(&Config{Output: t.TempDir() + "/missing/dir/x.log"})
	assert.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	cl := &CtxLogger{New(InfoLevel, &buf)}
	ctx := cl.WithContext(context.Background())
	assert.Same(t, cl, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestZapLogger(t *testing.T) {
	var buf bytes.Buffer
	z := NewZapLogger(New(InfoLevel, &buf)).With(zap.String("strategy", "annealing"))

	z.Debug("hidden")
	z.Info("iteration",
		zap.Float64("temperature", 12.5),
		zap.Int("iteration", 3),
		zap.Bool("improved", true),
		zap.Duration("elapsed", time.Second),
		zap.Error(errors.New("cost failed")),
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "iteration", entry["message"])
	assert.Equal(t, "annealing", entry["strategy"])
	assert.Equal(t, 12.5, entry["temperature"])
	assert.Equal(t, 3.0, entry["iteration"])
	assert.Equal(t, true, entry["improved"])
	assert.Equal(t, "cost failed", entry["error"])
	assert.Contains(t, entry["caller"], "logging/logger_test.go")
}

func TestZapLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	z := NewZapLogger(New(WarnLevel, &buf))
	assert.False(t, z.Core().Enabled(zap.InfoLevel))
	assert.True(t, z.Core().Enabled(zap.WarnLevel))
	assert.True(t, z.Core().Enabled(zap.DPanicLevel))
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	var fromCtx *CtxLogger
	h := middleware.RequestID(Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/strategies", nil))

	require.NotNil(t, fromCtx)
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "Request completed", entry["message"])
	assert.Equal(t, "/api/v1/strategies", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
	assert.Equal(t, http.StatusText(http.StatusTeapot), entry["error"])
}
