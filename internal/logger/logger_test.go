package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithOutput_Format(t *testing.T) {
	t.Parallel()

	var text bytes.Buffer
	NewWithOutput(&text, "dev", "info").Info("hello", Component("auth"))
	assert.Contains(t, text.String(), "msg=hello")
	assert.Contains(t, text.String(), "component=auth")

	var js bytes.Buffer
	NewWithOutput(&js, "prod", "info").Info("hello", Email("a@x.com"))
	assert.Contains(t, js.String(), `"msg":"hello"`)
	assert.Contains(t, js.String(), `"email":"a@x.com"`)
}

func TestNewWithOutput_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithOutput(&buf, "dev", "warn")
	l.Info("dropped")
	l.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestError_NilIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, Error(nil).Equal(slog.Attr{}))
	assert.Equal(t, "error", Error(errors.New("boom")).Key)
}
