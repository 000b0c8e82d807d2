// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(buf *bytes.Buffer, level slog.Leveler) *PrettyHandler {
	return NewPrettyHandler(&slog.HandlerOptions{Level: level}, WithDestinationWriter(buf))
}

func TestPrettyHandler_Line(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newTestHandler(&buf, nil))
	logger.Info("child started", "pid", 42)

	out := buf.String()
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "child started")
	assert.Contains(t, out, `"pid": 42`)
	assert.True(t, strings.HasSuffix(out, "\n"), "each record ends in exactly one newline")
}

func TestPrettyHandler_NoAttrsNoJSON(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newTestHandler(&buf, nil))
	logger.Info("bare message")

	assert.NotContains(t, buf.String(), "{", "a record without attributes renders no JSON block")
}

func TestPrettyHandler_Enabled(t *testing.T) {
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelWarn)

	h := newTestHandler(&bytes.Buffer{}, lv)
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	h = newTestHandler(&bytes.Buffer{}, nil)
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo), "a nil leveler defaults to INFO")
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newTestHandler(&buf, nil)).
		With("component", "mux").
		WithGroup("proc")
	logger.Info("spawned", "pid", 7)

	out := buf.String()
	assert.Contains(t, out, `"component": "mux"`)
	assert.Contains(t, out, `"proc.pid": 7`, "grouped keys carry the dotted group prefix")
}

func TestPrettyHandler_ErrorValuesRenderAsText(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newTestHandler(&buf, nil))
	logger.Error("read failed", "error", errors.New("pipe gone"))

	out := buf.String()
	assert.Contains(t, out, "ERROR:")
	assert.Contains(t, out, `"error": "pipe gone"`)
}

func TestPrettyHandler_Timestamp(t *testing.T) {
	var buf bytes.Buffer

	h := newTestHandler(&buf, nil)
	r := slog.NewRecord(time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC), slog.LevelInfo, "tick", 0)
	require.NoError(t, h.Handle(context.Background(), r))

	assert.True(t, strings.HasPrefix(buf.String(), "15:04:05.000 "))
}

func TestPrettyHandler_CloneIsIndependent(t *testing.T) {
	var buf bytes.Buffer

	base := newTestHandler(&buf, nil)
	derived := base.WithAttrs([]slog.Attr{slog.String("k", "v")})

	logger := slog.New(base)
	logger.Info("plain")

	assert.NotContains(t, buf.String(), `"k"`, "attributes on a clone must not leak into the base handler")

	buf.Reset()
	slog.New(derived).Info("derived")
	assert.Contains(t, buf.String(), `"k": "v"`)
}

func TestLevelLabel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{level: slog.LevelDebug, want: "DEBUG"},
		{level: slog.LevelInfo, want: "INFO"},
		{level: slog.LevelWarn, want: "WARN"},
		{level: slog.LevelError, want: "ERROR"},
		{level: slog.LevelError + 4, want: "ERROR"},
	}

	for _, tt := range tests {
		label, _ := levelLabel(tt.level)
		assert.Equal(t, tt.want, label)
	}
}
