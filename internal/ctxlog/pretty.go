// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/teex/internal/color"
)

// timeFormat is the timestamp layout for console log lines.
const timeFormat = "15:04:05.000"

// PrettyHandler is a slog.Handler for the console: timestamp, coloured level
// label, message, and the record's attributes rendered as indented JSON.
type PrettyHandler struct {
	level  slog.Leveler
	w      io.Writer
	mu     *sync.Mutex
	colour bool
	attrs  []slog.Attr
	groups []string
}

// PrettyOption configures a PrettyHandler.
type PrettyOption func(*PrettyHandler)

// WithDestinationWriter sets the writer the handler emits to.
func WithDestinationWriter(w io.Writer) PrettyOption {
	return func(h *PrettyHandler) {
		h.w = w
	}
}

// WithColour forces coloured output regardless of terminal detection.
func WithColour() PrettyOption {
	return func(h *PrettyHandler) {
		h.colour = true
	}
}

// WithAutoColour enables colour when NO_COLOR / FORCE_COLOR and terminal
// detection allow it.
func WithAutoColour() PrettyOption {
	return func(h *PrettyHandler) {
		h.colour = color.Enabled()
	}
}

// NewPrettyHandler returns a PrettyHandler writing to stderr unless a
// destination is supplied. Only the Level field of opts is honoured.
func NewPrettyHandler(opts *slog.HandlerOptions, options ...PrettyOption) *PrettyHandler {
	h := &PrettyHandler{
		w:  os.Stderr,
		mu: &sync.Mutex{},
	}

	if opts != nil {
		h.level = opts.Level
	}

	for _, opt := range options {
		opt(h)
	}

	return h
}

// Enabled implements slog.Handler. A nil leveler means INFO.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.level != nil {
		minLevel = h.level.Level()
	}

	return level >= minLevel
}

// WithAttrs implements slog.Handler. Attributes added inside a group carry
// the group path as a dotted key prefix.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()

	for _, a := range attrs {
		h2.attrs = append(h2.attrs, slog.Attr{Key: h2.qualify(a.Key), Value: a.Value})
	}

	return h2
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	h2 := h.clone()
	h2.groups = append(h2.groups, name)

	return h2
}

// Handle implements slog.Handler.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	label, codes := levelLabel(r.Level)

	var sb strings.Builder

	if !r.Time.IsZero() {
		sb.WriteString(r.Time.Format(timeFormat))
		sb.WriteByte(' ')
	}

	sb.WriteString(h.paint(label+":", codes...))
	sb.WriteByte(' ')
	sb.WriteString(h.paint(r.Message, color.FgCyan))

	if attrs := h.collectAttrs(r); len(attrs) > 0 {
		rendered, err := h.renderAttrs(attrs)
		if err != nil {
			return err
		}

		sb.WriteByte(' ')
		sb.WriteString(rendered)
	}

	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, sb.String())

	return err //nolint:wrapcheck
}

// clone shares the mutex so that all derived handlers serialize their writes
// against each other.
func (h *PrettyHandler) clone() *PrettyHandler {
	return &PrettyHandler{
		level:  h.level,
		w:      h.w,
		mu:     h.mu,
		colour: h.colour,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *PrettyHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}

	return strings.Join(h.groups, ".") + "." + key
}

func (h *PrettyHandler) paint(s string, codes ...color.Code) string {
	if !h.colour {
		return s
	}

	return color.Colorize(s, codes...)
}

// collectAttrs flattens the handler's stored attributes and the record's
// attributes into one map keyed by dotted path.
func (h *PrettyHandler) collectAttrs(r slog.Record) map[string]any {
	attrs := make(map[string]any, r.NumAttrs()+len(h.attrs))

	for _, a := range h.attrs {
		attrs[a.Key] = attrValue(a.Value)
	}

	r.Attrs(func(a slog.Attr) bool {
		attrs[h.qualify(a.Key)] = attrValue(a.Value)

		return true
	})

	return attrs
}

// attrValue resolves a slog value. Errors marshal to "{}" as JSON, so they
// are rendered as their message text instead.
func attrValue(v slog.Value) any {
	resolved := v.Resolve().Any()
	if err, ok := resolved.(error); ok {
		return err.Error()
	}

	return resolved
}

// renderAttrs renders the attribute map as indented JSON, coloured when the
// handler is.
func (h *PrettyHandler) renderAttrs(attrs map[string]any) (string, error) {
	plain, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling log attributes: %w", err)
	}

	if !h.colour {
		return string(plain), nil
	}

	// colorjson only understands the generic types json.Unmarshal produces.
	var decoded map[string]any
	if err := json.Unmarshal(plain, &decoded); err != nil {
		return "", fmt.Errorf("decoding log attributes: %w", err)
	}

	f := colorjson.NewFormatter()
	f.Indent = 2

	coloured, err := f.Marshal(decoded)
	if err != nil {
		return "", fmt.Errorf("colouring log attributes: %w", err)
	}

	return string(coloured), nil
}

func levelLabel(l slog.Level) (string, []color.Code) {
	switch {
	case l >= slog.LevelError:
		return "ERROR", []color.Code{color.Bold, color.FgRed}
	case l >= slog.LevelWarn:
		return "WARN", []color.Code{color.FgYellow}
	case l >= slog.LevelInfo:
		return "INFO", []color.Code{color.FgGreen}
	default:
		return "DEBUG", []color.Code{color.Faint}
	}
}
