// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler implements slog.Handler backed by zerolog, so libraries that
// speak slog (sutureslog in particular) emit through the Feedloom logger.
type SlogHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	group  string
}

// NewSlogLogger returns a *slog.Logger that writes through the global
// zerolog logger. Used for the supervisor tree's event hook.
func NewSlogLogger() *slog.Logger {
	return slog.New(&SlogHandler{logger: Logger()})
}

// Enabled reports whether events at the given level are emitted.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= slogToZerologLevel(level)
}

// Handle converts an slog.Record into a zerolog event.
//
//nolint:gocritic // slog.Record is passed by value per the slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	var event *zerolog.Event
	switch {
	case record.Level >= slog.LevelError:
		event = h.logger.Error()
	case record.Level >= slog.LevelWarn:
		event = h.logger.Warn()
	case record.Level >= slog.LevelInfo:
		event = h.logger.Info()
	default:
		event = h.logger.Debug()
	}

	// Pre-bound attrs are stored with their group prefix already applied.
	for _, attr := range h.attrs {
		event = appendAttr(event, attr, "")
	}
	record.Attrs(func(attr slog.Attr) bool {
		event = appendAttr(event, attr, h.group)
		return true
	})

	event.Msg(record.Message)
	return nil
}

// WithAttrs returns a handler carrying additional pre-bound attributes.
// Keys are qualified with the handler's current group at bind time.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, attr := range attrs {
		if h.group != "" {
			attr.Key = h.group + "." + attr.Key
		}
		merged = append(merged, attr)
	}
	return &SlogHandler{logger: h.logger, attrs: merged, group: h.group}
}

// WithGroup returns a handler that prefixes attribute keys with the group
// name. Nested groups concatenate with dots.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &SlogHandler{logger: h.logger, attrs: h.attrs, group: group}
}

// appendAttr adds one slog attribute to a zerolog event.
func appendAttr(event *zerolog.Event, attr slog.Attr, group string) *zerolog.Event {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		return event.Str(key, attr.Value.String())
	case slog.KindInt64:
		return event.Int64(key, attr.Value.Int64())
	case slog.KindUint64:
		return event.Uint64(key, attr.Value.Uint64())
	case slog.KindFloat64:
		return event.Float64(key, attr.Value.Float64())
	case slog.KindBool:
		return event.Bool(key, attr.Value.Bool())
	case slog.KindDuration:
		return event.Dur(key, attr.Value.Duration())
	case slog.KindTime:
		return event.Time(key, attr.Value.Time())
	default:
		return event.Interface(key, attr.Value.Any())
	}
}

// slogToZerologLevel maps slog levels onto zerolog levels.
func slogToZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
