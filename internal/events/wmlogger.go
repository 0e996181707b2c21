// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// wmLogger adapts zerolog to watermill.LoggerAdapter so Watermill internals
// log through the Feedloom logger.
type wmLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger wraps a zerolog logger for Watermill components.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return wmLogger{logger: logger}
}

func (l wmLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.withFields(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l wmLogger) Info(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Info(), fields).Msg(msg)
}

func (l wmLogger) Debug(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Debug(), fields).Msg(msg)
}

func (l wmLogger) Trace(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Trace(), fields).Msg(msg)
}

func (l wmLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return wmLogger{logger: ctx.Logger()}
}

// withFields appends watermill log fields to a zerolog event.
func (l wmLogger) withFields(event *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	return event
}
