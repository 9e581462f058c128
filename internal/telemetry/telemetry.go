// SPDX-License-Identifier: Apache-2.0

// Package telemetry records named usage events tagged by workspace. Events
// are structured log records; the transport that ships them is external.
package telemetry

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// EnvLogPath names the environment variable that points at the telemetry
// event log. Unset means telemetry is disabled.
const EnvLogPath = "CANOPY_TELEMETRY_LOG"

// FromEnv builds a Sink from the environment: a zerolog file sink when
// EnvLogPath is set, a Noop otherwise. An unopenable log disables telemetry
// rather than failing the command.
func FromEnv(workspace string) Sink {
	path := os.Getenv(EnvLogPath)
	if path == "" {
		return Noop{}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return Noop{}
	}
	return NewLogger(f, workspace)
}

// Sink receives telemetry events. A run emits either its success events or
// one failure event, never both.
type Sink interface {
	Event(name string)
	Count(name string, value int)
}

// Logger is a Sink writing zerolog records.
type Logger struct {
	log       zerolog.Logger
	workspace string
}

// NewLogger creates a Sink that writes JSON event records to w, tagging
// every record with the workspace name.
func NewLogger(w io.Writer, workspace string) *Logger {
	return &Logger{
		log:       zerolog.New(w).With().Timestamp().Logger(),
		workspace: workspace,
	}
}

func (l *Logger) Event(name string) {
	l.log.Info().
		Str("workspace", l.workspace).
		Str("event", name).
		Msg("telemetry")
}

func (l *Logger) Count(name string, value int) {
	l.log.Info().
		Str("workspace", l.workspace).
		Str("event", name).
		Int("count", value).
		Msg("telemetry")
}

// Noop discards all events. Used when telemetry is disabled and in tests.
type Noop struct{}

func (Noop) Event(string)      {}
func (Noop) Count(string, int) {}
