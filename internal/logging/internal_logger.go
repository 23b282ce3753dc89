package logging

import "github.com/rs/zerolog"

// InternalLogger is the printf-style logging surface handed to background
// task functions. It exists so the task manager can capture a task's log
// lines into its run history without the task knowing about that.
type InternalLogger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ZerologSink forwards InternalLogger calls to a zerolog.Logger.
type ZerologSink struct {
	L zerolog.Logger
}

var _ InternalLogger = ZerologSink{}

func NewZerologSink(zlog zerolog.Logger) ZerologSink {
	return ZerologSink{L: zlog}
}

func (s ZerologSink) Info(format string, args ...any)  { s.L.Info().Msgf(format, args...) }
func (s ZerologSink) Warn(format string, args ...any)  { s.L.Warn().Msgf(format, args...) }
func (s ZerologSink) Error(format string, args ...any) { s.L.Error().Msgf(format, args...) }

// FanoutLogger duplicates every call to all wrapped loggers, in order.
type FanoutLogger struct {
	sinks []InternalLogger
}

var _ InternalLogger = FanoutLogger{}

func NewFanoutLogger(sinks ...InternalLogger) FanoutLogger {
	return FanoutLogger{sinks: sinks}
}

func (f FanoutLogger) Info(format string, args ...any) {
	for _, s := range f.sinks {
		s.Info(format, args...)
	}
}

func (f FanoutLogger) Warn(format string, args ...any) {
	for _, s := range f.sinks {
		s.Warn(format, args...)
	}
}

func (f FanoutLogger) Error(format string, args ...any) {
	for _, s := range f.sinks {
		s.Error(format, args...)
	}
}
