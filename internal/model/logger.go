package model

//
// Logger
//

// DebugLogger is a logger emitting only debug messages.
type DebugLogger interface {
	Debug(msg string)
	Debugf(format string, v ...interface{})
}

// InfoLogger is a logger emitting debug and info messages.
type InfoLogger interface {
	DebugLogger
	Info(msg string)
	Infof(format string, v ...interface{})
}

// Logger is the logger used across hostspin. It is out of the box
// compatible with `log.Log` in `apex/log`.
type Logger interface {
	InfoLogger
	Warn(msg string)
	Warnf(format string, v ...interface{})
}

// DiscardLogger is the default logger that discards its input.
var DiscardLogger Logger = logDiscarder{}

type logDiscarder struct{}

func (logDiscarder) Debug(msg string)                       {}
func (logDiscarder) Debugf(format string, v ...interface{}) {}
func (logDiscarder) Info(msg string)                        {}
func (logDiscarder) Infof(format string, v ...interface{})  {}
func (logDiscarder) Warn(msg string)                        {}
func (logDiscarder) Warnf(format string, v ...interface{})  {}

// ValidLoggerOrDefault returns logger when not nil, DiscardLogger otherwise.
func ValidLoggerOrDefault(logger Logger) Logger {
	if logger != nil {
		return logger
	}
	return DiscardLogger
}
