package session

import (
	"fmt"

	"example.com/hostspin/internal/model"
)

// chanLogger forwards Info and Warn lines to the event loop. Lines are
// dropped when the loop falls behind.
type chanLogger struct {
	ch     chan<- any
	notify func()
}

func (l *chanLogger) send(m any) {
	select {
	case l.ch <- m:
	default:
	}
	l.notifyLoop()
}

func (l *chanLogger) notifyLoop() {
	if l.notify != nil {
		l.notify()
	}
}

func (l *chanLogger) Debug(msg string) {}

func (l *chanLogger) Debugf(format string, v ...interface{}) {}

func (l *chanLogger) Info(msg string) { l.send(MsgLog{Line: msg}) }

func (l *chanLogger) Infof(format string, v ...interface{}) { l.Info(fmt.Sprintf(format, v...)) }

func (l *chanLogger) Warn(msg string) { l.send(MsgLog{Line: "WARN " + msg}) }

func (l *chanLogger) Warnf(format string, v ...interface{}) { l.Warn(fmt.Sprintf(format, v...)) }

var _ model.Logger = (*chanLogger)(nil)
