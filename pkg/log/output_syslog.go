//go:build !windows && !plan9

package log

import (
	"log/syslog"
	"strings"
)

// SyslogOutput forwards entries to the local syslog daemon at the priority
// matching the entry level.
type SyslogOutput struct {
	w *syslog.Writer
}

// NewSyslogOutput dials the local syslog with the given tag (program name
// when empty) under the LOG_USER facility.
func NewSyslogOutput(tag string) (*SyslogOutput, error) {
	w, err := syslog.New(syslog.LOG_USER|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, err
	}
	return &SyslogOutput{w: w}, nil
}

func (o *SyslogOutput) Write(e *Entry, formatted []byte) error {
	msg := strings.TrimRight(string(formatted), "\n")
	switch e.Level {
	case DebugLevel:
		return o.w.Debug(msg)
	case InfoLevel:
		return o.w.Info(msg)
	case WarnLevel:
		return o.w.Warning(msg)
	case ErrorLevel:
		return o.w.Err(msg)
	default:
		return o.w.Crit(msg)
	}
}

func (o *SyslogOutput) Close() error { return o.w.Close() }
