//go:build windows || plan9

package log

import "errors"

// SyslogOutput is unavailable on this platform.
type SyslogOutput struct{}

func NewSyslogOutput(string) (*SyslogOutput, error) {
	return nil, errors.New("syslog output is not supported on this platform")
}

func (o *SyslogOutput) Write(*Entry, []byte) error { return nil }
func (o *SyslogOutput) Close() error               { return nil }
