package log

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleOutput writes formatted entries to a writer, stderr by default.
type ConsoleOutput struct {
	w io.Writer
}

// NewConsoleOutput returns an output that writes to stderr.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{w: os.Stderr} }

// NewWriterOutput returns an output that writes to w.
func NewWriterOutput(w io.Writer) *ConsoleOutput { return &ConsoleOutput{w: w} }

func (o *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	w := o.w
	if w == nil {
		w = os.Stderr
	}
	_, err := w.Write(formatted)
	return err
}

func (o *ConsoleOutput) Close() error { return nil }

// FileOutput appends entries to a size-rotated file.
type FileOutput struct {
	lj *lumberjack.Logger
}

// NewFileOutput opens path for appending. Rotation is disabled when
// maxSizeMB is 0 (lumberjack then applies its 100MB default).
func NewFileOutput(path string, maxSizeMB, maxBackups, maxAgeDays int) *FileOutput {
	return &FileOutput{lj: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}}
}

func (o *FileOutput) Write(_ *Entry, formatted []byte) error {
	_, err := o.lj.Write(formatted)
	return err
}

func (o *FileOutput) Close() error { return o.lj.Close() }

// NullOutput drops everything.
type NullOutput struct{}

func (NullOutput) Write(*Entry, []byte) error { return nil }
func (NullOutput) Close() error               { return nil }
