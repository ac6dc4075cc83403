package tcpserver

import (
	"errors"
	"strconv"
	"strings"
)

// SeekCommand is the line prefix that repositions the reply cursor instead of
// appending a record: "AESDCHAR_IOCSEEKTO:<record>,<offset>".
const SeekCommand = "AESDCHAR_IOCSEEKTO:"

var errBadCommand = errors.New("tcp: malformed seek command")

type seekTo struct {
	record int
	offset int64
}

// parseSeek reports whether line is a seek command and, if so, its operands.
func parseSeek(line []byte) (seekTo, bool, error) {
	s := strings.TrimRight(string(line), "\r\n")
	rest, ok := strings.CutPrefix(s, SeekCommand)
	if !ok {
		return seekTo{}, false, nil
	}
	x, y, ok := strings.Cut(rest, ",")
	if !ok {
		return seekTo{}, true, errBadCommand
	}
	rec, err := strconv.Atoi(strings.TrimSpace(x))
	if err != nil || rec < 0 {
		return seekTo{}, true, errBadCommand
	}
	off, err := strconv.ParseInt(strings.TrimSpace(y), 10, 64)
	if err != nil || off < 0 {
		return seekTo{}, true, errBadCommand
	}
	return seekTo{record: rec, offset: off}, true, nil
}
