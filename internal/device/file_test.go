package device

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/ringlog/internal/assembler"
	"github.com/rzbill/ringlog/internal/ringlog"
)

func TestFileWriteAssemblesFragments(t *testing.T) {
	d := New(10)
	f := d.Open()
	for _, chunk := range []string{"hel", "lo\nworl", "d\n", "tail"} {
		n, err := f.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	snap, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "hello\n", snap[0].Record.String())
	assert.Equal(t, "world\n", snap[1].Record.String())
	assert.Equal(t, "tail", string(f.Pending()))
}

func TestHandlesAssembleIndependently(t *testing.T) {
	d := New(10)
	a, b := d.Open(), d.Open()
	_, _ = a.Write([]byte("from-"))
	_, _ = b.Write([]byte("other\n"))
	_, _ = a.Write([]byte("a\n"))

	all, err := d.Contents(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "other\nfrom-a\n", string(all))
}

func TestFileReadFollowsRecords(t *testing.T) {
	d := New(3)
	appendAll(t, d, "ab\n", "cde\n")
	f := d.Open()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "ab\ncde\n", string(data))
	assert.Equal(t, int64(7), f.Offset())

	n, err := f.Read(make([]byte, 4))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileSeek(t *testing.T) {
	d := New(3)
	appendAll(t, d, "ab\n", "cde\n")
	f := d.Open()

	tests := []struct {
		off    int64
		whence int
		want   int64
		err    error
	}{
		{off: 2, whence: io.SeekStart, want: 2},
		{off: 1, whence: io.SeekCurrent, want: 3},
		{off: -1, whence: io.SeekEnd, want: 6},
		{off: 0, whence: io.SeekEnd, want: 7},
		{off: 1, whence: io.SeekEnd, err: ringlog.ErrInvalidOffset},
		{off: -8, whence: io.SeekEnd, err: ringlog.ErrInvalidOffset},
		{off: 0, whence: 42, err: ringlog.ErrInvalidOffset},
	}
	for _, tt := range tests {
		got, err := f.Seek(tt.off, tt.whence)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFileSeekToThenRead(t *testing.T) {
	d := New(3)
	appendAll(t, d, "skip\n", "ab\n", "cde\n", "fg\n")
	f := d.Open()
	ctx := context.Background()

	abs, err := f.SeekTo(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), abs)

	buf := make([]byte, 16)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "de\n", string(buf[:n]))

	_, err = f.SeekTo(ctx, 3, 0)
	assert.ErrorIs(t, err, ringlog.ErrInvalidIndex)
	assert.Equal(t, int64(7), f.Offset())
}

func TestFileRecordTooLarge(t *testing.T) {
	d := New(3, WithMaxRecordBytes(4))
	f := d.Open()
	_, err := f.Write([]byte("ab"))
	require.NoError(t, err)
	_, err = f.Write([]byte("cdef\n"))
	assert.ErrorIs(t, err, assembler.ErrRecordTooLarge)
	assert.Equal(t, "ab", string(f.Pending()))

	size, err := d.Size(context.Background())
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestFileClose(t *testing.T) {
	d := New(3)
	f := d.Open()
	_, _ = f.Write([]byte("partial"))
	require.NoError(t, f.Close())
	assert.Empty(t, f.Pending())
	_, err := f.Write([]byte("x\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.ErrorIs(t, f.Close(), os.ErrClosed)
	assert.False(t, d.Closed())
}

func TestFileWriteAfterDeviceClose(t *testing.T) {
	d := New(3)
	f := d.Open()
	require.NoError(t, d.Close(context.Background()))
	_, err := f.Write([]byte("x\n"))
	assert.ErrorIs(t, err, ErrClosed)
}
