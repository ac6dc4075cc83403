package assembler

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/ringlog/internal/ringlog"
)

func collect(t *testing.T, a *Assembler, chunks ...string) []string {
	t.Helper()
	var out []string
	for _, c := range chunks {
		recs, err := a.Split([]byte(c))
		require.NoError(t, err)
		for _, r := range recs {
			out = append(out, r.String())
		}
	}
	return out
}

func TestFragmentedRecords(t *testing.T) {
	a := New(Options{})
	got := collect(t, a, "hel", "lo\nworl", "d\n")
	assert.Equal(t, []string{"hello\n", "world\n"}, got)
	assert.Equal(t, 0, a.Len())
}

func TestMultipleRecordsInOneChunk(t *testing.T) {
	a := New(Options{})
	got := collect(t, a, "a\nbb\n\nccc")
	assert.Equal(t, []string{"a\n", "bb\n", "\n"}, got)
	assert.Equal(t, []byte("ccc"), a.Pending())
}

func TestEmptyFeedIsNoop(t *testing.T) {
	a := New(Options{})
	collect(t, a, "abc")
	calls := 0
	err := a.Feed(nil, func(ringlog.Record) error { calls++; return nil })
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.Equal(t, []byte("abc"), a.Pending())
}

func TestCustomDelimiter(t *testing.T) {
	a := New(Options{Delimiter: ';'})
	assert.Equal(t, byte(';'), a.Delimiter())
	got := collect(t, a, "x;y\n", "z;")
	assert.Equal(t, []string{"x;", "y\nz;"}, got)
}

func TestReassemblyEquivalence(t *testing.T) {
	stream := []byte("first line\nsecond\n\nthird has more bytes in it\nx\ntrailing")
	whole, err := New(Options{}).Split(stream)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		a := New(Options{})
		var got []ringlog.Record
		rest := stream
		for len(rest) > 0 {
			n := 1 + rng.Intn(len(rest))
			if trial%10 == 0 {
				n = 1
			}
			recs, err := a.Split(rest[:n])
			require.NoError(t, err)
			got = append(got, recs...)
			rest = rest[n:]
		}
		require.Len(t, got, len(whole))
		for i := range whole {
			assert.True(t, whole[i].Equal(got[i]), "trial %d record %d", trial, i)
		}
		assert.Equal(t, []byte("trailing"), a.Pending())
	}
}

func TestRecordTooLargeLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		pending string
		feed    string
	}{
		{name: "completed record", pending: "abc", feed: "defg\n"},
		{name: "pending fragment", pending: "abcd", feed: "efgh"},
		{name: "later record in chunk", pending: "", feed: "ok\ntoolongrecord\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Options{MaxRecordBytes: 6})
			collect(t, a, tt.pending)
			emitted := 0
			err := a.Feed([]byte(tt.feed), func(ringlog.Record) error { emitted++; return nil })
			assert.ErrorIs(t, err, ErrRecordTooLarge)
			assert.Zero(t, emitted)
			assert.Equal(t, tt.pending, string(a.Pending()))
		})
	}
}

func TestRecordAtLimitIsAccepted(t *testing.T) {
	a := New(Options{MaxRecordBytes: 6})
	got := collect(t, a, "abc", "de\n", "123456")
	assert.Equal(t, []string{"abcde\n"}, got)
	assert.Equal(t, 6, a.Len())
}

func TestEmitErrorKeepsRemainder(t *testing.T) {
	a := New(Options{})
	boom := errors.New("boom")
	var got []string
	err := a.Feed([]byte("one\ntwo\nthree"), func(r ringlog.Record) error {
		if r.String() == "two\n" {
			return boom
		}
		got = append(got, r.String())
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"one\n"}, got)
	assert.Equal(t, "two\nthree", string(a.Pending()))

	// the retained bytes complete normally on the next feed
	assert.Equal(t, []string{"two\n", "three\n"}, collect(t, a, "\n"))
}

func TestCompactionPreservesPending(t *testing.T) {
	a := New(Options{})
	for i := 0; i < 100; i++ {
		collect(t, a, "0123456789\nab")
		require.Equal(t, "ab", string(a.Pending()))
		a.Reset()
	}
	collect(t, a, "xx\nyy\nzz")
	collect(t, a, "zz\nqq")
	assert.Equal(t, "qq", string(a.Pending()))
	assert.LessOrEqual(t, len(a.buf), 16)
}

func TestResetDropsPending(t *testing.T) {
	a := New(Options{})
	collect(t, a, "partial")
	a.Reset()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, []string{"new\n"}, collect(t, a, "new\n"))
}
