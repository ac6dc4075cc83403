package archive

import (
	"context"
	"testing"
	"time"

	"github.com/rzbill/ringlog/internal/device"
	"github.com/rzbill/ringlog/internal/ringlog"
	pebblestore "github.com/rzbill/ringlog/internal/storage/pebble"
)

func openTest(t *testing.T, dir string, max uint64) *Archive {
	t.Helper()
	a, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, MaxEntries: max})
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	return a
}

func TestArchiveReceivesEvictions(t *testing.T) {
	a := openTest(t, t.TempDir(), 0)
	t.Cleanup(func() { _ = a.Close() })

	dev := device.New(2, device.WithReleaseHook(a))
	ctx := context.Background()
	for _, s := range []string{"a\n", "b\n", "c\n", "d\n"} {
		if err := dev.Append(ctx, ringlog.NewRecord([]byte(s))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := dev.Close(ctx); err != nil {
		t.Fatalf("close device: %v", err)
	}

	got, err := a.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []struct{ data, reason string }{
		{"d\n", "drained"}, {"c\n", "drained"}, {"b\n", "evicted"}, {"a\n", "evicted"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, w := range want {
		if string(got[i].Data) != w.data || got[i].Reason != w.reason {
			t.Fatalf("entry %d = %q/%s, want %q/%s", i, got[i].Data, got[i].Reason, w.data, w.reason)
		}
	}
	if got[0].Seq != 4 || got[3].Seq != 1 {
		t.Fatalf("unexpected seqs %d..%d", got[3].Seq, got[0].Seq)
	}
}

func TestArchiveSequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	a := openTest(t, dir, 0)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := a.Put(ctx, "evicted", []byte("x")); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	a2 := openTest(t, dir, 0)
	t.Cleanup(func() { _ = a2.Close() })
	if a2.LastSeq() != 3 {
		t.Fatalf("last seq after reopen = %d", a2.LastSeq())
	}
	seq, err := a2.Put(ctx, "evicted", []byte("y"))
	if err != nil || seq != 4 {
		t.Fatalf("put after reopen = %d, %v", seq, err)
	}
}

func TestArchiveTrimsToMaxEntries(t *testing.T) {
	a := openTest(t, t.TempDir(), 3)
	t.Cleanup(func() { _ = a.Close() })
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		if _, err := a.Put(ctx, "evicted", []byte{byte('0' + i)}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	got, err := a.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || string(got[0].Data) != "6" || string(got[2].Data) != "4" {
		t.Fatalf("unexpected entries after trim: %+v", got)
	}
}

func TestListLimit(t *testing.T) {
	a := openTest(t, t.TempDir(), 0)
	t.Cleanup(func() { _ = a.Close() })
	for i := 0; i < 5; i++ {
		_, _ = a.Put(context.Background(), "evicted", []byte("r"))
	}
	got, err := a.List(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Seq != 5 {
		t.Fatalf("list(2) = %+v", got)
	}
}

func TestEntryEncoding(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	b := encodeEntry("evicted", at, []byte("payload\n"))
	e, err := decodeEntry(9, b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Seq != 9 || e.Reason != "evicted" || !e.ReleasedAt.Equal(at) || string(e.Data) != "payload\n" {
		t.Fatalf("decoded %+v", e)
	}

	b[len(b)-5] ^= 0xff
	if _, err := decodeEntry(9, b); err == nil {
		t.Fatalf("expected crc failure")
	}
	if _, err := decodeEntry(1, []byte{1}); err == nil {
		t.Fatalf("expected short-buffer failure")
	}
}
