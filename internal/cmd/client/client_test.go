package client

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/rzbill/ringlog/internal/config"
	"github.com/rzbill/ringlog/internal/runtime"
	grpcserver "github.com/rzbill/ringlog/internal/server/grpc"
	httpserver "github.com/rzbill/ringlog/internal/server/http"
	tcpserver "github.com/rzbill/ringlog/internal/server/tcp"
)

func openRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Capacity = 3
	rt, err := runtime.Open(runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

func startHTTP(t *testing.T, rt *runtime.Runtime) BaseURLFunc {
	t.Helper()
	ts := httptest.NewServer(httpserver.New(rt).Handler())
	t.Cleanup(ts.Close)
	return func() string { return ts.URL }
}

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestLogWriteReadSeek(t *testing.T) {
	rt := openRuntime(t)
	base := startHTTP(t, rt)

	out, err := run(t, NewRoot(base), "", "log", "write", "alpha")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(out, "records: 1 pending_bytes: 0") {
		t.Fatalf("write output: %q", out)
	}
	if _, err := run(t, NewRoot(base), "beta\ngam", "log", "write"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}

	out, err = run(t, NewRoot(base), "", "log", "read")
	if err != nil || out != "alpha\nbeta\n" {
		t.Fatalf("read: %q %v", out, err)
	}
	out, err = run(t, NewRoot(base), "", "log", "read", "--offset", "6", "--limit", "2")
	if err != nil || out != "be" {
		t.Fatalf("read range: %q %v", out, err)
	}

	out, err = run(t, NewRoot(base), "", "log", "seek", "--record", "1", "--offset", "1")
	if err != nil || strings.TrimSpace(out) != "7" {
		t.Fatalf("seek: %q %v", out, err)
	}
	if _, err := run(t, NewRoot(base), "", "log", "seek", "--record", "5"); err == nil {
		t.Fatalf("expected seek error")
	}
}

func TestLogRecordsStatsAndTail(t *testing.T) {
	rt := openRuntime(t)
	base := startHTTP(t, rt)
	for _, l := range []string{"one", "two", "three", "four"} {
		if _, err := run(t, NewRoot(base), "", "log", "write", l); err != nil {
			t.Fatalf("write %s: %v", l, err)
		}
	}

	out, err := run(t, NewRoot(base), "", "log", "records")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 || !strings.HasPrefix(lines[0], "0\t0\t4\t\"two\\n\"") {
		t.Fatalf("records output: %q", out)
	}

	out, err = run(t, NewRoot(base), "", "log", "stats")
	if err != nil || !strings.Contains(out, `"evicted": 1`) {
		t.Fatalf("stats: %q %v", out, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tail := NewRoot(base)
	tail.SetContext(ctx)
	out, err = run(t, tail, "", "log", "tail", "--from", "earliest", "--filter", `text.startsWith("t")`, "--limit", "2")
	if err != nil || out != "two\nthree\n" {
		t.Fatalf("tail: %q %v", out, err)
	}

	if _, err := run(t, NewRoot(base), "", "log", "tail", "--from", "yesterday"); err == nil {
		t.Fatalf("expected invalid --from error")
	}
	if _, err := run(t, NewRoot(base), "", "archive"); err == nil {
		t.Fatalf("expected error with archive disabled")
	}
}

func TestSendOverSocket(t *testing.T) {
	rt := openRuntime(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := tcpserver.New(rt.Device(), tcpserver.Options{})
	go func() { _ = srv.Serve(ctx, l) }()
	addr := l.Addr().String()

	out, err := run(t, NewRoot(nil), "", "send", "--addr", addr, "--wait", "200ms", "hello")
	if err != nil || out != "hello\n" {
		t.Fatalf("send: %q %v", out, err)
	}
	out, err = run(t, NewRoot(nil), "", "send", "--addr", addr, "--wait", "200ms", "world")
	if err != nil || out != "hello\nworld\n" {
		t.Fatalf("send 2: %q %v", out, err)
	}
	out, err = run(t, NewRoot(nil), "", "send", "--addr", addr, "--wait", "200ms", "--seek", "1,2")
	if err != nil || out != "rld\n" {
		t.Fatalf("seek: %q %v", out, err)
	}
}

func TestHealthOverGRPC(t *testing.T) {
	rt := openRuntime(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := grpcserver.New(rt)
	go func() { _ = srv.Serve(ctx, l) }()
	t.Setenv("RINGLOG_GRPC", l.Addr().String())

	out, err := run(t, NewRoot(nil), "", "health")
	if err != nil || strings.TrimSpace(out) != "SERVING" {
		t.Fatalf("health: %q %v", out, err)
	}
}
