package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/rzbill/ringlog/internal/config"
	"github.com/rzbill/ringlog/internal/ringlog"
	"github.com/rzbill/ringlog/internal/runtime"
)

func openRuntime(t *testing.T, mutate func(*cfgpkg.Config)) *runtime.Runtime {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Capacity = 3
	cfg.Log.Level = "error"
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := runtime.Open(runtime.Options{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, r))
	return w
}

func seed(t *testing.T, rt *runtime.Runtime, lines ...string) {
	t.Helper()
	for _, l := range lines {
		require.NoError(t, rt.Device().Append(context.Background(), ringlog.NewRecord([]byte(l))))
	}
}

func TestHealthHandler(t *testing.T) {
	rt := openRuntime(t, nil)
	h := New(rt).Handler()

	w := do(t, h, http.MethodGet, "/v1/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	require.NoError(t, rt.Close(context.Background()))
	w = do(t, h, http.MethodGet, "/v1/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWriteThenRead(t *testing.T) {
	rt := openRuntime(t, nil)
	h := New(rt).Handler()

	w := do(t, h, http.MethodPost, "/v1/log/write", "alpha\nbeta\npartial")
	require.Equal(t, http.StatusOK, w.Code)
	var wr writeRespJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wr))
	assert.Equal(t, 2, wr.Records)
	assert.Equal(t, 7, wr.PendingBytes)

	w = do(t, h, http.MethodGet, "/v1/log/read", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alpha\nbeta\n", w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/log/read?offset=6&limit=2", "")
	assert.Equal(t, "be", w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/log/read?offset=11", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/log/read?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type writeRespJSON struct {
	Records      int `json:"records"`
	PendingBytes int `json:"pending_bytes"`
}

func TestWriteRejectsOversizedRecord(t *testing.T) {
	rt := openRuntime(t, func(c *cfgpkg.Config) { c.MaxRecordBytes = 4 })
	h := New(rt).Handler()

	w := do(t, h, http.MethodPost, "/v1/log/write", "ok\ntoo long\n")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	size, err := rt.Device().Size(context.Background())
	require.NoError(t, err)
	assert.Zero(t, size)

	w = do(t, h, http.MethodGet, "/v1/log/write", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSeekHandler(t *testing.T) {
	rt := openRuntime(t, nil)
	seed(t, rt, "aaa\n", "bb\n", "c\n")
	h := New(rt).Handler()

	w := do(t, h, http.MethodGet, "/v1/log/seek?record=1&offset=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"record":1,"offset":2,"abs":6}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/log/seek?record=3&offset=0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/log/seek?record=0&offset=4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/log/seek?record=x&offset=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordsAndStatsAfterWrap(t *testing.T) {
	rt := openRuntime(t, nil)
	seed(t, rt, "one\n", "two\n", "three\n", "four\n")
	h := New(rt).Handler()

	w := do(t, h, http.MethodGet, "/v1/log/records", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Records []recordJSONResp `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Records, 3)
	assert.Equal(t, "two\n", list.Records[0].Text)
	assert.Equal(t, uint64(2), list.Records[0].Seq)
	assert.Equal(t, int64(4), list.Records[1].Offset)

	w = do(t, h, http.MethodGet, `/v1/log/records?filter=text.startsWith(%22f%22)`, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Records, 1)
	assert.Equal(t, "four\n", list.Records[0].Text)

	w = do(t, h, http.MethodGet, "/v1/log/records?filter=size", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/v1/log/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, float64(3), st["records"])
	assert.Equal(t, true, st["full"])
	assert.Equal(t, float64(4), st["appended"])
	assert.Equal(t, float64(1), st["evicted"])
	assert.Equal(t, float64(15), st["bytes"])
}

type recordJSONResp struct {
	Seq    uint64 `json:"seq"`
	Index  int    `json:"index"`
	Offset int64  `json:"offset"`
	Text   string `json:"text"`
}

func TestArchiveHandler(t *testing.T) {
	rt := openRuntime(t, nil)
	h := New(rt).Handler()
	w := do(t, h, http.MethodGet, "/v1/archive", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	dir := t.TempDir()
	rt = openRuntime(t, func(c *cfgpkg.Config) {
		c.Capacity = 1
		c.Archive = cfgpkg.ArchiveConfig{Enabled: true, DataDir: dir, Fsync: "always"}
	})
	seed(t, rt, "old\n", "new\n")
	h = New(rt).Handler()
	w = do(t, h, http.MethodGet, "/v1/archive", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Entries []struct {
			Reason string `json:"reason"`
			Text   string `json:"text"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "evicted", out.Entries[0].Reason)
	assert.Equal(t, "old\n", out.Entries[0].Text)
}

func TestTailStreamsNewRecords(t *testing.T) {
	rt := openRuntime(t, nil)
	seed(t, rt, "before\n")
	ts := httptest.NewServer(New(rt).Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/log/tail?from=earliest", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	next := func() recordJSONResp {
		t.Helper()
		for sc.Scan() {
			line := sc.Text()
			if strings.HasPrefix(line, "data: ") {
				var rec recordJSONResp
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &rec))
				return rec
			}
		}
		t.Fatalf("stream ended: %v", sc.Err())
		return recordJSONResp{}
	}

	assert.Equal(t, "before\n", next().Text)
	seed(t, rt, "after\n")
	got := next()
	assert.Equal(t, "after\n", got.Text)
	assert.Equal(t, uint64(2), got.Seq)
}

func TestCORSPreflight(t *testing.T) {
	rt := openRuntime(t, nil)
	w := do(t, New(rt).Handler(), http.MethodOptions, "/v1/log/stats", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
