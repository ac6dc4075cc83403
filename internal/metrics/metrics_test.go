package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/ringlog/internal/device"
	"github.com/rzbill/ringlog/internal/ringlog"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Server.Handler)
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL + m.Endpoint)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestDeviceObserverExported(t *testing.T) {
	ctx := context.Background()
	m, err := NewServer(":0", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.provider.Shutdown(ctx) })
	assert.Equal(t, "/metrics", m.Endpoint)

	lm, err := NewLogMetrics(ctx, m.Meter)
	require.NoError(t, err)
	dev := device.New(2, device.WithObserver(lm))
	require.NoError(t, lm.ObserveDevice(m.Meter, dev.Stats))

	for _, s := range []string{"a\n", "bb\n", "ccc\n"} {
		require.NoError(t, dev.Append(ctx, ringlog.NewRecord([]byte(s))))
	}
	_, err = dev.Seek(ctx, 1, 0)
	require.NoError(t, err)
	lm.ConnOpened()

	body := scrape(t, m)
	for _, want := range []string{
		"ringlog_records_appended_total",
		"ringlog_records_evicted_total",
		"ringlog_bytes_appended_total",
		"ringlog_seeks_total",
		"ringlog_connections_active",
		"ringlog_live_records",
		"ringlog_live_bytes",
	} {
		assert.Contains(t, body, want)
	}
	assert.True(t, hasSample(body, "ringlog_records_appended_total", "3"), body)
	assert.True(t, hasSample(body, "ringlog_live_bytes", "7"), body)
	assert.Contains(t, body, `transport="tcp"`)
}

func TestStoreMetricsExported(t *testing.T) {
	ctx := context.Background()
	m, err := NewServer(":0", "/m")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.provider.Shutdown(ctx) })

	sm, err := NewStoreMetrics(ctx, m.Meter)
	require.NoError(t, err)
	sm.ObserveBatchCommit(3*time.Millisecond, 1, 64)
	sm.ObserveRead(time.Millisecond, 10)

	body := scrape(t, m)
	assert.Contains(t, body, "ringlog_archive_commit_seconds")
	assert.Contains(t, body, "ringlog_archive_read_seconds")
	assert.True(t, hasSample(body, "ringlog_archive_bytes_written_total", "64"), body)
}

// hasSample reports whether a sample line for name ends with value.
func hasSample(body, name, value string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, name+"{") || strings.HasPrefix(line, name+" ") {
			fields := strings.Fields(line)
			if fields[len(fields)-1] == value {
				return true
			}
		}
	}
	return false
}
