package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rzbill/ringlog/internal/device"
)

// StatsFunc reports current device state for the observable gauges.
type StatsFunc func(ctx context.Context) (device.Stats, error)

// LogMetrics records device and connection activity. It implements
// device.Observer.
type LogMetrics struct {
	ctx context.Context

	appended metric.Int64Counter
	evicted  metric.Int64Counter
	bytes    metric.Int64Counter
	seeks    metric.Int64Counter
	conns    metric.Int64UpDownCounter
	tcpAttr  metric.MeasurementOption
}

// NewLogMetrics registers the ringlog counters on meter. The live gauges are
// added by ObserveDevice once a device exists.
func NewLogMetrics(ctx context.Context, meter metric.Meter) (*LogMetrics, error) {
	appended, err := meter.Int64Counter("ringlog_records_appended",
		metric.WithDescription("Records appended to the ring"))
	if err != nil {
		return nil, err
	}
	evicted, err := meter.Int64Counter("ringlog_records_evicted",
		metric.WithDescription("Records displaced from a full ring"))
	if err != nil {
		return nil, err
	}
	bytes, err := meter.Int64Counter("ringlog_bytes_appended",
		metric.WithDescription("Bytes appended to the ring"))
	if err != nil {
		return nil, err
	}
	seeks, err := meter.Int64Counter("ringlog_seeks",
		metric.WithDescription("Successful seek-to-record requests"))
	if err != nil {
		return nil, err
	}
	conns, err := meter.Int64UpDownCounter("ringlog_connections_active",
		metric.WithDescription("Open stream connections"))
	if err != nil {
		return nil, err
	}

	return &LogMetrics{
		ctx:      ctx,
		appended: appended,
		evicted:  evicted,
		bytes:    bytes,
		seeks:    seeks,
		conns:    conns,
		tcpAttr:  metric.WithAttributeSet(attribute.NewSet(attribute.String("transport", "tcp"))),
	}, nil
}

func (m *LogMetrics) RecordAppended(size int) {
	m.appended.Add(m.ctx, 1)
	m.bytes.Add(m.ctx, int64(size))
}

func (m *LogMetrics) RecordEvicted(int) { m.evicted.Add(m.ctx, 1) }

func (m *LogMetrics) SeekResolved() { m.seeks.Add(m.ctx, 1) }

// ConnOpened and ConnClosed track active TCP connections.
func (m *LogMetrics) ConnOpened() { m.conns.Add(m.ctx, 1, m.tcpAttr) }
func (m *LogMetrics) ConnClosed() { m.conns.Add(m.ctx, -1, m.tcpAttr) }

// ObserveDevice registers the live record and byte gauges on meter, read
// from stats at collection time.
func (m *LogMetrics) ObserveDevice(meter metric.Meter, stats StatsFunc) error {
	liveRecords, err := meter.Int64ObservableGauge("ringlog_live_records",
		metric.WithDescription("Records currently held by the ring"))
	if err != nil {
		return err
	}
	liveBytes, err := meter.Int64ObservableGauge("ringlog_live_bytes",
		metric.WithDescription("Total size of live records"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		st, err := stats(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(liveRecords, int64(st.Len))
		o.ObserveInt64(liveBytes, st.Bytes)
		return nil
	}, liveRecords, liveBytes)
	return err
}

// StoreMetrics observes archive storage latency. It implements
// pebblestore.MetricsHook.
type StoreMetrics struct {
	ctx     context.Context
	commits metric.Float64Histogram
	reads   metric.Float64Histogram
	written metric.Int64Counter
}

// NewStoreMetrics registers the archive storage instruments on meter.
func NewStoreMetrics(ctx context.Context, meter metric.Meter) (*StoreMetrics, error) {
	commits, err := meter.Float64Histogram("ringlog_archive_commit_seconds",
		metric.WithDescription("Archive batch commit latency"))
	if err != nil {
		return nil, err
	}
	reads, err := meter.Float64Histogram("ringlog_archive_read_seconds",
		metric.WithDescription("Archive read latency"))
	if err != nil {
		return nil, err
	}
	written, err := meter.Int64Counter("ringlog_archive_bytes_written",
		metric.WithDescription("Bytes committed to the archive"))
	if err != nil {
		return nil, err
	}
	return &StoreMetrics{ctx: ctx, commits: commits, reads: reads, written: written}, nil
}

func (m *StoreMetrics) ObserveRead(elapsed time.Duration, _ int) {
	m.reads.Record(m.ctx, elapsed.Seconds())
}

func (m *StoreMetrics) ObserveBatchCommit(elapsed time.Duration, _ int, bytes int) {
	m.commits.Record(m.ctx, elapsed.Seconds())
	m.written.Add(m.ctx, int64(bytes))
}
