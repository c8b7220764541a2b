package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NoError(t, tp.EnableSpanProfiles())
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.False(t, lp.ZapCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestNewProfiler(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("enabled without address", func(t *testing.T) {
		_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "app"}, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("enabled without application name", func(t *testing.T) {
		_, err := NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestLevelFilterCore(t *testing.T) {
	inner := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&discard{}), zapcore.DebugLevel)
	c := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	assert.False(t, c.Enabled(zapcore.InfoLevel))
	assert.True(t, c.Enabled(zapcore.WarnLevel))
	assert.Nil(t, c.Check(zapcore.Entry{Level: zapcore.DebugLevel}, nil))
	assert.NotNil(t, c.Check(zapcore.Entry{Level: zapcore.ErrorLevel}, nil))

	with, ok := c.With([]zapcore.Field{zap.String("k", "v")}).(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, with.minLevel)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestWorkflowMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewWorkflowMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransition(ctx, "organisation", "pending", "approved")
	m.RecordTransition(ctx, "organisation", "approved", "rejected")
	m.RecordCertificateIssued(ctx, "attendee", 3)
	m.RecordCertificateIssued(ctx, "attendee", 0)
	m.RecordNotification(ctx, "status_changed", true)
	m.RecordNotification(ctx, "status_changed", false)
	m.RecordRender(ctx, 120*time.Millisecond, nil)
	m.RecordRender(ctx, 0, errors.New("boom"))
	m.RecordImport(ctx, 2, 1, 0)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		byName[metric.Name] = metric
	}

	assert.Equal(t, int64(2), sumOf(t, byName["workflow.transitions"]))
	assert.Equal(t, int64(3), sumOf(t, byName["certificates.issued"]))
	assert.Equal(t, int64(2), sumOf(t, byName["notifications.sent"]))
	assert.Equal(t, int64(1), sumOf(t, byName["certificates.render.errors"]))
	assert.Equal(t, int64(3), sumOf(t, byName["attendees.imported"]))

	hist, ok := byName["certificates.render.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 120.0, hist.DataPoints[0].Sum, 0.001)
}

func TestWorkflowMetrics_NilSafe(t *testing.T) {
	var m *WorkflowMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordTransition(ctx, "organisation", "pending", "approved")
		m.RecordCertificateIssued(ctx, "attendee", 1)
		m.RecordNotification(ctx, "x", true)
		m.RecordRender(ctx, time.Second, nil)
		m.RecordImport(ctx, 1, 1, 1)
	})
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %q is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}
