package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// WorkflowMetrics counts status transitions, issued certificates, sent
// notifications and PDF renders.
type WorkflowMetrics struct {
	transitions   metric.Int64Counter
	certificates  metric.Int64Counter
	notifications metric.Int64Counter
	renders       metric.Float64Histogram
	renderErrors  metric.Int64Counter
	imports       metric.Int64Counter
}

// NewWorkflowMetrics registers the instruments on meter
func NewWorkflowMetrics(meter metric.Meter) (*WorkflowMetrics, error) {
	var (
		m   WorkflowMetrics
		err error
	)
	if m.transitions, err = meter.Int64Counter("workflow.transitions",
		metric.WithDescription("Approval state transitions"),
		metric.WithUnit("{transition}")); err != nil {
		return nil, err
	}
	if m.certificates, err = meter.Int64Counter("certificates.issued",
		metric.WithDescription("Certificates issued"),
		metric.WithUnit("{certificate}")); err != nil {
		return nil, err
	}
	if m.notifications, err = meter.Int64Counter("notifications.sent",
		metric.WithDescription("Notification emails by outcome"),
		metric.WithUnit("{message}")); err != nil {
		return nil, err
	}
	if m.renders, err = meter.Float64Histogram("certificates.render.duration",
		metric.WithDescription("PDF render latency"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000)); err != nil {
		return nil, err
	}
	if m.renderErrors, err = meter.Int64Counter("certificates.render.errors",
		metric.WithDescription("Failed PDF renders"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if m.imports, err = meter.Int64Counter("attendees.imported",
		metric.WithDescription("Attendee rows imported by outcome"),
		metric.WithUnit("{row}")); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordTransition counts one state change of an aggregate
// ("organisation", "sponsor", "sponsorship_period").
func (m *WorkflowMetrics) RecordTransition(ctx context.Context, aggregate, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("aggregate", aggregate),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordCertificateIssued counts issued certificates for a project
func (m *WorkflowMetrics) RecordCertificateIssued(ctx context.Context, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.certificates.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordNotification counts one notification attempt
func (m *WorkflowMetrics) RecordNotification(ctx context.Context, kind string, ok bool) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("ok", ok),
	))
}

// RecordRender records one PDF render
func (m *WorkflowMetrics) RecordRender(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.renderErrors.Add(ctx, 1)
		return
	}
	m.renders.Record(ctx, float64(d.Microseconds())/1000)
}

// RecordImport counts created and skipped attendee rows
func (m *WorkflowMetrics) RecordImport(ctx context.Context, created, skipped, failed int) {
	if m == nil {
		return
	}
	m.imports.Add(ctx, int64(created), metric.WithAttributes(attribute.String("outcome", "created")))
	m.imports.Add(ctx, int64(skipped), metric.WithAttributes(attribute.String("outcome", "skipped")))
	m.imports.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "failed")))
}
