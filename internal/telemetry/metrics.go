package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	Submissions       metric.Int64Counter
	ResponseEmails    metric.Int64Counter
	RateLimitRejects  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("executive-portfolio-api")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	submissions, err := meter.Int64Counter(
		"messages.submissions.total",
		metric.WithDescription("Total contact message submissions"),
	)
	if err != nil {
		return nil, err
	}

	responseEmails, err := meter.Int64Counter(
		"messages.response_emails.total",
		metric.WithDescription("Total response e-mails dispatched"),
	)
	if err != nil {
		return nil, err
	}

	rateLimitRejects, err := meter.Int64Counter(
		"messages.rate_limit_rejects.total",
		metric.WithDescription("Submissions rejected by the rate limiter"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:   requestCounter,
		RequestDuration:  requestDuration,
		Submissions:      submissions,
		ResponseEmails:   responseEmails,
		RateLimitRejects: rateLimitRejects,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordSubmission records a message submission outcome
func (m *Metrics) RecordSubmission(outcome string) {
	m.Submissions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordResponseEmail records a response e-mail delivery attempt
func (m *Metrics) RecordResponseEmail(success bool) {
	m.ResponseEmails.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordRateLimitReject records a submission turned away by the limiter
func (m *Metrics) RecordRateLimitReject() {
	m.RateLimitRejects.Add(context.Background(), 1)
}
