package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter   metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	ChunksIngested   metric.Int64Counter
	IngestDuration   metric.Float64Histogram
	RetrievedChunks  metric.Int64Histogram
	LLMCalls         metric.Int64Counter
	LLMCallDuration  metric.Float64Histogram
	VectorStoreCalls metric.Int64Counter
}

// InitMetrics creates the application metrics on the global meter provider.
// Call it after InitMeterProvider.
func InitMetrics() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider())
}

// NewMetrics creates the application metrics on provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(ServiceName)

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

	chunksIngested, err := meter.Int64Counter(
		"ingest.chunks.total",
		metric.WithDescription("Total chunks written to vector collections"),
	)
	if err != nil {
		return nil, err
	}

	ingestDuration, err := meter.Float64Histogram(
		"ingest.duration",
		metric.WithDescription("Document ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	retrievedChunks, err := meter.Int64Histogram(
		"retrieve.results",
		metric.WithDescription("Chunks returned per retrieval"),
	)
	if err != nil {
		return nil, err
	}

	llmCalls, err := meter.Int64Counter(
		"llm.calls.total",
		metric.WithDescription("Total chat completion calls"),
	)
	if err != nil {
		return nil, err
	}

	llmCallDuration, err := meter.Float64Histogram(
		"llm.call.duration",
		metric.WithDescription("Chat completion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	vectorStoreCalls, err := meter.Int64Counter(
		"vectorstore.operations.total",
		metric.WithDescription("Total vector store operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:   requestCounter,
		RequestDuration:  requestDuration,
		ChunksIngested:   chunksIngested,
		IngestDuration:   ingestDuration,
		RetrievedChunks:  retrievedChunks,
		LLMCalls:         llmCalls,
		LLMCallDuration:  llmCallDuration,
		VectorStoreCalls: vectorStoreCalls,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngest records a finished ingestion.
func (m *Metrics) RecordIngest(ctx context.Context, fileType string, chunks int, duration float64, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("ingest.file_type", fileType),
		attribute.Bool("ingest.success", success),
	)
	m.ChunksIngested.Add(ctx, int64(chunks), attrs)
	m.IngestDuration.Record(ctx, duration, attrs)
}

// RecordRetrieval records how many chunks a search returned.
func (m *Metrics) RecordRetrieval(ctx context.Context, searchType string, results int) {
	if m == nil {
		return
	}
	m.RetrievedChunks.Record(ctx, int64(results), metric.WithAttributes(
		attribute.String("retrieve.search_type", searchType),
	))
}

// RecordLLMCall records chat completion metrics
func (m *Metrics) RecordLLMCall(ctx context.Context, model string, duration float64, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Bool("llm.success", success),
	)
	m.LLMCalls.Add(ctx, 1, attrs)
	m.LLMCallDuration.Record(ctx, duration, attrs)
}

// RecordVectorStoreOperation records vector store operation metrics
func (m *Metrics) RecordVectorStoreOperation(ctx context.Context, operation, backend string, success bool) {
	if m == nil {
		return
	}
	m.VectorStoreCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("vectorstore.operation", operation),
		attribute.String("vectorstore.backend", backend),
		attribute.Bool("vectorstore.success", success),
	))
}
