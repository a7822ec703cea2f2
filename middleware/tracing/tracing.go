package tracing

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jaxron/httpism/pkg/client/logger"
	"github.com/jaxron/httpism/pkg/client/message"
	"github.com/jaxron/httpism/pkg/client/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jaxron/httpism/middleware/tracing"

// TracingMiddleware records a client span for every request passing through it
// and injects the trace context into the outgoing headers.
type TracingMiddleware struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	logger     logger.Logger
}

// Option configures a TracingMiddleware.
type Option func(*TracingMiddleware)

// WithTracerProvider sets the provider spans are created from. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *TracingMiddleware) {
		m.tracer = tp.Tracer(instrumentationName)
	}
}

// WithPropagator sets the propagator used to inject headers. Defaults to the global propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(m *TracingMiddleware) {
		m.propagator = p
	}
}

// New creates a new TracingMiddleware instance.
func New(opts ...Option) *TracingMiddleware {
	m := &TracingMiddleware{
		tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
		propagator: otel.GetTextMapPropagator(),
		logger:     &logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Process starts a span, injects its context into the request headers and ends it
// once the rest of the pipeline returns.
func (m *TracingMiddleware) Process(ctx context.Context, req *message.Request, next middleware.NextFunc, _ middleware.Sender) (middleware.Result, error) {
	ctx, span := m.tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL),
		),
	)
	defer span.End()

	m.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := next(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	if resp := res.Response(); resp != nil {
		span.SetAttributes(
			attribute.Int("http.response.status_code", resp.StatusCode),
			attribute.Bool("http.redirected", res.IsRedirected()),
		)
		if resp.StatusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, strconv.Itoa(resp.StatusCode))
		}
	}

	m.logger.WithFields(logger.String("trace_id", span.SpanContext().TraceID().String())).Debug("Traced request")
	return res, nil
}

// SetLogger sets the logger for the middleware.
func (m *TracingMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
