package httpapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/mesh-intelligence/dayplan/internal/httpapi"
	requestSpanName = "http.request"
	requestLogMsg   = "http.request"
)

type requestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time
	method string
	route  string
	userID string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		),
	)
	return &requestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
		method: method,
		route:  route,
	}, ctx
}

func (m *requestMetrics) SetUser(userID string) {
	m.userID = userID
}

// Finish ends the span and writes the request log entry.
func (m *requestMetrics) Finish(status int, err error) {
	if m == nil {
		return
	}
	total := durationToMillis(time.Since(m.start))

	if m.span != nil {
		m.span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Float64("dayplan.http.total_ms", total),
		)
		if m.userID != "" {
			m.span.SetAttributes(attribute.String("enduser.id", m.userID))
		}
		if status >= 500 {
			msg := "server error"
			if err != nil {
				msg = err.Error()
				m.span.RecordError(err)
			}
			m.span.SetStatus(codes.Error, msg)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"method":   m.method,
		"route":    m.route,
		"status":   status,
		"total_ms": total,
	}
	if m.userID != "" {
		fields["user_id"] = m.userID
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}

	entry := m.logger.WithFields(fields)
	switch {
	case status >= 500:
		entry.Error(requestLogMsg)
	case status >= 400:
		entry.Warn(requestLogMsg)
	default:
		entry.Info(requestLogMsg)
	}
}

// requestLogger traces and logs every request once the response is written.
func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			metrics, ctx := newRequestMetrics(req.Context(), logger, req.Method, c.Path())
			c.SetRequest(req.WithContext(ctx))
			c.Set(metricsKey, metrics)

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			metrics.Finish(c.Response().Status, err)
			return nil
		}
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
