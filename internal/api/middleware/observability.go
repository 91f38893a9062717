package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
)

// ObservabilityMiddleware traces each request and records its duration. The
// span is renamed to the matched route pattern once the mux has run, so
// /api/lots/1/price and /api/lots/2/price share one series.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := observability.StartSpan(r.Context(), "HTTP "+r.Method)
			defer span.End()

			rec := &statusRecorder{ResponseWriter: w}
			req := r.WithContext(ctx)
			next.ServeHTTP(rec, req)

			route := req.Pattern
			if route == "" {
				route = r.Method + " " + r.URL.Path
			}
			status := rec.Status()

			span.SetName(route)
			observability.SetSpanAttributes(span,
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("url.path", r.URL.Path),
				attribute.String("user_agent.original", r.UserAgent()),
				attribute.Int("http.response.status_code", status),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			observability.RecordRequestMetric(ctx, metrics, r.Method, route, status, time.Since(start))
		})
	}
}
