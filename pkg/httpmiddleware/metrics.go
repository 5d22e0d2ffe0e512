package httpmiddleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument records request count and latency per route on meter. Install
// it inside the chi router so the matched route is known.
func Instrument(meter metric.Meter) (Middleware, error) {
	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Completed HTTP requests"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "requests counter")
	}
	latency, err := meter.Float64Histogram("http.server.latency",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "latency histogram")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			attrs := metric.WithAttributes(
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.method", r.Method),
				attribute.String("http.status_code", strconv.Itoa(sw.code())),
			)
			requests.Add(r.Context(), 1, attrs)
			latency.Record(r.Context(), time.Since(start).Seconds(), attrs)
		})
	}, nil
}
