package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/taskflow/observability"
)

// Telemetry returns a Gin middleware that wraps each request in a span and,
// when metrics is non-nil, records request count and latency by route
// template. Unmatched requests are labeled "unmatched".
func Telemetry(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanHTTPRequest)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		observability.SetSpanAttribute(ctx, "http.route", route)
		observability.SetSpanAttribute(ctx, observability.AttrStatus, status)
		observability.SetSpanAttribute(ctx, observability.AttrRequestID, RequestIDFrom(ctx))
		if metrics != nil {
			metrics.RecordRequest(ctx, c.Request.Method, route, status, time.Since(start))
		}
	}
}
