package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fonsecaaso/tinylinks/go-server/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for each request
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		requestSize := computeApproximateRequestSize(c.Request)

		c.Next()

		// route pattern keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		responseSize := int64(c.Writer.Size())
		if responseSize < 0 {
			responseSize = 0
		}

		metrics.RecordHTTPMetrics(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
			requestSize,
			responseSize,
		)
	}
}

// computeApproximateRequestSize calculates approximate request size
func computeApproximateRequestSize(r *http.Request) int64 {
	s := int64(0)

	if r.ContentLength > 0 {
		s += r.ContentLength
	}

	s += int64(len(r.Method))
	s += int64(len(r.URL.String()))
	s += int64(len(r.Header) * 50) // rough estimate: 50 bytes per header

	return s
}
