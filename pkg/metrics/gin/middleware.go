package gin

import (
	"strconv"
	"time"

	"github.com/RigelNana/vitalicio/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// PrometheusMiddleware 为 Gin 添加 Prometheus 指标
func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		statusCode := strconv.Itoa(c.Writer.Status())
		metrics.RecordRequest(serviceName, c.Request.Method+" "+route, statusCode, time.Since(start))
	}
}
