package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 未匹配任何路由的请求统一归到一个标签，避免路径爆炸。
const unmatchedRoute = "unmatched"

var (
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "soumispace",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时（秒），按路由模板区分。",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "soumispace",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求总数。",
		},
		[]string{"method", "route", "status"},
	)

	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "soumispace",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "正在处理的 HTTP 请求数。",
		},
	)
)

// GinMiddleware 采集请求计数与耗时。升级成功的 WebSocket 连接记为 101，只计数不计耗时。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		if c.IsWebsocket() && status == http.StatusOK {
			status = http.StatusSwitchingProtocols
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		if status != http.StatusSwitchingProtocols {
			httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}
	}
}
