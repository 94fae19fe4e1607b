package dispatcher

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// トークンごとの送信結果の分類。
const (
	outcomeDelivered      = "delivered"
	outcomeRejected       = "rejected"
	outcomeTransportError = "transport_error"
)

// Metrics はディスパッチャのPrometheusメトリクス。
// サーバーごとに専用のレジストリを持つ。
type Metrics struct {
	registry *prometheus.Registry

	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	recipients prometheus.Histogram
	sends      *prometheus.CounterVec
	requests   *prometheus.CounterVec
}

// NewMetrics はメトリクスを生成し、専用のレジストリに登録する。
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pushrelay_dispatches_total",
				Help: "Total number of dispatch invocations",
			},
			[]string{"mode", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pushrelay_dispatch_duration_seconds",
				Help:    "Duration of dispatch invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		recipients: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pushrelay_dispatch_recipients",
				Help:    "Number of resolved recipients per dispatch",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		sends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pushrelay_gateway_sends_total",
				Help: "Total number of per-token gateway sends by outcome",
			},
			[]string{"outcome"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pushrelay_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

// observeDispatch は1回の送信処理の結果を記録する。
func (m *Metrics) observeDispatch(mode string, err error, elapsed time.Duration) {
	code := "ok"
	if err != nil {
		code = string(apperror.CodeOf(err))
		if code == "" {
			code = "UNKNOWN"
		}
	}
	m.dispatches.WithLabelValues(mode, code).Inc()
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// Middleware はHTTPリクエスト数を記録するGinミドルウェアを返す。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler はメトリクスを公開するHTTPハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
