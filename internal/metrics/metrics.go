package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "report_bridge"

// Recorder collects executor and HTTP metrics on its own registry.
type Recorder struct {
	registry   *prometheus.Registry
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       prometheus.Histogram
	requests   *prometheus.HistogramVec
}

// NewRecorder registers the collectors on registry. A nil registry gets a fresh one
// with the Go runtime and process collectors.
func NewRecorder(registry *prometheus.Registry) (*Recorder, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r := &Recorder{
		registry: registry,
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "SQL template executions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Duration of SQL template executions.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"outcome"}),
		rows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rows_returned",
			Help:      "Rows returned by successful executions.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 6),
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.01, 0.1, 0.3, 1.2, 5},
		}, []string{"path", "method", "status"}),
	}

	for _, c := range []prometheus.Collector{r.executions, r.duration, r.rows, r.requests} {
		if err := register(registry, c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// register tolerates collectors that are already registered.
func register(registry *prometheus.Registry, c prometheus.Collector) error {
	if err := registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// Observe records one template execution.
func (r *Recorder) Observe(outcome string, d time.Duration, rows int) {
	r.executions.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(d.Seconds())
	if outcome == "succeeded" {
		r.rows.Observe(float64(rows))
	}
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware records request durations labelled with the echo route pattern.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			if status < 100 || status > 599 {
				status = http.StatusInternalServerError
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			r.requests.WithLabelValues(path, c.Request().Method, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
