package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipe_planner"

// Collectors holds the service's Prometheus metrics on their own registry.
type Collectors struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	queueDepth    prometheus.Gauge
	videoJobs     *prometheus.CounterVec
	externalCalls *prometheus.CounterVec
	externalTime  *prometheus.HistogramVec
}

func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "video_queue_depth",
			Help:      "Video jobs waiting for a worker.",
		}),
		videoJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_jobs_total",
			Help:      "Video jobs by final status.",
		}, []string{"status"}),
		externalCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_calls_total",
			Help:      "Calls to LLM providers and recipe APIs.",
		}, []string{"service"}),
		externalTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_call_duration_seconds",
			Help:      "Latency of calls to LLM providers and recipe APIs.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"service"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests, c.httpDuration, c.queueDepth, c.videoJobs, c.externalCalls, c.externalTime,
	)
	return c
}

// Middleware records request counts and durations per route.
func (c *Collectors) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := ctx.Request.Method
		c.httpRequests.WithLabelValues(path, method, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// QueueDepth and JobFinished make Collectors a video queue observer.
func (c *Collectors) QueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

func (c *Collectors) JobFinished(status string) {
	c.videoJobs.WithLabelValues(status).Inc()
}

func (c *Collectors) externalCall(service string, latency time.Duration) {
	if c == nil {
		return
	}
	c.externalCalls.WithLabelValues(service).Inc()
	c.externalTime.WithLabelValues(service).Observe(latency.Seconds())
}
