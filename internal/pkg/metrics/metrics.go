// Package metrics 定义网关暴露给 prometheus 的指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 聚合网关的入站和出站指标
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	BackendRequests     *prometheus.CounterVec
	BackendDuration     *prometheus.HistogramVec
}

// New 创建指标并注册到 reg。传入 prometheus.NewRegistry() 可以让测试互不干扰。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Inbound requests handled by the gateway.",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Latency of inbound requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_backend_requests_total",
			Help: "Outbound calls to backend services by outcome.",
		}, []string{"backend", "method", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_backend_request_duration_seconds",
			Help:    "Latency of outbound backend calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPRequestDuration, m.BackendRequests, m.BackendDuration)
	return m
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveBackend(backend, method, outcome string, elapsed time.Duration) {
	m.BackendRequests.WithLabelValues(backend, method, outcome).Inc()
	m.BackendDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}
