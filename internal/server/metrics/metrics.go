// Package metrics holds the Prometheus collectors of fitsync-server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fitsync_server"

// Metrics коллекторы сервера. Регистрируются в переданном registry, а не в
// глобальном.
type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	collectionReads *prometheus.CounterVec
	collectionWrite *prometheus.CounterVec
	itemsWritten    *prometheus.CounterVec
}

// New создает коллекторы и регистрирует их в reg
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		collectionReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collections",
			Name:      "reads_total",
			Help:      "Number of whole-collection reads.",
		}, []string{"collection"}),
		collectionWrite: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collections",
			Name:      "writes_total",
			Help:      "Number of whole-collection replacements.",
		}, []string{"collection"}),
		itemsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collections",
			Name:      "items_written_total",
			Help:      "Number of items stored by collection replacements.",
		}, []string{"collection"}),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.collectionReads, m.collectionWrite, m.itemsWritten)
	return m
}

// ObserveRequest учитывает один HTTP запрос. route шаблон маршрута, а не путь,
// чтобы не плодить серии.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// CollectionRead учитывает чтение коллекции
func (m *Metrics) CollectionRead(collection string) {
	if m == nil {
		return
	}
	m.collectionReads.WithLabelValues(collection).Inc()
}

// CollectionWritten учитывает замену коллекции из n элементов
func (m *Metrics) CollectionWritten(collection string, n int) {
	if m == nil {
		return
	}
	m.collectionWrite.WithLabelValues(collection).Inc()
	m.itemsWritten.WithLabelValues(collection).Add(float64(n))
}

// Handler отдает метрики в формате Prometheus (/metrics)
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
