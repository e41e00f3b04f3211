package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and both pipelines.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	documentsIngested  *prometheus.CounterVec
	containersExpanded prometheus.Counter
	ocrRuns            prometheus.Counter
	pagesProduced      prometheus.Counter
	placeholdersUsed   prometheus.Counter
	productionDuration prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	documentsIngested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_ingested_total",
		Help: "Documents that reached a terminal ingestion status",
	}, []string{"status"})

	containersExpanded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "containers_expanded_total",
		Help: "Email containers exploded into document families",
	})

	ocrRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ocr_runs_total",
		Help: "OCR recognitions performed",
	})

	pagesProduced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pages_produced_total",
		Help: "Bates-stamped pages written by production jobs",
	})

	placeholdersUsed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placeholders_total",
		Help: "Documents produced as placeholder pages",
	})

	productionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "production_duration_seconds",
		Help:    "Wall-clock duration of production jobs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, documentsIngested, containersExpanded,
		ocrRuns, pagesProduced, placeholdersUsed, productionDuration, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		documentsIngested:  documentsIngested,
		containersExpanded: containersExpanded,
		ocrRuns:            ocrRuns,
		pagesProduced:      pagesProduced,
		placeholdersUsed:   placeholdersUsed,
		productionDuration: productionDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordDocumentIngested counts one terminal ingestion outcome.
func (m *MetricsService) RecordDocumentIngested(status string) {
	if m == nil {
		return
	}
	m.documentsIngested.WithLabelValues(status).Inc()
}

// RecordContainerExpanded counts one email explosion.
func (m *MetricsService) RecordContainerExpanded() {
	if m == nil {
		return
	}
	m.containersExpanded.Inc()
}

// RecordOCRRun counts one recognition pass.
func (m *MetricsService) RecordOCRRun() {
	if m == nil {
		return
	}
	m.ocrRuns.Inc()
}

// RecordPagesProduced counts stamped pages.
func (m *MetricsService) RecordPagesProduced(pages int) {
	if m == nil {
		return
	}
	m.pagesProduced.Add(float64(pages))
}

// RecordPlaceholder counts one degrade-to-placeholder document.
func (m *MetricsService) RecordPlaceholder() {
	if m == nil {
		return
	}
	m.placeholdersUsed.Inc()
}

// ObserveProductionDuration records one finished production job.
func (m *MetricsService) ObserveProductionDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.productionDuration.Observe(duration.Seconds())
}
