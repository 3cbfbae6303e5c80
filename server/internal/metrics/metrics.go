// Package metrics содержит Prometheus метрики сервера.
// Регистрирует метрики: slidedeck_http_requests_total, slidedeck_http_request_duration_seconds,
// slidedeck_generations_total, slidedeck_generation_duration_seconds,
// slidedeck_version_conflicts_total, slidedeck_review_transitions_total.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slidedeck"

// Результаты генерации файла.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics хранит коллекторы сервера. Нулевой указатель допустим:
// все методы ничего не делают, что удобно в тестах.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	generations       *prometheus.CounterVec
	generationSeconds prometheus.Histogram
	versionConflicts  prometheus.Counter
	reviewTransitions *prometheus.CounterVec
}

// New создает собственный реестр и регистрирует в нем все метрики.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		// httpRequests - общее количество HTTP-запросов.
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Общее количество HTTP-запросов",
			},
			[]string{"method", "path", "status"},
		),
		// httpDuration - гистограмма длительности HTTP-запросов.
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Длительность HTTP-запросов в секундах",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Количество генераций PPTX по результату",
			},
			[]string{"result"},
		),
		generationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Длительность генерации PPTX в секундах",
				Buckets:   prometheus.DefBuckets,
			},
		),
		versionConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "version_conflicts_total",
				Help:      "Количество конфликтов при выделении номера версии",
			},
		),
		reviewTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "review_transitions_total",
				Help:      "Переходы состояния проверки презентаций",
			},
			[]string{"to"},
		),
	}
}

// Registry возвращает реестр метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler возвращает HTTP обработчик для /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest записывает завершенный HTTP-запрос.
func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveGeneration записывает результат и длительность генерации.
func (m *Metrics) ObserveGeneration(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.generations.WithLabelValues(result).Inc()
	m.generationSeconds.Observe(d.Seconds())
}

// IncVersionConflict увеличивает счетчик конфликтов версий.
func (m *Metrics) IncVersionConflict() {
	if m == nil {
		return
	}
	m.versionConflicts.Inc()
}

// IncReviewTransition считает переход в состояние to.
func (m *Metrics) IncReviewTransition(to string) {
	if m == nil {
		return
	}
	m.reviewTransitions.WithLabelValues(to).Inc()
}
