package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Metrics представляет систему метрик клиента
type Metrics struct {
	// Запросы к бэкенду
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsCount     *prometheus.CounterVec

	// Размер зеркал коллекций
	MirrorSize *prometheus.GaugeVec

	// OpenTelemetry Tracer
	Tracer trace.Tracer `json:"-"`

	gatherer prometheus.Gatherer
}

// NewMetrics создает новую систему метрик.
// Если reg равен nil, используется глобальный реестр Prometheus.
func NewMetrics(serviceName string, reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer = reg
		gatherer = reg
	}

	namespace := strings.ReplaceAll(serviceName, "-", "_")

	requestCount := register(registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of backend requests",
		},
		[]string{"method", "endpoint", "status"},
	))

	requestDuration := register(registerer, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	))

	errorsCount := register(registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "errors_total",
			Help:      "Total number of classified backend errors",
		},
		[]string{"method", "endpoint", "error_type"},
	))

	mirrorSize := register(registerer, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "mirror_size",
			Help:      "Number of entities in the in-memory collection mirror",
		},
		[]string{"collection"},
	))

	return &Metrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		ErrorsCount:     errorsCount,
		MirrorSize:      mirrorSize,
		Tracer:          otel.Tracer(serviceName),
		gatherer:        gatherer,
	}
}

// register регистрирует коллектор, возвращая уже зарегистрированный при повторе
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// GetHandler возвращает HTTP обработчик для эндпоинта /metrics
func (m *Metrics) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest фиксирует завершенный запрос к бэкенду.
// errorType пустой для успешных запросов.
func (m *Metrics) ObserveRequest(method, endpoint, status, errorType string, duration time.Duration) {
	m.RequestCount.WithLabelValues(method, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if errorType != "" {
		m.ErrorsCount.WithLabelValues(method, endpoint, errorType).Inc()
	}
}

// SetMirrorSize устанавливает размер зеркала коллекции
func (m *Metrics) SetMirrorSize(collection string, size int) {
	m.MirrorSize.WithLabelValues(collection).Set(float64(size))
}

// StartSpan начинает спан для запроса к бэкенду
func (m *Metrics) StartSpan(ctx context.Context, method, endpoint string) (context.Context, trace.Span) {
	return m.Tracer.Start(ctx, method+" "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", endpoint),
		),
	)
}

// InitializeOpenTelemetry устанавливает глобальный провайдер трассировки
// и возвращает функцию его остановки
func InitializeOpenTelemetry(serviceName, version string) func(context.Context) error {
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		tracesdk.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown
}
