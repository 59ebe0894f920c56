package monitor

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketledger/reconciler/internal/support/log"
)

type prometheusClient struct {
	httpHandler http.Handler
	registry    *prometheus.Registry
}

func (prometheusClient) GetMetricType() MetricType {
	return MetricTypePrometheus
}

func (p *prometheusClient) GetMetricHTTPHandler() http.Handler {
	return p.httpHandler
}

func (p *prometheusClient) MonitorHTTPRequestDuration(duration time.Duration, labels HTTPRequestLabels) {
	SummaryVecMetrics[HTTPRequestDurationTag].With(prometheus.Labels{
		"status": labels.Status,
		"route":  labels.Route,
		"method": labels.Method,
	}).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) {
	summary := SummaryVecMetrics[tag]
	summary.With(prometheus.Labels{
		"query_type": labels.QueryType,
	}).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) {
	summary := SummaryVecMetrics[tag]
	summary.With(labels).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorCounters(tag MetricTag, labels map[string]string) {
	if len(labels) != 0 {
		if counterVecMetric, ok := CounterVecMetrics[tag]; ok {
			counterVecMetric.With(labels).Inc()
		} else {
			log.Errorf("metric not registered in Prometheus CounterVecMetrics: %s", tag)
		}
	} else {
		if counterMetric, ok := CounterMetrics[tag]; ok {
			counterMetric.Inc()
		} else {
			log.Errorf("metric not registered in Prometheus CounterMetrics: %s", tag)
		}
	}
}

func (p *prometheusClient) MonitorHistogram(value float64, tag MetricTag, labels map[string]string) {
	histogram := HistogramVecMetrics[tag]
	histogram.With(labels).Observe(value)
}

// RegisterFunctionMetric registers a gauge or counter whose value is computed
// on scrape by opts.Function, used for connection-pool stats that live on the
// *sql.DB rather than being pushed through MonitorCounters/MonitorHistogram.
func (p *prometheusClient) RegisterFunctionMetric(metricType FuncMetricType, opts FuncMetricOptions) {
	labels := prometheus.Labels{}
	for k, v := range opts.Labels {
		labels[k] = v
	}

	switch metricType {
	case FuncGaugeType:
		p.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subservice,
			Name:        opts.Name,
			Help:        opts.Help,
			ConstLabels: labels,
		}, opts.Function))
	case FuncCounterType:
		p.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subservice,
			Name:        opts.Name,
			Help:        opts.Help,
			ConstLabels: labels,
		}, opts.Function))
	default:
		log.Errorf("Error Registering Function %s metric %s: unsupported metric type", metricType, opts.Name)
	}
}

func newPrometheusClient() (*prometheusClient, error) {
	metricsRegistry := prometheus.NewRegistry()

	// The DB connection-pool tags have no entry in the static metric maps;
	// the pool registers them as function metrics via RegisterFunctionMetric.
	funcMetricTags := map[MetricTag]bool{
		DBOpenConnectionsTag: true, DBInUseConnectionsTag: true, DBIdleConnectionsTag: true,
		DBMaxOpenConnectionsTag: true, DBWaitCountTotalTag: true, DBWaitDurationSecondsTotalTag: true,
		DBMaxIdleClosedTotalTag: true, DBMaxIdleTimeClosedTotalTag: true, DBMaxLifetimeClosedTotalTag: true,
	}

	var metricTag MetricTag
	for _, tag := range metricTag.ListAll() {
		if summaryVecMetric, ok := SummaryVecMetrics[tag]; ok {
			metricsRegistry.MustRegister(summaryVecMetric)
		} else if counterMetric, ok := CounterMetrics[tag]; ok {
			metricsRegistry.MustRegister(counterMetric)
		} else if counterVecMetric, ok := CounterVecMetrics[tag]; ok {
			metricsRegistry.MustRegister(counterVecMetric)
		} else if funcMetricTags[tag] {
			continue
		} else {
			return nil, fmt.Errorf("metric not registered in prometheus metrics: %s", tag)
		}
	}

	return &prometheusClient{
		httpHandler: promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}),
		registry:    metricsRegistry,
	}, nil
}

// NewPrometheusClient builds the default Prometheus-backed MonitorClient.
func NewPrometheusClient() (*prometheusClient, error) {
	return newPrometheusClient()
}

// Ensuring that prometheusClient is implementing MonitorClient interface
var _ MonitorClient = (*prometheusClient)(nil)
