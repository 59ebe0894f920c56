package monitor

import "github.com/prometheus/client_golang/prometheus"

var SummaryVecMetrics = map[MetricTag]*prometheus.SummaryVec{
	HTTPRequestDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "sdp", Subsystem: "http", Name: string(HTTPRequestDurationTag),
		Help: "HTTP requests durations, sliding window = 10m",
	},
		[]string{"status", "route", "method"},
	),
	SuccessfulQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "sdp", Subsystem: "db", Name: string(SuccessfulQueryDurationTag),
		Help: "Successful DB query durations",
	},
		[]string{"query_type"},
	),
	FailureQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "sdp", Subsystem: "db", Name: string(FailureQueryDurationTag),
		Help: "Failure DB query durations",
	},
		[]string{"query_type"},
	),
	ERPAPIRequestDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "sdp", Subsystem: "erp", Name: string(ERPAPIRequestDurationTag),
		Help: "ERP API request durations",
	},
		ERPAPILabelNames,
	),
	MarketplaceAPIRequestDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "sdp", Subsystem: "marketplace", Name: string(MarketplaceAPIRequestDurationTag),
		Help: "Marketplace API request durations",
	},
		MarketplaceAPILabelNames,
	),
}

var CounterMetrics = map[MetricTag]prometheus.Counter{}

var HistogramVecMetrics map[MetricTag]prometheus.HistogramVec

var CounterVecMetrics = map[MetricTag]*prometheus.CounterVec{
	JobsEnqueuedCounterTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sdp", Subsystem: "jobs", Name: string(JobsEnqueuedCounterTag),
		Help: "Jobs enqueued counter",
	},
		[]string{"kind", "seller_id"},
	),
	JobsDeadLetteredCounterTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sdp", Subsystem: "jobs", Name: string(JobsDeadLetteredCounterTag),
		Help: "Jobs moved to the dead-letter state counter",
	},
		[]string{"kind", "seller_id"},
	),
	ERPAPIRequestsTotalTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sdp", Subsystem: "erp", Name: string(ERPAPIRequestsTotalTag),
		Help: "ERP API requests counter",
	},
		ERPAPILabelNames,
	),
	MarketplaceAPIRequestsTotalTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sdp", Subsystem: "marketplace", Name: string(MarketplaceAPIRequestsTotalTag),
		Help: "Marketplace API requests counter",
	},
		MarketplaceAPILabelNames,
	),
}
