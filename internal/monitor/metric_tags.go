package monitor

type MetricTag string

const (
	SuccessfulQueryDurationTag MetricTag = "successful_queries_duration"
	FailureQueryDurationTag    MetricTag = "failure_queries_duration"
	HTTPRequestDurationTag     MetricTag = "requests_duration_seconds"
	// Jobs queue:
	JobsEnqueuedCounterTag     MetricTag = "jobs_enqueued_counter"
	JobsDeadLetteredCounterTag MetricTag = "jobs_dead_lettered_counter"
	// ERP API Requests
	ERPAPIRequestDurationTag MetricTag = "erp_api_request_duration_seconds"
	ERPAPIRequestsTotalTag   MetricTag = "erp_api_requests_total"
	// Marketplace API Requests
	MarketplaceAPIRequestDurationTag MetricTag = "marketplace_api_request_duration_seconds"
	MarketplaceAPIRequestsTotalTag   MetricTag = "marketplace_api_requests_total"

	// Connection pool gauges (real-time state)
	DBOpenConnectionsTag    MetricTag = "open_connections"
	DBInUseConnectionsTag   MetricTag = "in_use_connections"
	DBIdleConnectionsTag    MetricTag = "idle_connections"
	DBMaxOpenConnectionsTag MetricTag = "max_open_connections"

	// Connection pool counters (cumulative)
	DBWaitCountTotalTag           MetricTag = "wait_count_total"
	DBWaitDurationSecondsTotalTag MetricTag = "wait_duration_seconds_total"
	DBMaxIdleClosedTotalTag       MetricTag = "max_idle_closed_total"
	DBMaxIdleTimeClosedTotalTag   MetricTag = "max_idle_time_closed_total"
	DBMaxLifetimeClosedTotalTag   MetricTag = "max_lifetime_closed_total"
)

func (m MetricTag) ListAll() []MetricTag {
	return []MetricTag{
		SuccessfulQueryDurationTag,
		FailureQueryDurationTag,
		HTTPRequestDurationTag,
		JobsEnqueuedCounterTag,
		JobsDeadLetteredCounterTag,
		ERPAPIRequestDurationTag,
		ERPAPIRequestsTotalTag,
		MarketplaceAPIRequestDurationTag,
		MarketplaceAPIRequestsTotalTag,

		DBOpenConnectionsTag,
		DBInUseConnectionsTag,
		DBIdleConnectionsTag,
		DBMaxOpenConnectionsTag,
		DBWaitCountTotalTag,
		DBWaitDurationSecondsTotalTag,
		DBMaxIdleClosedTotalTag,
		DBMaxIdleTimeClosedTotalTag,
		DBMaxLifetimeClosedTotalTag,
	}
}
