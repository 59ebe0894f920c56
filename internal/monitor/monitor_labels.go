package monitor

type CommonLabels struct {
	SellerID string
}

type HTTPRequestLabels struct {
	Status string
	Route  string
	Method string
	CommonLabels
}

type DBQueryLabels struct {
	QueryType string
}

// JobsLabels tags the jobs_enqueued/jobs_dead_lettered counters.
type JobsLabels struct {
	Kind string
	CommonLabels
}

func (j JobsLabels) ToMap() map[string]string {
	return map[string]string{
		"kind":      j.Kind,
		"seller_id": j.SellerID,
	}
}

// ERPAPILabels tags outbound calls to the ERP's contas-a-receber/pagar API.
type ERPAPILabels struct {
	Method     string
	Endpoint   string
	Status     string
	StatusCode string
	CommonLabels
}

func (e ERPAPILabels) ToMap() map[string]string {
	return map[string]string{
		"method":      e.Method,
		"endpoint":    e.Endpoint,
		"status":      e.Status,
		"status_code": e.StatusCode,
		"seller_id":   e.SellerID,
	}
}

var ERPAPILabelNames = []string{"method", "endpoint", "status", "status_code", "seller_id"}

// MarketplaceAPILabels tags outbound calls to the marketplace's payments/orders API.
type MarketplaceAPILabels struct {
	Method     string
	Endpoint   string
	Status     string
	StatusCode string
	CommonLabels
}

func (m MarketplaceAPILabels) ToMap() map[string]string {
	return map[string]string{
		"method":      m.Method,
		"endpoint":    m.Endpoint,
		"status":      m.Status,
		"status_code": m.StatusCode,
		"seller_id":   m.SellerID,
	}
}

var MarketplaceAPILabelNames = []string{"method", "endpoint", "status", "status_code", "seller_id"}
