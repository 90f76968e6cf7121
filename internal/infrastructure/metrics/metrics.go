package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signal_extractions_total", Help: "Messages run through the template resolver"},
		[]string{"outcome"},
	)
	RuleFaultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "extraction_rule_faults_total", Help: "Field rules that could not be evaluated"},
		[]string{"reason"},
	)
	SignalsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "signals_created_total", Help: "Signals persisted"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests served"},
		[]string{"method", "status"},
	)
)

func init() {
	prometheus.MustRegister(ExtractionsTotal, RuleFaultsTotal, SignalsCreatedTotal, HTTPRequestsTotal)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Sink counts extraction engine events.
type Sink struct{}

func (Sink) Record(event string, fields map[string]any) {
	switch event {
	case "rule_fault":
		reason, _ := fields["reason"].(string)
		RuleFaultsTotal.WithLabelValues(reason).Inc()
	case "resolved":
		ExtractionsTotal.WithLabelValues("matched").Inc()
	case "unresolved":
		ExtractionsTotal.WithLabelValues("unmatched").Inc()
	}
}
