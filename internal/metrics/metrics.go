// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ComplaintsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_complaints_created_total",
			Help: "Complaints registered, by channel",
		},
		[]string{"channel"},
	)

	StatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_complaint_status_changes_total",
			Help: "Complaint status transitions, by target status",
		},
		[]string{"status"},
	)

	OTPEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_otp_events_total",
			Help: "OTP lifecycle events",
		},
		[]string{"purpose", "event"},
	)

	ExportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_exports_generated_total",
			Help: "Report exports generated, by format",
		},
		[]string{"format"},
	)

	SLABreaches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cms_sla_breaches_total",
			Help: "Complaints that became overdue",
		},
	)

	OpenComplaints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cms_open_complaints",
			Help: "Open complaints by SLA status at the last sweep",
		},
		[]string{"sla_status"},
	)

	WebsocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cms_websocket_clients",
			Help: "Connected websocket clients",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ComplaintsCreated,
		StatusChanges,
		OTPEvents,
		ExportsGenerated,
		SLABreaches,
		OpenComplaints,
		WebsocketClients,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
