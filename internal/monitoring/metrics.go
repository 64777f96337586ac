package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PaymentMetrics instruments the payment lifecycle. All record methods are
// nil-safe so the service can run with metrics disabled.
type PaymentMetrics struct {
	initiatedTotal  *prometheus.CounterVec
	verifiedTotal   *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	m := &PaymentMetrics{
		initiatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "Payment initiations by outcome.",
		}, []string{"outcome"}),
		verifiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_verified_total",
			Help: "Payment verifications by outcome.",
		}, []string{"outcome"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(m.initiatedTotal, m.verifiedTotal, m.gatewayDuration)
	return m
}

func (m *PaymentMetrics) RecordInitiate(outcome string) {
	if m == nil {
		return
	}
	m.initiatedTotal.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) RecordVerify(outcome string) {
	if m == nil {
		return
	}
	m.verifiedTotal.WithLabelValues(outcome).Inc()
}

func (m *PaymentMetrics) ObserveGatewayCall(op string, start time.Time) {
	if m == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
