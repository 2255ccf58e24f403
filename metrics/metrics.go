package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/modules"
)

const namespace = "tradelink"

// Recorder holds the gateway's collectors on its own registry
type Recorder struct {
	Registry *prometheus.Registry

	httpInFlight   prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	submissions    *prometheus.CounterVec
	bootstrapState *prometheus.GaugeVec
}

// MakeRecorder is the factory method. It registers every collector, plus the process and go runtime collectors
func MakeRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method", "route"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "submissions_total",
			Help:      "Transactions submitted to horizon, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		bootstrapState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "bootstrap_state",
			Help:      "1 for the current liquidity bootstrap state, 0 for the others.",
		}, []string{"state"}),
	}

	r.Registry.MustRegister(
		r.httpInFlight,
		r.httpRequests,
		r.httpDuration,
		r.submissions,
		r.bootstrapState,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	r.ObserveBootstrapState(modules.StateUnfunded)
	return r
}

// Handler exposes the registry
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by chi route pattern
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/metrics" {
			next.ServeHTTP(w, req)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		r.httpInFlight.Inc()
		defer r.httpInFlight.Dec()

		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(req)
		method := strings.ToUpper(req.Method)
		r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveSubmission has the signature of modules.DexAgent.OnSubmit
func (r *Recorder) ObserveSubmission(kind string, result *modules.SubmitResult, e error) {
	outcome := "rejected"
	switch {
	case e != nil:
		var rejected *modules.SubmissionRejectedError
		if !errors.As(e, &rejected) {
			outcome = "error"
		}
	case result.Successful:
		outcome = "success"
	default:
		outcome = "failed"
	}
	r.submissions.WithLabelValues(submissionKind(kind), outcome).Inc()
}

// ObserveBootstrapState has the signature of modules.LiquidityBootstrap.OnStateChange
func (r *Recorder) ObserveBootstrapState(state modules.BootstrapState) {
	for _, s := range modules.BootstrapStates {
		v := 0.0
		if s == state {
			v = 1
		}
		r.bootstrapState.WithLabelValues(string(s)).Set(v)
	}
}

// routePattern keeps label cardinality bounded: /account/{publicKey} instead of every key
func routePattern(req *http.Request) string {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		return "unmatched"
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}

// submissionKind drops asset codes so kinds like "trustline USDC" share one label
func submissionKind(kind string) string {
	for _, prefix := range []string{"trustline", "issue", "sell"} {
		if strings.HasPrefix(kind, prefix+" ") {
			if prefix == "sell" {
				return "offer"
			}
			return prefix
		}
	}
	return kind
}
