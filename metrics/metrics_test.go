package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/modules"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	rec := MakeRecorder()
	r := chi.NewRouter()
	r.Use(rec.Middleware)
	r.Get("/account/{publicKey}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, key := range []string{"GA", "GB", "GC"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/account/"+key, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(rec.httpRequests.WithLabelValues("GET", "/account/{publicKey}", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.httpInFlight))
}

func TestObserveSubmission(t *testing.T) {
	rec := MakeRecorder()

	rec.ObserveSubmission("payment", &modules.SubmitResult{Successful: true}, nil)
	rec.ObserveSubmission("payment", &modules.SubmitResult{Successful: false}, nil)
	rec.ObserveSubmission("trustline USDC", nil, &modules.SubmissionRejectedError{TransactionCode: "tx_failed"})
	rec.ObserveSubmission("sell TZS for XLM", nil, errors.New("dial tcp: timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.submissions.WithLabelValues("payment", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.submissions.WithLabelValues("payment", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.submissions.WithLabelValues("trustline", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.submissions.WithLabelValues("offer", "error")))
}

func TestObserveBootstrapState(t *testing.T) {
	rec := MakeRecorder()
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.bootstrapState.WithLabelValues("unfunded")))

	rec.ObserveBootstrapState(modules.StateLiquidityReady)
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.bootstrapState.WithLabelValues("unfunded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.bootstrapState.WithLabelValues("liquidity-ready")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	rec := MakeRecorder()
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "tradelink_liquidity_bootstrap_state"))
}
