package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/stellar/go/support/log"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/gateway"
	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/metrics"
)

const banner = "TradeLink gateway running"

// Server exposes a Gateway over HTTP
type Server struct {
	g       *gateway.Gateway
	rec     *metrics.Recorder
	version string
	l       *log.Entry
}

// MakeServer is the factory method. It hooks the recorder into the gateway's submissions and bootstrap
// transitions; call it before Gateway.Start so the first transitions are observed.
func MakeServer(g *gateway.Gateway, rec *metrics.Recorder, version string, l *log.Entry) *Server {
	g.DexAgent.OnSubmit(rec.ObserveSubmission)
	g.Bootstrap.OnStateChange(rec.ObserveBootstrapState)

	return &Server{
		g:       g,
		rec:     rec,
		version: version,
		l:       l,
	}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)
	r.Use(s.rec.Middleware)

	r.Get("/", s.index)

	r.Post("/create-account", s.createAccount)
	r.Post("/verify-login", s.verifyLogin)
	r.Get("/account/{publicKey}", s.account)
	r.Post("/add-trustline", s.addTrustline)
	r.Post("/send-payment", s.sendPayment)

	r.Route("/market-rates", func(r chi.Router) {
		r.Get("/", s.marketRates)
		r.Get("/stream", s.streamRates)
	})

	r.Get("/tzs-issuer", s.issuer)
	r.Post("/issue-tzs", s.issue)

	r.Route("/payment-request", func(r chi.Router) {
		r.Post("/", s.encodePaymentRequest)
		r.Post("/decode", s.decodePaymentRequest)
	})

	r.Get("/liquidity-status", s.liquidityStatus)
	r.Mount("/hc", healthHandler(s.version, s.g.Uptime))
	r.Method(http.MethodGet, "/metrics", s.rec.Handler())

	return r
}
