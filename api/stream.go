package api

import (
	"net/http"

	"github.com/manucorporat/sse"
	"github.com/pkg/errors"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/modules"
)

const ratesEvent = "rates"

// streamRates pushes a "rates" event immediately and then once per configured interval until the
// client goes away
func (s *Server) streamRates(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.renderError(w, r, errors.New("streaming is not supported by this connection"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	l := s.l.WithField("remote", r.RemoteAddr)
	l.Debug("rate stream opened")
	e := s.g.Rates.StreamRates(r.Context(), s.g.Config.RateStreamInterval(), func(rates []modules.MarketRate) error {
		e := sse.Encode(w, sse.Event{
			Event: ratesEvent,
			Data:  map[string]interface{}{"rates": rates},
		})
		if e != nil {
			return errors.Wrap(e, "could not write rates event")
		}
		flusher.Flush()
		return nil
	})
	if e != nil {
		l.Infof("rate stream ended: %s", e)
		return
	}
	l.Debug("rate stream closed by client")
}
