package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/modules"
)

type credentials struct {
	PublicKey string `json:"publicKey"`
	SecretKey string `json:"secretKey"`
}

type trustlineBody struct {
	PublicKey   string `json:"publicKey"`
	SecretKey   string `json:"secretKey"`
	AssetCode   string `json:"assetCode"`
	AssetIssuer string `json:"assetIssuer"`
}

type sendPaymentBody struct {
	SenderPublicKey   string     `json:"senderPublicKey"`
	SenderSecretKey   string     `json:"senderSecretKey"`
	ReceiverPublicKey string     `json:"receiverPublicKey"`
	SendAsset         string     `json:"sendAsset"`
	DestinationAsset  string     `json:"destinationAsset"`
	Amount            flexAmount `json:"amount"`
}

type issueBody struct {
	Destination string     `json:"destination"`
	Amount      flexAmount `json:"amount"`
}

type paymentRequestBody struct {
	PublicKey string     `json:"publicKey"`
	Asset     string     `json:"asset"`
	Amount    flexAmount `json:"amount"`
}

type submitResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash"`
	Result          string `json:"result,omitempty"`
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(banner))
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	account, e := s.g.Accounts.CreateAccount(r.Context())
	if e != nil {
		s.renderError(w, r, e, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) verifyLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if e := decodeBody(r, &body); e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}

	publicKey, e := s.g.Accounts.VerifyLogin(body.PublicKey, body.SecretKey)
	if e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"publicKey": publicKey,
	})
}

func (s *Server) account(w http.ResponseWriter, r *http.Request) {
	overview, e := s.g.Accounts.Overview(chi.URLParam(r, "publicKey"))
	if e != nil {
		s.renderError(w, r, e, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) addTrustline(w http.ResponseWriter, r *http.Request) {
	var body trustlineBody
	if e := decodeBody(r, &body); e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}

	result, e := s.g.Accounts.AddTrustline(modules.TrustlineRequest{
		PublicKey:   body.PublicKey,
		SecretKey:   body.SecretKey,
		AssetCode:   body.AssetCode,
		AssetIssuer: body.AssetIssuer,
	})
	if e != nil {
		s.renderError(w, r, e, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Success:         true,
		TransactionHash: result.Hash,
		Result:          result.ResultText(),
	})
}

func (s *Server) sendPayment(w http.ResponseWriter, r *http.Request) {
	var body sendPaymentBody
	if e := decodeBody(r, &body); e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}

	result, e := s.g.Router.Route(modules.RouteRequest{
		SenderPublicKey:   body.SenderPublicKey,
		SenderSecretKey:   body.SenderSecretKey,
		ReceiverPublicKey: body.ReceiverPublicKey,
		SendAsset:         body.SendAsset,
		DestinationAsset:  body.DestinationAsset,
		Amount:            string(body.Amount),
	})
	if e != nil {
		s.renderError(w, r, e, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Success:         true,
		TransactionHash: result.Hash,
		Result:          result.ResultText(),
	})
}

func (s *Server) marketRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rates": s.g.Rates.Rates(),
	})
}

func (s *Server) issuer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"tzsIssuer": s.g.Accounts.IssuerAddress(),
	})
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request) {
	var body issueBody
	if e := decodeBody(r, &body); e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}

	result, e := s.g.Accounts.IssueCustom(body.Destination, string(body.Amount))
	if e != nil {
		s.renderError(w, r, e, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Success:         true,
		TransactionHash: result.Hash,
	})
}

func (s *Server) encodePaymentRequest(w http.ResponseWriter, r *http.Request) {
	var body paymentRequestBody
	if e := decodeBody(r, &body); e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}

	payload, e := modules.EncodePaymentRequest(s.g.Registry, modules.PaymentRequest{
		PublicKey: body.PublicKey,
		Asset:     body.Asset,
		Amount:    string(body.Amount),
	})
	if e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"payload": payload})
}

func (s *Server) decodePaymentRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Payload string `json:"payload"`
	}
	if e := decodeBody(r, &body); e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}

	req, e := modules.DecodePaymentRequest(body.Payload)
	if e != nil {
		s.renderError(w, r, e, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) liquidityStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.g.Bootstrap.Status())
}
