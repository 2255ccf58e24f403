package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/modules"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// flexAmount takes an amount given either as a JSON string or a JSON number
type flexAmount string

// UnmarshalJSON impl.
func (a *flexAmount) UnmarshalJSON(b []byte) error {
	v := gjson.ParseBytes(b)
	switch v.Type {
	case gjson.String:
		*a = flexAmount(v.Str)
	case gjson.Number:
		*a = flexAmount(v.Raw)
	case gjson.Null:
		*a = ""
	default:
		return errors.Errorf("amount must be a string or a number, got %s", v.Raw)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON body into v. An empty body leaves v zero so that the missing-field
// checks further down produce the error.
func decodeBody(r *http.Request, v interface{}) error {
	e := json.NewDecoder(r.Body).Decode(v)
	if e == nil || errors.Is(e, io.EOF) {
		return nil
	}
	return &modules.ValidationError{Msg: "Invalid JSON body: " + e.Error()}
}

// statusFor maps the domain errors onto HTTP statuses; anything unclassified gets fallback
func statusFor(e error, fallback int) int {
	var (
		validation *modules.ValidationError
		mismatch   *modules.CredentialMismatchError
		unknown    *modules.UnknownAssetError
		noPath     *modules.NoPathError
		funding    *modules.FundingError
		notFound   *modules.NotFoundError
	)
	switch {
	case errors.As(e, &validation),
		errors.As(e, &mismatch),
		errors.As(e, &unknown),
		errors.As(e, &noPath),
		errors.As(e, &funding):
		return http.StatusBadRequest
	case errors.As(e, &notFound):
		return http.StatusNotFound
	}
	return fallback
}

func errorBodyFor(e error) errorBody {
	var noPath *modules.NoPathError
	if errors.As(e, &noPath) {
		return errorBody{Error: noPath.Msg, Detail: noPath.Detail}
	}
	var funding *modules.FundingError
	if errors.As(e, &funding) {
		return errorBody{Error: funding.Msg, Detail: funding.Detail}
	}
	return errorBody{Error: e.Error()}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, e error, fallback int) {
	status := statusFor(e, fallback)
	if status >= http.StatusInternalServerError {
		s.l.WithField("route", r.URL.Path).Errorf("request failed: %s", e)
	} else {
		s.l.WithField("route", r.URL.Path).Debugf("request rejected: %s", e)
	}
	writeJSON(w, status, errorBodyFor(e))
}
