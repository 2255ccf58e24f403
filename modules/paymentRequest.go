package modules

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// PaymentRequest is what a payee shares, usually as a QR code, so a payer can prefill a payment
type PaymentRequest struct {
	PublicKey string `json:"publicKey"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
}

// EncodePaymentRequest validates req against the registry and renders the payload
func EncodePaymentRequest(registry *AssetRegistry, req PaymentRequest) (string, error) {
	req = PaymentRequest{
		PublicKey: strings.TrimSpace(req.PublicKey),
		Asset:     strings.TrimSpace(req.Asset),
		Amount:    strings.TrimSpace(req.Amount),
	}

	if _, e := validPublicKey("publicKey", req.PublicKey); e != nil {
		return "", e
	}
	if _, e := registry.Resolve(req.Asset); e != nil {
		return "", e
	}
	if _, e := parseAmount("amount", req.Amount); e != nil {
		return "", e
	}

	b, e := json.Marshal(req)
	if e != nil {
		return "", errors.Wrap(e, "unable to encode payment request")
	}
	return string(b), nil
}

// DecodePaymentRequest parses a payload; all three fields must be JSON strings
func DecodePaymentRequest(payload string) (PaymentRequest, error) {
	if !gjson.Valid(payload) {
		return PaymentRequest{}, validationErrorf("Invalid payment request")
	}

	fields := gjson.GetMany(payload, "publicKey", "asset", "amount")
	for _, f := range fields {
		if f.Type != gjson.String {
			return PaymentRequest{}, validationErrorf("Invalid payment request")
		}
	}

	return PaymentRequest{
		PublicKey: strings.TrimSpace(fields[0].Str),
		Asset:     strings.TrimSpace(fields[1].Str),
		Amount:    strings.TrimSpace(fields[2].Str),
	}, nil
}
