package modules

import (
	"errors"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePaymentRequest(t *testing.T) {
	k := newKit(t)
	payee := keypair.MustRandom().Address()

	payload, e := EncodePaymentRequest(k.registry, PaymentRequest{PublicKey: " " + payee, Asset: "TZS", Amount: " 250 "})
	require.NoError(t, e)
	assert.JSONEq(t, `{"publicKey":"`+payee+`","asset":"TZS","amount":"250"}`, payload)

	decoded, e := DecodePaymentRequest(payload)
	require.NoError(t, e)
	assert.Equal(t, PaymentRequest{PublicKey: payee, Asset: "TZS", Amount: "250"}, decoded)
}

func TestEncodePaymentRequestValidation(t *testing.T) {
	k := newKit(t)
	payee := keypair.MustRandom().Address()

	testCases := []struct {
		name string
		req  PaymentRequest
	}{
		{name: "bad key", req: PaymentRequest{PublicKey: "GNOPE", Asset: "XLM", Amount: "1"}},
		{name: "unknown asset", req: PaymentRequest{PublicKey: payee, Asset: "EUR", Amount: "1"}},
		{name: "zero amount", req: PaymentRequest{PublicKey: payee, Asset: "XLM", Amount: "0"}},
		{name: "no amount", req: PaymentRequest{PublicKey: payee, Asset: "XLM"}},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			_, e := EncodePaymentRequest(k.registry, kase.req)
			assert.Error(t, e)
		})
	}
}

func TestDecodePaymentRequest(t *testing.T) {
	decoded, e := DecodePaymentRequest(`{"publicKey":" GABC ","asset":"USDC ","amount":"3.5","memo":"x"}`)
	require.NoError(t, e)
	assert.Equal(t, PaymentRequest{PublicKey: "GABC", Asset: "USDC", Amount: "3.5"}, decoded)

	for _, bad := range []string{
		`not json`,
		`{"publicKey":"GABC","asset":"USDC"}`,
		`{"publicKey":"GABC","asset":"USDC","amount":3.5}`,
		`[]`,
	} {
		_, e := DecodePaymentRequest(bad)
		var ve *ValidationError
		assert.True(t, errors.As(e, &ve), "payload %s", bad)
	}
}
