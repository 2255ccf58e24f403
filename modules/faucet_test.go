package modules

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/support/render/problem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaucetFund(t *testing.T) {
	hmock := &horizonclient.MockClient{}
	hmock.On("Fund", "GADDR").Return(hProtocol.Transaction{Hash: "abc123", Successful: true}, nil).Once()

	f := MakeFaucet(hmock, testLogger())
	require.NoError(t, f.Fund(context.Background(), "GADDR"))
	hmock.AssertExpectations(t)
}

func TestFaucetRefusal(t *testing.T) {
	testCases := []struct {
		name       string
		problem    problem.P
		wantDetail string
	}{
		{
			name:       "detail",
			problem:    problem.P{Title: "Bad Request", Status: http.StatusBadRequest, Detail: "createAccountAlreadyExist"},
			wantDetail: "createAccountAlreadyExist",
		}, {
			name:       "title only",
			problem:    problem.P{Title: "Too Many Requests", Status: http.StatusTooManyRequests},
			wantDetail: "Too Many Requests",
		},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			hmock := &horizonclient.MockClient{}
			hmock.On("Fund", "GADDR").Return(hProtocol.Transaction{}, &horizonclient.Error{Problem: kase.problem})

			e := MakeFaucet(hmock, testLogger()).Fund(context.Background(), "GADDR")
			var fe *FundingError
			require.True(t, errors.As(e, &fe), "got %v", e)
			assert.Equal(t, "Friendbot funding failed", fe.Msg)
			assert.Equal(t, kase.wantDetail, fe.Detail)
		})
	}
}

func TestFaucetUnreachable(t *testing.T) {
	hmock := &horizonclient.MockClient{}
	hmock.On("Fund", "GADDR").Return(hProtocol.Transaction{}, errors.New("dial tcp: connection refused"))

	e := MakeFaucet(hmock, testLogger()).Fund(context.Background(), "GADDR")
	var unavailable *NetworkUnavailableError
	assert.True(t, errors.As(e, &unavailable), "got %v", e)
}

func TestFaucetCancelled(t *testing.T) {
	hmock := &horizonclient.MockClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := MakeFaucet(hmock, testLogger()).Fund(ctx, "GADDR")
	assert.ErrorIs(t, e, context.Canceled)
	hmock.AssertNotCalled(t, "Fund", "GADDR")
}
