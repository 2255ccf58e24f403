package modules

import (
	"errors"
	"testing"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/ledgertest"
)

func TestNetworkFeeWithFallback(t *testing.T) {
	testCases := []struct {
		name     string
		stats    hProtocol.FeeStats
		err      error
		fallback int64
		want     int64
	}{
		{name: "network fee", stats: hProtocol.FeeStats{LastLedgerBaseFee: 250}, fallback: 100, want: 250},
		{name: "fee stats error", err: errors.New("connection refused"), fallback: 100, want: 100},
		{name: "zero fee", stats: hProtocol.FeeStats{}, fallback: 300, want: 300},
		{name: "fallback below minimum", err: errors.New("timeout"), fallback: 10, want: 100},
		{name: "network fee below minimum", stats: hProtocol.FeeStats{LastLedgerBaseFee: 50}, fallback: 100, want: 100},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			hmock := &horizonclient.MockClient{}
			hmock.On("FeeStats").Return(kase.stats, kase.err)

			policy := NetworkFeeWithFallback(kase.fallback, testLogger())
			assert.Equal(t, kase.want, policy(hmock))
			hmock.AssertExpectations(t)
		})
	}
}

func TestFixedFee(t *testing.T) {
	hmock := &horizonclient.MockClient{}
	assert.Equal(t, int64(1234), FixedFee(1234)(hmock))
	hmock.AssertNotCalled(t, "FeeStats")
}

func TestVerifyCredential(t *testing.T) {
	kp := keypair.MustRandom()
	other := keypair.MustRandom()

	got, e := VerifyCredential(kp.Address(), kp.Seed(), "sender")
	require.NoError(t, e)
	assert.Equal(t, kp.Address(), got.Address())

	_, e = VerifyCredential(" "+kp.Address()+" ", kp.Seed()+"\n", "")
	assert.NoError(t, e)

	_, e = VerifyCredential(kp.Address(), other.Seed(), "sender")
	var mismatch *CredentialMismatchError
	require.True(t, errors.As(e, &mismatch))
	assert.Equal(t, "Secret key does not match sender public key", e.Error())

	_, e = VerifyCredential(kp.Address(), "SNOTASEED", "")
	var ve *ValidationError
	require.True(t, errors.As(e, &ve))
	assert.Equal(t, "Invalid secret key", e.Error())
}

func TestBuildRejectsBadInput(t *testing.T) {
	kp := keypair.MustRandom()
	agent := MakeDexAgent(&horizonclient.MockClient{}, network.TestNetworkPassphrase, FixedFee(100), testLogger())
	source := &txnbuild.SimpleAccount{AccountID: kp.Address(), Sequence: 1}
	op := &txnbuild.Payment{Destination: kp.Address(), Amount: "1", Asset: txnbuild.NativeAsset{}}

	_, e := agent.Build(source, []txnbuild.Operation{op}, 0, kp)
	assert.Error(t, e)

	_, e = agent.Build(source, nil, 100, kp)
	assert.Error(t, e)

	tx, e := agent.Build(source, []txnbuild.Operation{op}, 100, kp)
	require.NoError(t, e)
	assert.Equal(t, int64(2), tx.SourceAccount().Sequence)
	assert.Equal(t, int64(100), tx.BaseFee())
	assert.Len(t, tx.Signatures(), 1)
}

func TestBuildExpiresAfterThirtySeconds(t *testing.T) {
	kp := keypair.MustRandom()
	agent := MakeDexAgent(&horizonclient.MockClient{}, network.TestNetworkPassphrase, FixedFee(100), testLogger())
	source := &txnbuild.SimpleAccount{AccountID: kp.Address(), Sequence: 1}
	op := &txnbuild.Payment{Destination: kp.Address(), Amount: "1", Asset: txnbuild.NativeAsset{}}

	before := time.Now().UTC().Unix()
	tx, e := agent.Build(source, []txnbuild.Operation{op}, 100, kp)
	require.NoError(t, e)
	after := time.Now().UTC().Unix()

	bounds := tx.Timebounds()
	assert.Equal(t, int64(0), bounds.MinTime)
	assert.GreaterOrEqual(t, bounds.MaxTime, before+30)
	assert.LessOrEqual(t, bounds.MaxTime, after+30)
}

func TestSubmitClassifiesErrors(t *testing.T) {
	kp := keypair.MustRandom()
	source := &txnbuild.SimpleAccount{AccountID: kp.Address(), Sequence: 1}
	op := &txnbuild.Payment{Destination: kp.Address(), Amount: "1", Asset: txnbuild.NativeAsset{}}

	testCases := []struct {
		name  string
		err   error
		check func(t *testing.T, e error)
	}{
		{
			name: "result codes",
			err:  ledgertest.Rejected("tx_failed", "op_success", "op_underfunded"),
			check: func(t *testing.T, e error) {
				var rejected *SubmissionRejectedError
				require.True(t, errors.As(e, &rejected))
				assert.Equal(t, "op_underfunded", rejected.Code())
				assert.Equal(t, "op_underfunded", e.Error())
			},
		}, {
			name: "transaction code only",
			err:  ledgertest.Rejected("tx_bad_seq"),
			check: func(t *testing.T, e error) {
				var rejected *SubmissionRejectedError
				require.True(t, errors.As(e, &rejected))
				assert.Equal(t, "tx_bad_seq", rejected.Code())
			},
		}, {
			name: "transport",
			err:  errors.New("dial tcp: connection refused"),
			check: func(t *testing.T, e error) {
				var unavailable *NetworkUnavailableError
				require.True(t, errors.As(e, &unavailable))
				assert.Contains(t, e.Error(), "connection refused")
			},
		},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			hmock := &horizonclient.MockClient{}
			hmock.On("SubmitTransaction", mock.Anything).Return(hProtocol.Transaction{}, kase.err)

			agent := MakeDexAgent(hmock, network.TestNetworkPassphrase, FixedFee(100), testLogger())
			var hooked error
			agent.OnSubmit(func(kind string, result *SubmitResult, e error) {
				hooked = e
			})

			tx, e := agent.Build(source, []txnbuild.Operation{op}, 100, kp)
			require.NoError(t, e)
			_, e = agent.Submit("payment", tx)
			kase.check(t, e)
			assert.Equal(t, e, hooked)
		})
	}
}

func TestLoadAccountNotFound(t *testing.T) {
	hmock := &horizonclient.MockClient{}
	hmock.On("AccountDetail", mock.Anything).Return(hProtocol.Account{}, ledgertest.NotFound())

	agent := MakeDexAgent(hmock, network.TestNetworkPassphrase, nil, testLogger())
	_, e := agent.LoadAccount("GABC")
	assert.True(t, IsNotFound(e))
}
