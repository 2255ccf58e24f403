package modules

import (
	"context"
	"errors"
	"testing"

	"github.com/stellar/go/txnbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanzania-students-on-Stellar-hack/MerchantPayment/ledgertest"
)

func TestBootstrapFromUnfunded(t *testing.T) {
	k := newKit(t)
	states := []BootstrapState{}
	k.bootstrap.OnStateChange(func(s BootstrapState) {
		states = append(states, s)
	})
	assert.Equal(t, StateUnfunded, k.bootstrap.Status().State)

	require.NoError(t, k.bootstrap.Run(context.Background()))

	assert.Equal(t, []BootstrapState{StateFunded, StateSelfFunded, StateLiquidityReady}, states)
	status := k.bootstrap.Status()
	assert.Equal(t, StateLiquidityReady, status.State)
	assert.Equal(t, 2, status.OffersPlaced)
	assert.Equal(t, k.issuer.Address(), status.Issuer)
	assert.Empty(t, status.LastError)

	bal, ok := k.ledger.Balance(k.issuer.Address(), "TZS", k.issuer.Address())
	require.True(t, ok)
	assert.Equal(t, "1000000", bal.String())

	offers := k.ledger.Offers()
	require.Len(t, offers, 2)
	tzsKey := ledgertest.AssetKey("TZS", k.issuer.Address())
	assert.Equal(t, tzsKey, offers[0].Selling)
	assert.Equal(t, "native", offers[0].Buying)
	assert.Equal(t, "500000", offers[0].Amount.String())
	assert.Equal(t, int32(1), offers[0].PriceN)
	assert.Equal(t, int32(1000), offers[0].PriceD)
	assert.Equal(t, "native", offers[1].Selling)
	assert.Equal(t, tzsKey, offers[1].Buying)
	assert.Equal(t, "1000", offers[1].Amount.String())
	assert.Equal(t, int32(1000), offers[1].PriceN)
	assert.Equal(t, int32(1), offers[1].PriceD)

	// mint in one tx, then one tx per offer
	submitted := k.ledger.Submitted()
	require.Len(t, submitted, 3)
	mintOps := submitted[0].Operations()
	require.Len(t, mintOps, 2)
	trust, ok := mintOps[0].(*txnbuild.ChangeTrust)
	require.True(t, ok)
	assert.Equal(t, "1000000000", trust.Limit)
	_, ok = mintOps[1].(*txnbuild.Payment)
	assert.True(t, ok)
	assert.Len(t, submitted[1].Operations(), 1)
	assert.Len(t, submitted[2].Operations(), 1)
}

func TestBootstrapRerunDoesNotDoubleMint(t *testing.T) {
	k := newKit(t)
	require.NoError(t, k.bootstrap.Run(context.Background()))
	require.NoError(t, k.bootstrap.Run(context.Background()))

	bal, ok := k.ledger.Balance(k.issuer.Address(), "TZS", k.issuer.Address())
	require.True(t, ok)
	assert.Equal(t, "1000000", bal.String())

	// offers are not checked for duplicates
	assert.Len(t, k.ledger.Offers(), 4)
	assert.Equal(t, 4, k.bootstrap.Status().OffersPlaced)
	assert.Len(t, k.ledger.Submitted(), 5)
}

func TestBootstrapExistingTrustlineSkipsChangeTrust(t *testing.T) {
	k := newKit(t)
	k.ledger.AddAccount(k.issuer.Address(), "10000")
	k.ledger.SetCredit(k.issuer.Address(), "TZS", k.issuer.Address(), "100")

	require.NoError(t, k.bootstrap.Run(context.Background()))

	mintOps := k.ledger.Submitted()[0].Operations()
	require.Len(t, mintOps, 1)
	_, ok := mintOps[0].(*txnbuild.Payment)
	assert.True(t, ok)
}

func TestBootstrapSelfTrustRejectedStillPlacesOffers(t *testing.T) {
	k := newKit(t)
	k.ledger.RejectSelfTrust = true

	require.NoError(t, k.bootstrap.Run(context.Background()))

	_, ok := k.ledger.Balance(k.issuer.Address(), "TZS", k.issuer.Address())
	assert.False(t, ok)
	assert.Len(t, k.ledger.Offers(), 2)
	assert.Equal(t, StateLiquidityReady, k.bootstrap.Status().State)
}

func TestBootstrapOneOfferFails(t *testing.T) {
	k := newKit(t)
	k.ledger.AddAccount(k.issuer.Address(), "10000")
	k.ledger.SetCredit(k.issuer.Address(), "TZS", k.issuer.Address(), "1000000")
	k.ledger.RejectNext("tx_failed", "op_low_reserve")

	require.NoError(t, k.bootstrap.Run(context.Background()))

	offers := k.ledger.Offers()
	require.Len(t, offers, 1)
	assert.Equal(t, "native", offers[0].Selling)
	assert.Equal(t, 1, k.bootstrap.Status().OffersPlaced)
	assert.Equal(t, StateLiquidityReady, k.bootstrap.Status().State)
}

func TestBootstrapNoOffersIsDegraded(t *testing.T) {
	k := newKit(t)
	k.ledger.AddAccount(k.issuer.Address(), "10000")
	k.ledger.SetCredit(k.issuer.Address(), "TZS", k.issuer.Address(), "1000000")
	k.ledger.RejectNext("tx_failed", "op_low_reserve")
	k.ledger.RejectNext("tx_failed", "op_low_reserve")

	e := k.bootstrap.Run(context.Background())
	require.Error(t, e)
	status := k.bootstrap.Status()
	assert.Equal(t, StateDegraded, status.State)
	assert.Contains(t, status.LastError, "no offers were placed")
}

func TestBootstrapFundingFailure(t *testing.T) {
	k := newKit(t)
	k.ledger.FailFunding(&FundingError{Msg: "Friendbot funding failed", Detail: "rate limited"})

	e := k.bootstrap.Run(context.Background())
	var fe *FundingError
	require.True(t, errors.As(e, &fe), "got %v", e)
	assert.Contains(t, e.Error(), k.issuer.Address())
	assert.Equal(t, StateDegraded, k.bootstrap.Status().State)
	assert.Empty(t, k.ledger.Submitted())
}

func TestBootstrapCancelledWhileWaiting(t *testing.T) {
	k := newKit(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// funding through a funder that never creates the account leaves await polling
	b := MakeLiquidityBootstrap(k.agent, noopFunder{}, k.issuer, fastBootstrapConfig(), testLogger())
	e := b.Run(ctx)
	require.Error(t, e)
	assert.True(t, errors.Is(e, context.Canceled))
	assert.Equal(t, StateDegraded, b.Status().State)
}

func TestBootstrapGivesUpWaiting(t *testing.T) {
	k := newKit(t)
	b := MakeLiquidityBootstrap(k.agent, noopFunder{}, k.issuer, fastBootstrapConfig(), testLogger())

	e := b.Run(context.Background())
	require.Error(t, e)
	assert.Contains(t, e.Error(), "gave up waiting for issuer account to exist")
}

type noopFunder struct{}

func (noopFunder) Fund(ctx context.Context, address string) error {
	return nil
}
