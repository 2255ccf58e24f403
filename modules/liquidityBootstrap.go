package modules

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/support/log"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// BootstrapState is where the issuing account is in the liquidity setup
type BootstrapState string

// bootstrap states, in order
const (
	StateUnfunded       BootstrapState = "unfunded"
	StateFunded         BootstrapState = "funded"
	StateSelfFunded     BootstrapState = "self-funded"
	StateLiquidityReady BootstrapState = "liquidity-ready"
	StateDegraded       BootstrapState = "degraded"
)

// BootstrapStates lists every state, for metrics
var BootstrapStates = []BootstrapState{StateUnfunded, StateFunded, StateSelfFunded, StateLiquidityReady, StateDegraded}

// BootstrapConfig holds the amounts and pacing of the bootstrap
type BootstrapConfig struct {
	MintAmount        string
	MintThreshold     string
	TrustLimit        string
	CustomOfferAmount string
	NativeOfferAmount string
	UnitsPerNative    int32
	PollInterval      time.Duration
	PollAttempts      int
}

// DefaultBootstrapConfig mints 1M units and offers 500k units against 1000 XLM at 1 XLM = 1000 units
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		MintAmount:        "1000000",
		MintThreshold:     "500000",
		TrustLimit:        "1000000000",
		CustomOfferAmount: "500000",
		NativeOfferAmount: "1000",
		UnitsPerNative:    1000,
		PollInterval:      time.Second,
		PollAttempts:      15,
	}
}

// BootstrapStatus is a snapshot of the bootstrap
type BootstrapStatus struct {
	Issuer       string         `json:"issuer"`
	Asset        string         `json:"asset"`
	State        BootstrapState `json:"state"`
	OffersPlaced int            `json:"offersPlaced"`
	LastError    string         `json:"lastError,omitempty"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// LiquidityBootstrap funds the issuer, mints the custom asset to itself and places two standing
// offers so that custom<->XLM conversions have a path. Offers are not checked for duplicates:
// running it twice places them twice.
type LiquidityBootstrap struct {
	dexAgent *DexAgent
	funder   Funder
	issuer   *Issuer
	cfg      BootstrapConfig
	l        *log.Entry

	onState func(BootstrapState)

	mu     sync.Mutex
	status BootstrapStatus
}

// MakeLiquidityBootstrap is the factory method
func MakeLiquidityBootstrap(
	dexAgent *DexAgent,
	funder Funder,
	issuer *Issuer,
	cfg BootstrapConfig,
	l *log.Entry,
) *LiquidityBootstrap {
	return &LiquidityBootstrap{
		dexAgent: dexAgent,
		funder:   funder,
		issuer:   issuer,
		cfg:      cfg,
		l:        l.WithField("issuer", issuer.Address()),
		status: BootstrapStatus{
			Issuer:    issuer.Address(),
			Asset:     issuer.Asset.Code,
			State:     StateUnfunded,
			UpdatedAt: time.Now(),
		},
	}
}

// OnStateChange registers a hook called on every transition
func (b *LiquidityBootstrap) OnStateChange(fn func(BootstrapState)) {
	b.onState = fn
}

// Status returns a copy of the current status
func (b *LiquidityBootstrap) Status() BootstrapStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *LiquidityBootstrap) setState(state BootstrapState, e error) {
	b.mu.Lock()
	b.status.State = state
	b.status.UpdatedAt = time.Now()
	if e != nil {
		b.status.LastError = e.Error()
	}
	b.mu.Unlock()

	b.l.WithField("state", string(state)).Info("liquidity bootstrap state changed")
	if b.onState != nil {
		b.onState(state)
	}
}

// Run walks the state machine once. Every step reloads the issuer account before building and
// waits for the ledger to reflect it before moving on.
func (b *LiquidityBootstrap) Run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"fund issuer", b.ensureFunded},
		{"mint to issuer", b.selfMint},
		{"place offers", b.placeOffers},
	}

	for _, s := range steps {
		if e := s.fn(ctx); e != nil {
			e = errors.Wrap(e, s.name)
			b.setState(StateDegraded, e)
			return e
		}
	}
	return nil
}

func (b *LiquidityBootstrap) ensureFunded(ctx context.Context) error {
	_, e := b.dexAgent.LoadAccount(b.issuer.Address())
	if e == nil {
		b.l.Info("issuer already funded")
		b.setState(StateFunded, nil)
		return nil
	}
	if !IsNotFound(e) {
		return e
	}

	if e := b.funder.Fund(ctx, b.issuer.Address()); e != nil {
		return errors.Wrapf(e, "issuer not funded; fund %s manually with friendbot", b.issuer.Address())
	}
	if _, e := b.await(ctx, "issuer account to exist", func(hProtocol.Account) bool { return true }); e != nil {
		return e
	}

	b.l.Info("issuer funded via friendbot")
	b.setState(StateFunded, nil)
	return nil
}

func (b *LiquidityBootstrap) selfMint(ctx context.Context) error {
	threshold, e := decimal.NewFromString(b.cfg.MintThreshold)
	if e != nil {
		return errors.Wrap(e, "invalid mint threshold")
	}
	asset := b.issuer.Asset

	account, e := b.dexAgent.LoadAccount(b.issuer.Address())
	if e != nil {
		return e
	}
	balance, hasTrust := creditBalance(account, asset)
	if hasTrust && balance.GreaterThanOrEqual(threshold) {
		b.l.Infof("issuer already holds %s %s, not minting", balance.String(), asset.Code)
		b.setState(StateSelfFunded, nil)
		return nil
	}

	ops := []txnbuild.Operation{}
	if !hasTrust {
		ops = append(ops, &txnbuild.ChangeTrust{
			Line:  txnbuild.ChangeTrustAssetWrapper{Asset: asset.TxnAsset()},
			Limit: b.cfg.TrustLimit,
		})
	}
	ops = append(ops, &txnbuild.Payment{
		Destination: b.issuer.Address(),
		Amount:      b.cfg.MintAmount,
		Asset:       asset.TxnAsset(),
	})

	tx, e := b.dexAgent.Build(&account, ops, b.dexAgent.BaseFee(), b.issuer.Keypair)
	if e != nil {
		return e
	}
	result, e := b.dexAgent.Submit("self mint", tx)
	if e != nil {
		var rejected *SubmissionRejectedError
		if errors.As(e, &rejected) {
			// an issuer can always sell its own asset, so a refused self-mint does not block the offers
			b.l.Warnf("self mint rejected (%s), continuing to offers", rejected.Code())
			return nil
		}
		return e
	}
	if !result.Successful {
		b.l.Warnf("self mint tx %s failed on the ledger, continuing to offers", result.Hash)
		return nil
	}

	_, e = b.await(ctx, "minted balance", func(a hProtocol.Account) bool {
		bal, ok := creditBalance(a, asset)
		return ok && bal.GreaterThanOrEqual(threshold)
	})
	if e != nil {
		return e
	}
	b.setState(StateSelfFunded, nil)
	return nil
}

func (b *LiquidityBootstrap) placeOffers(ctx context.Context) error {
	custom := b.issuer.Asset
	units := xdr.Int32(b.cfg.UnitsPerNative)

	placed := 0
	e := b.placeOffer(ctx, "sell "+custom.Code+" for XLM", custom, NativeAsset, b.cfg.CustomOfferAmount, xdr.Price{N: 1, D: units})
	if e != nil {
		b.l.Warnf("%s/XLM offer (sell %s): %s", custom.Code, custom.Code, e)
	} else {
		placed++
	}

	e = b.placeOffer(ctx, "sell XLM for "+custom.Code, NativeAsset, custom, b.cfg.NativeOfferAmount, xdr.Price{N: units, D: 1})
	if e != nil {
		b.l.Warnf("%s/XLM offer (sell XLM): %s", custom.Code, e)
	} else {
		placed++
	}

	b.mu.Lock()
	b.status.OffersPlaced += placed
	b.mu.Unlock()

	if placed == 0 {
		return errors.New("no offers were placed")
	}
	b.setState(StateLiquidityReady, nil)
	return nil
}

// placeOffer submits one sell offer in its own transaction and waits until the ledger has applied it
func (b *LiquidityBootstrap) placeOffer(ctx context.Context, label string, selling Asset, buying Asset, amount string, price xdr.Price) error {
	account, e := b.dexAgent.LoadAccount(b.issuer.Address())
	if e != nil {
		return e
	}
	prevSeq, e := account.GetSequenceNumber()
	if e != nil {
		return errors.Wrap(e, "unable to read sequence number")
	}

	op := &txnbuild.ManageSellOffer{
		Selling: selling.TxnAsset(),
		Buying:  buying.TxnAsset(),
		Amount:  amount,
		Price:   price,
	}
	tx, e := b.dexAgent.Build(&account, []txnbuild.Operation{op}, b.dexAgent.BaseFee(), b.issuer.Keypair)
	if e != nil {
		return e
	}
	result, e := b.dexAgent.Submit(label, tx)
	if e != nil {
		return e
	}
	if !result.Successful {
		return errors.Errorf("offer tx %s failed on the ledger", result.Hash)
	}

	_, e = b.await(ctx, label+" to apply", func(a hProtocol.Account) bool {
		seq, e := a.GetSequenceNumber()
		return e == nil && seq > prevSeq
	})
	if e != nil {
		return e
	}
	b.l.Infof("%s/XLM liquidity: %s offer created", b.issuer.Asset.Code, label)
	return nil
}

// await polls the issuer account until cond holds, at a fixed interval for a bounded number of attempts
func (b *LiquidityBootstrap) await(ctx context.Context, what string, cond func(hProtocol.Account) bool) (hProtocol.Account, error) {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 0; attempt < b.cfg.PollAttempts; attempt++ {
		if e := ctx.Err(); e != nil {
			return hProtocol.Account{}, e
		}
		account, e := b.dexAgent.LoadAccount(b.issuer.Address())
		if e == nil && cond(account) {
			return account, nil
		}
		if e != nil && !IsNotFound(e) {
			lastErr = e
		}

		select {
		case <-ctx.Done():
			return hProtocol.Account{}, ctx.Err()
		case <-ticker.C:
		}
	}

	if lastErr != nil {
		return hProtocol.Account{}, errors.Wrapf(lastErr, "gave up waiting for %s", what)
	}
	return hProtocol.Account{}, errors.Errorf("gave up waiting for %s after %d attempts", what, b.cfg.PollAttempts)
}
