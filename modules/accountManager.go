package modules

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/support/log"
	"github.com/stellar/go/txnbuild"
)

// paymentHistoryLimit is how many recent payments the overview shows
const paymentHistoryLimit = 10

// NewAccount is a freshly created and funded testnet account
type NewAccount struct {
	PublicKey       string           `json:"publicKey"`
	SecretKey       string           `json:"secretKey"`
	InitialBalances []InitialBalance `json:"initialBalances"`
}

// AccountOverview is the dashboard view of an account
type AccountOverview struct {
	Balances       []BalanceView `json:"balances"`
	PaymentHistory []PaymentView `json:"paymentHistory"`
}

// TrustlineRequest asks for a trustline from PublicKey to AssetCode
type TrustlineRequest struct {
	PublicKey   string
	SecretKey   string
	AssetCode   string
	AssetIssuer string
}

// AccountManager handles user accounts and issuance of the custom asset
type AccountManager struct {
	dexAgent *DexAgent
	funder   Funder
	registry *AssetRegistry
	issuer   *Issuer
	l        *log.Entry
}

// MakeAccountManager is the factory method
func MakeAccountManager(
	dexAgent *DexAgent,
	funder Funder,
	registry *AssetRegistry,
	issuer *Issuer,
	l *log.Entry,
) *AccountManager {
	return &AccountManager{
		dexAgent: dexAgent,
		funder:   funder,
		registry: registry,
		issuer:   issuer,
		l:        l,
	}
}

// CreateAccount generates a keypair, funds it with the faucet and returns its first balances
func (m *AccountManager) CreateAccount(ctx context.Context) (*NewAccount, error) {
	kp, e := keypair.Random()
	if e != nil {
		return nil, errors.Wrap(e, "unable to generate keypair")
	}

	if e := m.funder.Fund(ctx, kp.Address()); e != nil {
		return nil, e
	}

	account, e := m.dexAgent.LoadAccount(kp.Address())
	if e != nil {
		return nil, e
	}
	m.l.Infof("created account %s", kp.Address())

	return &NewAccount{
		PublicKey:       kp.Address(),
		SecretKey:       kp.Seed(),
		InitialBalances: makeInitialBalances(account),
	}, nil
}

// VerifyLogin checks that secretKey derives publicKey and that the account exists
func (m *AccountManager) VerifyLogin(publicKey string, secretKey string) (string, error) {
	if strings.TrimSpace(publicKey) == "" || strings.TrimSpace(secretKey) == "" {
		return "", validationErrorf("Missing publicKey or secretKey")
	}

	kp, e := VerifyCredential(publicKey, secretKey, "")
	if e != nil {
		return "", e
	}

	_, e = m.dexAgent.LoadAccount(kp.Address())
	if IsNotFound(e) {
		return "", &NotFoundError{Address: kp.Address(), Msg: "Account not found on network"}
	}
	if e != nil {
		return "", e
	}
	return kp.Address(), nil
}

// Overview returns the balances and the most recent payments of publicKey
func (m *AccountManager) Overview(publicKey string) (*AccountOverview, error) {
	publicKey = strings.TrimSpace(publicKey)
	account, e := m.dexAgent.LoadAccount(publicKey)
	if IsNotFound(e) {
		return nil, &NotFoundError{Address: publicKey, Msg: "Account not found"}
	}
	if e != nil {
		return nil, e
	}

	page, e := m.dexAgent.API.Payments(horizonclient.OperationRequest{
		ForAccount: publicKey,
		Order:      horizonclient.OrderDesc,
		Limit:      paymentHistoryLimit,
	})
	if e != nil {
		return nil, classifyHorizonError("unable to load payments", publicKey, e)
	}

	history := []PaymentView{}
	for _, op := range page.Embedded.Records {
		history = append(history, makePaymentView(publicKey, op))
	}
	return &AccountOverview{
		Balances:       makeBalanceViews(account),
		PaymentHistory: history,
	}, nil
}

// AddTrustline establishes a maximum-limit trustline; registry codes imply their issuer
func (m *AccountManager) AddTrustline(req TrustlineRequest) (*SubmitResult, error) {
	missing := missingFields(map[string]string{
		"publicKey": req.PublicKey,
		"secretKey": req.SecretKey,
		"assetCode": req.AssetCode,
	}, "publicKey", "secretKey", "assetCode")
	if len(missing) > 0 {
		return nil, validationErrorf("Missing publicKey, secretKey, or assetCode")
	}

	code := strings.TrimSpace(req.AssetCode)
	if code == NativeCode {
		return nil, validationErrorf("XLM does not need a trustline")
	}
	issuer := m.registry.IssuerFor(code)
	if issuer == "" {
		issuer = strings.TrimSpace(req.AssetIssuer)
	}
	asset, e := ParseAsset(code, issuer)
	if e != nil {
		return nil, e
	}

	signer, e := VerifyCredential(req.PublicKey, req.SecretKey, "")
	if e != nil {
		return nil, e
	}

	return m.dexAgent.SubmitOps("trustline "+code, signer, []txnbuild.Operation{
		&txnbuild.ChangeTrust{
			Line:  txnbuild.ChangeTrustAssetWrapper{Asset: asset.TxnAsset()},
			Limit: txnbuild.MaxTrustlineLimit,
		},
	})
}

// IssuerAddress is the public key of the custom asset issuer
func (m *AccountManager) IssuerAddress() string {
	return m.issuer.Address()
}

// IssueCustom sends amount of the custom asset from the issuer to destination
func (m *AccountManager) IssueCustom(destination string, amount string) (*SubmitResult, error) {
	if strings.TrimSpace(destination) == "" || strings.TrimSpace(amount) == "" {
		return nil, validationErrorf("Missing destination or amount")
	}
	dest, e := validPublicKey("destination", destination)
	if e != nil {
		return nil, e
	}
	amt, e := parseAmount("amount", amount)
	if e != nil {
		return nil, e
	}

	account, e := m.dexAgent.LoadAccount(m.issuer.Address())
	if IsNotFound(e) {
		return nil, &FundingError{
			Msg: fmt.Sprintf("%s issuer not funded. Fund it once with Friendbot: %s", m.issuer.Asset.Code, m.issuer.Address()),
		}
	}
	if e != nil {
		return nil, e
	}

	asset := m.issuer.Asset.TxnAsset()
	ops := []txnbuild.Operation{
		&txnbuild.AllowTrust{
			Trustor:   dest,
			Type:      asset,
			Authorize: true,
		},
		&txnbuild.Payment{
			Destination: dest,
			Amount:      amountString(amt),
			Asset:       asset,
		},
	}

	tx, e := m.dexAgent.Build(&account, ops, m.dexAgent.BaseFee(), m.issuer.Keypair)
	if e != nil {
		return nil, e
	}
	return m.dexAgent.Submit("issue "+m.issuer.Asset.Code, tx)
}
