package modules

import (
	"time"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/operations"
	"github.com/stellar/go/txnbuild"
)

// Horizon is the part of the horizon client API this service uses.
// *horizonclient.Client and *horizonclient.MockClient both satisfy it.
type Horizon interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
	FeeStats() (hProtocol.FeeStats, error)
	StrictReceivePaths(request horizonclient.PathsRequest) (hProtocol.PathsPage, error)
	OrderBook(request horizonclient.OrderBookRequest) (hProtocol.OrderBookSummary, error)
	SubmitTransaction(transaction *txnbuild.Transaction) (hProtocol.Transaction, error)
	Payments(request horizonclient.OperationRequest) (operations.OperationsPage, error)
}

// BalanceView is a balance line on the dashboard
type BalanceView struct {
	Asset       string  `json:"asset"`
	AssetCode   string  `json:"assetCode"`
	AssetIssuer *string `json:"assetIssuer"`
	Balance     string  `json:"balance"`
	Limit       string  `json:"limit,omitempty"`
	IsNative    bool    `json:"isNative"`
}

// InitialBalance is a balance line returned right after account creation
type InitialBalance struct {
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
	Limit   string `json:"limit,omitempty"`
}

// PaymentView is one entry of an account's payment history
type PaymentView struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	IsIncoming      bool      `json:"isIncoming"`
	Amount          string    `json:"amount"`
	AssetCode       string    `json:"assetCode"`
	AssetIssuer     string    `json:"assetIssuer,omitempty"`
	TransactionHash string    `json:"transactionHash"`
	CreatedAt       time.Time `json:"createdAt"`
}

func makeBalanceViews(account hProtocol.Account) []BalanceView {
	views := []BalanceView{}
	for _, b := range account.Balances {
		isNative := b.Type == string(horizonclient.AssetTypeNative)
		v := BalanceView{
			Balance:  b.Balance,
			Limit:    b.Limit,
			IsNative: isNative,
		}
		if isNative {
			v.Asset = NativeCode
			v.AssetCode = NativeCode
		} else {
			v.Asset = b.Code
			v.AssetCode = b.Code
			if b.Issuer != "" {
				issuer := b.Issuer
				v.AssetIssuer = &issuer
				v.Asset = b.Code + " (" + shortAddress(b.Issuer) + "…)"
			}
		}
		views = append(views, v)
	}
	return views
}

func makeInitialBalances(account hProtocol.Account) []InitialBalance {
	out := []InitialBalance{}
	for _, b := range account.Balances {
		a := assetFromHorizon(b.Type, b.Code, b.Issuer)
		out = append(out, InitialBalance{
			Asset:   a.String(),
			Balance: b.Balance,
			Limit:   b.Limit,
		})
	}
	return out
}

// makePaymentView flattens the payment-like operations horizon returns for an account
func makePaymentView(owner string, op operations.Operation) PaymentView {
	v := PaymentView{
		ID:              op.GetID(),
		Type:            op.GetType(),
		Amount:          "0",
		TransactionHash: op.GetTransactionHash(),
	}

	switch p := op.(type) {
	case operations.Payment:
		fillPayment(&v, p)
	case operations.PathPayment:
		fillPayment(&v, p.Payment)
	case operations.PathPaymentStrictSend:
		fillPayment(&v, p.Payment)
	case operations.CreateAccount:
		v.From = p.Funder
		v.To = p.Account
		v.Amount = p.StartingBalance
		v.AssetCode = NativeCode
		v.CreatedAt = p.LedgerCloseTime
	}
	v.IsIncoming = v.To == owner
	return v
}

func fillPayment(v *PaymentView, p operations.Payment) {
	v.From = p.From
	v.To = p.To
	if p.Amount != "" {
		v.Amount = p.Amount
	}
	v.CreatedAt = p.LedgerCloseTime
	if p.Asset.Type == string(horizonclient.AssetTypeNative) {
		v.AssetCode = NativeCode
		return
	}
	v.AssetCode = p.Asset.Code
	v.AssetIssuer = p.Asset.Issuer
}

func shortAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:8]
}
