package modules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/support/log"
	"github.com/stellar/go/txnbuild"
)

// TieBreakPolicy picks one conversion path out of the candidates horizon returned, kept in horizon's order
type TieBreakPolicy func(paths []hProtocol.Path) (hProtocol.Path, bool)

// FirstPath takes horizon's first-ranked path, no re-ranking
func FirstPath(paths []hProtocol.Path) (hProtocol.Path, bool) {
	if len(paths) == 0 {
		return hProtocol.Path{}, false
	}
	return paths[0], true
}

// RouteRequest is a payment from one account to another, converting between assets when they differ
type RouteRequest struct {
	SenderPublicKey   string
	SenderSecretKey   string
	ReceiverPublicKey string
	SendAsset         string
	DestinationAsset  string
	Amount            string
}

// PaymentRouter decides between a direct payment and a strict-receive path payment
type PaymentRouter struct {
	dexAgent *DexAgent
	registry *AssetRegistry
	tieBreak TieBreakPolicy
	l        *log.Entry
}

// MakePaymentRouter is the factory method
func MakePaymentRouter(dexAgent *DexAgent, registry *AssetRegistry, tieBreak TieBreakPolicy, l *log.Entry) *PaymentRouter {
	if tieBreak == nil {
		tieBreak = FirstPath
	}
	return &PaymentRouter{
		dexAgent: dexAgent,
		registry: registry,
		tieBreak: tieBreak,
		l:        l,
	}
}

// Route sends req.Amount of the destination asset to the receiver
func (p *PaymentRouter) Route(req RouteRequest) (*SubmitResult, error) {
	missing := missingFields(map[string]string{
		"senderPublicKey":   req.SenderPublicKey,
		"senderSecretKey":   req.SenderSecretKey,
		"receiverPublicKey": req.ReceiverPublicKey,
		"sendAsset":         req.SendAsset,
		"destinationAsset":  req.DestinationAsset,
		"amount":            req.Amount,
	}, "senderPublicKey", "senderSecretKey", "receiverPublicKey", "sendAsset", "destinationAsset", "amount")
	if len(missing) > 0 {
		return nil, validationErrorf("Missing required fields: %s", strings.Join(missing, ", "))
	}

	signer, e := VerifyCredential(req.SenderPublicKey, req.SenderSecretKey, "sender")
	if e != nil {
		return nil, e
	}
	receiver, e := validPublicKey("receiverPublicKey", req.ReceiverPublicKey)
	if e != nil {
		return nil, e
	}
	amount, e := parseAmount("amount", req.Amount)
	if e != nil {
		return nil, e
	}
	sendAsset, e := p.registry.Resolve(req.SendAsset)
	if e != nil {
		return nil, e
	}
	destAsset, e := p.registry.Resolve(req.DestinationAsset)
	if e != nil {
		return nil, e
	}

	account, e := p.dexAgent.LoadAccount(signer.Address())
	if e != nil {
		return nil, e
	}
	fee := p.dexAgent.BaseFee()

	var op txnbuild.Operation
	kind := "payment"
	if sendAsset == destAsset {
		op = p.MakePayment(sendAsset, receiver, amount)
	} else {
		kind = "path payment"
		path, e := p.FindPath(req.SendAsset, req.DestinationAsset, sendAsset, destAsset, amount)
		if e != nil {
			return nil, e
		}
		op = p.MakePathPayment(sendAsset, destAsset, receiver, amount, path)
	}

	tx, e := p.dexAgent.Build(&account, []txnbuild.Operation{op}, fee, signer)
	if e != nil {
		return nil, e
	}
	return p.dexAgent.Submit(kind, tx)
}

// MakePayment is a direct payment of amount in asset
func (p *PaymentRouter) MakePayment(asset Asset, receiver string, amount decimal.Decimal) *txnbuild.Payment {
	return &txnbuild.Payment{
		Destination: receiver,
		Amount:      amountString(amount),
		Asset:       asset.TxnAsset(),
	}
}

// FindPath asks horizon for strict-receive paths delivering exactly amount of destAsset, paid in sendAsset
func (p *PaymentRouter) FindPath(sendSymbol string, destSymbol string, sendAsset Asset, destAsset Asset, amount decimal.Decimal) (hProtocol.Path, error) {
	request := horizonclient.PathsRequest{
		DestinationAssetType:   destAsset.horizonType(),
		DestinationAssetCode:   destAsset.Code,
		DestinationAssetIssuer: destAsset.Issuer,
		DestinationAmount:      amountString(amount),
		SourceAssets:           sendAsset.sourceAssetParam(),
	}
	if destAsset.IsNative() {
		request.DestinationAssetCode = ""
		request.DestinationAssetIssuer = ""
	}

	page, e := p.dexAgent.API.StrictReceivePaths(request)
	if e != nil {
		return hProtocol.Path{}, &NoPathError{
			SendAsset: sendSymbol,
			DestAsset: destSymbol,
			Msg:       "No path found for conversion. Ensure trustlines and liquidity exist.",
			Detail:    e.Error(),
		}
	}

	records := page.Embedded.Records
	p.l.Infof("found %d paths for %s -> %s (%s)", len(records), sendSymbol, destSymbol, amountString(amount))
	path, ok := p.tieBreak(records)
	if !ok {
		pair := fmt.Sprintf("%s→%s", sendSymbol, destSymbol)
		return hProtocol.Path{}, &NoPathError{
			SendAsset: sendSymbol,
			DestAsset: destSymbol,
			Msg: fmt.Sprintf("No path found for %s. Try same-asset payment, or ensure both accounts have the right trustlines.%s",
				pair, p.noPathHint(pair)),
		}
	}
	return path, nil
}

func (p *PaymentRouter) noPathHint(pair string) string {
	custom := p.registry.CustomSymbol()
	if strings.Contains(pair, custom) || strings.Contains(pair, SymbolUSDC) {
		return fmt.Sprintf(" %[1]s↔XLM liquidity is created at server start; restart the server if you just started it. For USDC↔%[1]s, only %[1]s↔XLM is supported.", custom)
	}
	return " Same-asset payment always works."
}

// MakePathPayment bounds how much of sendAsset may be spent while delivering exactly amount of destAsset
func (p *PaymentRouter) MakePathPayment(sendAsset Asset, destAsset Asset, receiver string, amount decimal.Decimal, path hProtocol.Path) *txnbuild.PathPaymentStrictReceive {
	sendMax := strings.TrimSpace(path.SourceAmount)
	if sendMax == "" {
		sendMax = amountString(amount.Mul(decimal.NewFromInt(2)))
	}

	return &txnbuild.PathPaymentStrictReceive{
		SendAsset:   sendAsset.TxnAsset(),
		SendMax:     sendMax,
		Destination: receiver,
		DestAsset:   destAsset.TxnAsset(),
		DestAmount:  amountString(amount),
		Path:        pathRecord2Assets(path),
	}
}
