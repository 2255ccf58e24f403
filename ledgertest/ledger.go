// Package ledgertest is an in-memory stand-in for horizon and friendbot. It applies the handful of
// operations the gateway submits, enforces sequence numbers and signatures, and records every
// path query and submission so tests can assert on them.
package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/base"
	"github.com/stellar/go/protocols/horizon/operations"
	"github.com/stellar/go/support/render/problem"
	"github.com/stellar/go/txnbuild"
)

// FriendbotBalance is the native balance of every account created through Fund
const FriendbotBalance = "10000"

const notFoundType = "https://stellar.org/horizon-errors/not_found"

// Offer is a standing sell offer recorded by the fake
type Offer struct {
	ID      int64
	Seller  string
	Selling string
	Buying  string
	Amount  decimal.Decimal
	PriceN  int32
	PriceD  int32
}

type trustline struct {
	balance    decimal.Decimal
	limit      decimal.Decimal
	authorized bool
}

type account struct {
	id         string
	seq        int64
	native     decimal.Decimal
	lines      map[string]*trustline
	lineOrder  []string
	subentries int32
}

func (a *account) clone() *account {
	c := *a
	c.lines = map[string]*trustline{}
	for k, v := range a.lines {
		line := *v
		c.lines[k] = &line
	}
	c.lineOrder = append([]string{}, a.lineOrder...)
	return &c
}

type rejection struct {
	txCode  string
	opCodes []string
}

// Ledger is the fake. The zero value is not usable; call New.
type Ledger struct {
	Passphrase string

	// RejectSelfTrust makes ChangeTrust on one's own asset fail the way the real network does
	RejectSelfTrust bool

	mu          sync.Mutex
	ledgerSeq   int64
	opSeq       int64
	offerSeq    int64
	accounts    map[string]*account
	books       map[string]hProtocol.OrderBookSummary
	bookErrs    map[string]error
	paths       []hProtocol.Path
	pathsSet    bool
	pathsErr    error
	feeStats    *hProtocol.FeeStats
	feeErr      error
	fundErr     error
	rejections  []rejection
	unsuccess   int
	offers      []Offer
	history     map[string][]operations.Operation
	pathQueries []horizonclient.PathsRequest
	bookQueries []horizonclient.OrderBookRequest
	submitted   []*txnbuild.Transaction
}

// New makes an empty testnet ledger
func New() *Ledger {
	return &Ledger{
		Passphrase: network.TestNetworkPassphrase,
		ledgerSeq:  100,
		accounts:   map[string]*account{},
		books:      map[string]hProtocol.OrderBookSummary{},
		bookErrs:   map[string]error{},
		history:    map[string][]operations.Operation{},
	}
}

// NotFound is the error horizon returns for a missing resource
func NotFound() error {
	return &horizonclient.Error{
		Problem: problem.P{
			Type:   notFoundType,
			Title:  "Resource Missing",
			Status: 404,
		},
	}
}

// Rejected is the error horizon returns for a transaction that failed with result codes
func Rejected(txCode string, opCodes ...string) error {
	return &horizonclient.Error{
		Problem: problem.P{
			Type:   "https://stellar.org/horizon-errors/transaction_failed",
			Title:  "Transaction Failed",
			Status: 400,
			Extras: map[string]interface{}{
				"result_codes": map[string]interface{}{
					"transaction": txCode,
					"operations":  opCodes,
				},
			},
		},
	}
}

// AssetKey is native or CODE:ISSUER
func AssetKey(code string, issuer string) string {
	if issuer == "" {
		return string(horizonclient.AssetTypeNative)
	}
	return code + ":" + issuer
}

func creditType(code string) string {
	if len(code) > 4 {
		return string(horizonclient.AssetType12)
	}
	return string(horizonclient.AssetType4)
}

func txnAssetKey(a txnbuild.BasicAsset) string {
	if a.IsNative() {
		return string(horizonclient.AssetTypeNative)
	}
	return AssetKey(a.GetCode(), a.GetIssuer())
}

func issuerOf(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			return key[i+1:]
		}
	}
	return ""
}

func codeOf(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}

// Fund implements the faucet: it creates address with FriendbotBalance XLM
func (l *Ledger) Fund(ctx context.Context, address string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fundErr != nil {
		return l.fundErr
	}
	if _, ok := l.accounts[address]; ok {
		return errors.Errorf("account %s already exists", address)
	}
	l.create(address, decimal.RequireFromString(FriendbotBalance))
	l.record(address, operations.CreateAccount{
		Base:            l.opBase("create_account", address),
		StartingBalance: decimal.RequireFromString(FriendbotBalance).StringFixed(7),
		Funder:          "GAIH3ULLFQ4DGSECF2AR555KZ4KNDGEKN4AFI4SU2M7B43MGK3QJZNSR",
		Account:         address,
	})
	return nil
}

// FailFunding makes every following Fund call return e
func (l *Ledger) FailFunding(e error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fundErr = e
}

// AddAccount creates address directly with a native balance
func (l *Ledger) AddAccount(address string, native string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.create(address, decimal.RequireFromString(native))
}

// SetCredit gives address a trustline to code:issuer holding balance
func (l *Ledger) SetCredit(address string, code string, issuer string, balance string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.accounts[address]
	key := AssetKey(code, issuer)
	if _, ok := a.lines[key]; !ok {
		a.lineOrder = append(a.lineOrder, key)
		a.subentries++
	}
	a.lines[key] = &trustline{
		balance:    decimal.RequireFromString(balance),
		limit:      decimal.RequireFromString(txnbuild.MaxTrustlineLimit),
		authorized: true,
	}
}

func (l *Ledger) create(address string, native decimal.Decimal) {
	l.ledgerSeq++
	l.accounts[address] = &account{
		id:     address,
		seq:    l.ledgerSeq << 32,
		native: native,
		lines:  map[string]*trustline{},
	}
}

// SetOrderBook installs the book returned for selling/buying (asset keys)
func (l *Ledger) SetOrderBook(selling string, buying string, bids []string, asks []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	book := hProtocol.OrderBookSummary{Bids: []hProtocol.PriceLevel{}, Asks: []hProtocol.PriceLevel{}}
	for _, p := range bids {
		book.Bids = append(book.Bids, hProtocol.PriceLevel{Price: p, Amount: "100"})
	}
	for _, p := range asks {
		book.Asks = append(book.Asks, hProtocol.PriceLevel{Price: p, Amount: "100"})
	}
	l.books[selling+"/"+buying] = book
}

// FailOrderBook makes queries for selling/buying (asset keys) fail with e
func (l *Ledger) FailOrderBook(selling string, buying string, e error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bookErrs[selling+"/"+buying] = e
}

// SetPaths fixes the records returned by every path query instead of deriving them from offers
func (l *Ledger) SetPaths(paths []hProtocol.Path, e error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = paths
	l.pathsErr = e
	l.pathsSet = true
}

// SetFeeStats fixes the last ledger base fee, or the error returned instead
func (l *Ledger) SetFeeStats(lastLedgerBaseFee int64, e error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.feeStats = &hProtocol.FeeStats{LastLedgerBaseFee: lastLedgerBaseFee}
	l.feeErr = e
}

// RejectNext makes the next submission fail with these result codes without touching state
func (l *Ledger) RejectNext(txCode string, opCodes ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejections = append(l.rejections, rejection{txCode: txCode, opCodes: opCodes})
}

// UnsuccessfulNext makes the next submission get included with successful=false
func (l *Ledger) UnsuccessfulNext() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unsuccess++
}

// PathQueries returns every strict-receive path request seen so far
func (l *Ledger) PathQueries() []horizonclient.PathsRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]horizonclient.PathsRequest{}, l.pathQueries...)
}

// BookQueries returns every order book request seen so far
func (l *Ledger) BookQueries() []horizonclient.OrderBookRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]horizonclient.OrderBookRequest{}, l.bookQueries...)
}

// Submitted returns every transaction handed to SubmitTransaction, accepted or not
func (l *Ledger) Submitted() []*txnbuild.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*txnbuild.Transaction{}, l.submitted...)
}

// Offers returns the standing offers in creation order
func (l *Ledger) Offers() []Offer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Offer{}, l.offers...)
}

// Balance returns address's balance of code:issuer (native for an empty issuer), false without an account or trustline
func (l *Ledger) Balance(address string, code string, issuer string) (decimal.Decimal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[address]
	if !ok {
		return decimal.Zero, false
	}
	if issuer == "" {
		return a.native, true
	}
	line, ok := a.lines[AssetKey(code, issuer)]
	if !ok {
		return decimal.Zero, false
	}
	return line.balance, true
}

// AccountDetail impl.
func (l *Ledger) AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[request.AccountID]
	if !ok {
		return hProtocol.Account{}, NotFound()
	}

	account := hProtocol.Account{
		ID:            a.id,
		AccountID:     a.id,
		Sequence:      a.seq,
		SubentryCount: a.subentries,
	}
	for _, key := range a.lineOrder {
		line := a.lines[key]
		code := codeOf(key)
		account.Balances = append(account.Balances, hProtocol.Balance{
			Balance: line.balance.StringFixed(7),
			Limit:   line.limit.StringFixed(7),
			Asset:   base.Asset{Type: creditType(code), Code: code, Issuer: issuerOf(key)},
		})
	}
	account.Balances = append(account.Balances, hProtocol.Balance{
		Balance: a.native.StringFixed(7),
		Asset:   base.Asset{Type: string(horizonclient.AssetTypeNative)},
	})
	return account, nil
}

// FeeStats impl.
func (l *Ledger) FeeStats() (hProtocol.FeeStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.feeErr != nil {
		return hProtocol.FeeStats{}, l.feeErr
	}
	if l.feeStats != nil {
		return *l.feeStats, nil
	}
	return hProtocol.FeeStats{LastLedgerBaseFee: txnbuild.MinBaseFee}, nil
}

// StrictReceivePaths impl. Unless SetPaths was called, a single direct path is derived from a
// standing offer selling the destination asset for the source asset.
func (l *Ledger) StrictReceivePaths(request horizonclient.PathsRequest) (hProtocol.PathsPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pathQueries = append(l.pathQueries, request)
	var page hProtocol.PathsPage
	page.Embedded.Records = []hProtocol.Path{}

	if l.pathsSet {
		if l.pathsErr != nil {
			return hProtocol.PathsPage{}, l.pathsErr
		}
		page.Embedded.Records = append(page.Embedded.Records, l.paths...)
		return page, nil
	}

	dest := AssetKey(request.DestinationAssetCode, request.DestinationAssetIssuer)
	source := request.SourceAssets
	destAmount, e := decimal.NewFromString(request.DestinationAmount)
	if e != nil {
		return hProtocol.PathsPage{}, errors.Wrap(e, "bad destination_amount")
	}

	for _, o := range l.offers {
		if o.Selling != dest || o.Buying != source || o.Amount.LessThan(destAmount) {
			continue
		}
		sourceAmount := destAmount.Mul(decimal.NewFromInt32(o.PriceN)).Div(decimal.NewFromInt32(o.PriceD))
		sourceType, sourceCode := string(horizonclient.AssetTypeNative), ""
		if source != string(horizonclient.AssetTypeNative) {
			sourceType, sourceCode = creditType(codeOf(source)), codeOf(source)
		}
		page.Embedded.Records = append(page.Embedded.Records, hProtocol.Path{
			SourceAssetType:        sourceType,
			SourceAssetCode:        sourceCode,
			SourceAssetIssuer:      issuerOf(source),
			SourceAmount:           sourceAmount.StringFixed(7),
			DestinationAssetType:   string(request.DestinationAssetType),
			DestinationAssetCode:   request.DestinationAssetCode,
			DestinationAssetIssuer: request.DestinationAssetIssuer,
			DestinationAmount:      request.DestinationAmount,
			Path:                   []hProtocol.Asset{},
		})
		break
	}
	return page, nil
}

// OrderBook impl.
func (l *Ledger) OrderBook(request horizonclient.OrderBookRequest) (hProtocol.OrderBookSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.bookQueries = append(l.bookQueries, request)
	key := AssetKey(request.SellingAssetCode, request.SellingAssetIssuer) + "/" + AssetKey(request.BuyingAssetCode, request.BuyingAssetIssuer)
	if e, ok := l.bookErrs[key]; ok {
		return hProtocol.OrderBookSummary{}, e
	}
	if book, ok := l.books[key]; ok {
		return book, nil
	}
	return hProtocol.OrderBookSummary{Bids: []hProtocol.PriceLevel{}, Asks: []hProtocol.PriceLevel{}}, nil
}

// Payments impl. Records come newest first regardless of the requested order.
func (l *Ledger) Payments(request horizonclient.OperationRequest) (operations.OperationsPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var page operations.OperationsPage
	if _, ok := l.accounts[request.ForAccount]; !ok {
		return page, NotFound()
	}

	all := l.history[request.ForAccount]
	records := make([]operations.Operation, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		records = append(records, all[i])
	}
	if request.Limit > 0 && uint(len(records)) > request.Limit {
		records = records[:request.Limit]
	}
	page.Embedded.Records = records
	return page, nil
}

// SubmitTransaction impl. Operations apply atomically; a failing operation rejects the whole
// transaction with tx_failed and consumes the sequence number like the real network.
func (l *Ledger) SubmitTransaction(tx *txnbuild.Transaction) (hProtocol.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.submitted = append(l.submitted, tx)
	if len(l.rejections) > 0 {
		r := l.rejections[0]
		l.rejections = l.rejections[1:]
		return hProtocol.Transaction{}, Rejected(r.txCode, r.opCodes...)
	}

	hash, e := tx.HashHex(l.Passphrase)
	if e != nil {
		return hProtocol.Transaction{}, errors.Wrap(e, "unable to hash transaction")
	}

	sourceID := tx.SourceAccount().AccountID
	source, ok := l.accounts[sourceID]
	if !ok {
		return hProtocol.Transaction{}, Rejected("tx_no_source_account")
	}
	if tx.SourceAccount().Sequence != source.seq+1 {
		return hProtocol.Transaction{}, Rejected("tx_bad_seq")
	}
	if !l.signedBy(tx, sourceID) {
		return hProtocol.Transaction{}, Rejected("tx_bad_auth")
	}

	source.seq++
	if l.unsuccess > 0 {
		l.unsuccess--
		return hProtocol.Transaction{Hash: hash, Successful: false}, nil
	}

	staged := map[string]*account{}
	get := func(id string) (*account, bool) {
		if a, ok := staged[id]; ok {
			return a, true
		}
		a, ok := l.accounts[id]
		if !ok {
			return nil, false
		}
		staged[id] = a.clone()
		return staged[id], true
	}
	newOffers := []Offer{}
	history := []*historyRecord{}

	codes := []string{}
	for _, op := range tx.Operations() {
		code, rec := l.apply(sourceID, op, get, &newOffers)
		codes = append(codes, code)
		if code != "op_success" {
			return hProtocol.Transaction{}, Rejected("tx_failed", codes...)
		}
		if rec != nil {
			history = append(history, rec)
		}
	}

	for id, a := range staged {
		l.accounts[id] = a
	}
	l.offers = append(l.offers, newOffers...)
	l.ledgerSeq++
	for _, h := range history {
		b := h.op.GetBase()
		b.TransactionHash = hash
		for _, id := range h.ids {
			l.record(id, withBase(h.op, b))
		}
	}
	return hProtocol.Transaction{Hash: hash, Successful: true, Ledger: int32(l.ledgerSeq)}, nil
}

func (l *Ledger) signedBy(tx *txnbuild.Transaction, address string) bool {
	kp, e := keypair.ParseAddress(address)
	if e != nil {
		return false
	}
	hash, e := tx.Hash(l.Passphrase)
	if e != nil {
		return false
	}
	for _, sig := range tx.Signatures() {
		if kp.Verify(hash[:], []byte(sig.Signature)) == nil {
			return true
		}
	}
	return false
}

type historyRecord struct {
	ids []string
	op  operations.Operation
}

func (l *Ledger) apply(
	txSource string,
	op txnbuild.Operation,
	get func(string) (*account, bool),
	newOffers *[]Offer,
) (string, *historyRecord) {
	switch o := op.(type) {
	case *txnbuild.Payment:
		from := sourceOr(o.SourceAccount, txSource)
		amount, e := decimal.NewFromString(o.Amount)
		if e != nil || !amount.IsPositive() {
			return "op_malformed", nil
		}
		if code := l.move(get, from, o.Destination, txnAssetKey(o.Asset), amount); code != "op_success" {
			return code, nil
		}
		return "op_success", l.paymentRecord("payment", from, o.Destination, o.Asset, amount)

	case *txnbuild.PathPaymentStrictReceive:
		from := sourceOr(o.SourceAccount, txSource)
		sendMax, e1 := decimal.NewFromString(o.SendMax)
		destAmount, e2 := decimal.NewFromString(o.DestAmount)
		if e1 != nil || e2 != nil || !sendMax.IsPositive() || !destAmount.IsPositive() {
			return "op_malformed", nil
		}
		sender, ok := get(from)
		if !ok {
			return "op_src_not_authorized", nil
		}
		if code := debit(sender, txnAssetKey(o.SendAsset), sendMax); code != "op_success" {
			return code, nil
		}
		receiver, ok := get(o.Destination)
		if !ok {
			return "op_no_destination", nil
		}
		if code := credit(receiver, txnAssetKey(o.DestAsset), destAmount); code != "op_success" {
			return code, nil
		}
		return "op_success", l.paymentRecord("path_payment_strict_receive", from, o.Destination, o.DestAsset, destAmount)

	case *txnbuild.ChangeTrust:
		from := sourceOr(o.SourceAccount, txSource)
		a, ok := get(from)
		if !ok {
			return "op_src_not_authorized", nil
		}
		if o.Line.IsNative() {
			return "op_malformed", nil
		}
		if o.Line.GetIssuer() == from && l.RejectSelfTrust {
			return "op_self_not_allowed", nil
		}
		limit := decimal.RequireFromString(txnbuild.MaxTrustlineLimit)
		if o.Limit != "" {
			parsed, e := decimal.NewFromString(o.Limit)
			if e != nil {
				return "op_malformed", nil
			}
			limit = parsed
		}
		key := txnAssetKey(o.Line)
		if line, ok := a.lines[key]; ok {
			line.limit = limit
			return "op_success", nil
		}
		a.lines[key] = &trustline{balance: decimal.Zero, limit: limit, authorized: true}
		a.lineOrder = append(a.lineOrder, key)
		a.subentries++
		return "op_success", nil

	case *txnbuild.AllowTrust:
		trustor, ok := get(o.Trustor)
		if !ok {
			return "op_no_trust_line", nil
		}
		line, ok := trustor.lines[AssetKey(o.Type.GetCode(), sourceOr(o.SourceAccount, txSource))]
		if !ok {
			return "op_no_trust_line", nil
		}
		line.authorized = o.Authorize
		return "op_success", nil

	case *txnbuild.ManageSellOffer:
		from := sourceOr(o.SourceAccount, txSource)
		a, ok := get(from)
		if !ok {
			return "op_src_not_authorized", nil
		}
		amount, e := decimal.NewFromString(o.Amount)
		if e != nil || !amount.IsPositive() || o.Price.N <= 0 || o.Price.D <= 0 {
			return "op_malformed", nil
		}
		selling := txnAssetKey(o.Selling)
		buying := txnAssetKey(o.Buying)
		if !holds(a, selling) {
			return "op_underfunded", nil
		}
		if _, ok := a.lines[buying]; !ok && buying != string(horizonclient.AssetTypeNative) && issuerOf(buying) != from {
			return "op_buy_no_trust", nil
		}
		l.offerSeq++
		*newOffers = append(*newOffers, Offer{
			ID:      l.offerSeq,
			Seller:  from,
			Selling: selling,
			Buying:  buying,
			Amount:  amount,
			PriceN:  int32(o.Price.N),
			PriceD:  int32(o.Price.D),
		})
		a.subentries++
		return "op_success", nil
	}
	return "op_not_supported", nil
}

func (l *Ledger) move(get func(string) (*account, bool), from string, to string, asset string, amount decimal.Decimal) string {
	sender, ok := get(from)
	if !ok {
		return "op_src_not_authorized"
	}
	if code := debit(sender, asset, amount); code != "op_success" {
		return code
	}
	receiver, ok := get(to)
	if !ok {
		return "op_no_destination"
	}
	return credit(receiver, asset, amount)
}

// debit removes amount of asset from a; an issuer has unlimited supply of its own asset
func debit(a *account, asset string, amount decimal.Decimal) string {
	if asset == string(horizonclient.AssetTypeNative) {
		if a.native.LessThan(amount) {
			return "op_underfunded"
		}
		a.native = a.native.Sub(amount)
		return "op_success"
	}

	line, ok := a.lines[asset]
	if issuerOf(asset) == a.id && (!ok || line.balance.LessThan(amount)) {
		return "op_success"
	}
	if !ok {
		return "op_src_no_trust"
	}
	if line.balance.LessThan(amount) {
		return "op_underfunded"
	}
	line.balance = line.balance.Sub(amount)
	return "op_success"
}

func credit(a *account, asset string, amount decimal.Decimal) string {
	if asset == string(horizonclient.AssetTypeNative) {
		a.native = a.native.Add(amount)
		return "op_success"
	}

	line, ok := a.lines[asset]
	if !ok {
		if issuerOf(asset) == a.id {
			return "op_success"
		}
		return "op_no_trust"
	}
	if line.balance.Add(amount).GreaterThan(line.limit) {
		return "op_line_full"
	}
	line.balance = line.balance.Add(amount)
	return "op_success"
}

func holds(a *account, asset string) bool {
	if asset == string(horizonclient.AssetTypeNative) {
		return a.native.IsPositive()
	}
	if issuerOf(asset) == a.id {
		return true
	}
	line, ok := a.lines[asset]
	return ok && line.balance.IsPositive()
}

func sourceOr(opSource string, txSource string) string {
	if opSource != "" {
		return opSource
	}
	return txSource
}

func (l *Ledger) opBase(opType string, source string) operations.Base {
	l.opSeq++
	return operations.Base{
		ID:                    fmt.Sprintf("%d", l.ledgerSeq<<32+l.opSeq),
		PT:                    fmt.Sprintf("%d", l.ledgerSeq<<32+l.opSeq),
		TransactionSuccessful: true,
		SourceAccount:         source,
		Type:                  opType,
		LedgerCloseTime:       time.Now().UTC(),
	}
}

func (l *Ledger) paymentRecord(opType string, from string, to string, asset txnbuild.Asset, amount decimal.Decimal) *historyRecord {
	p := operations.Payment{
		Base:   l.opBase(opType, from),
		From:   from,
		To:     to,
		Amount: amount.StringFixed(7),
	}
	if asset.IsNative() {
		p.Asset = base.Asset{Type: string(horizonclient.AssetTypeNative)}
	} else {
		p.Asset = base.Asset{Type: creditType(asset.GetCode()), Code: asset.GetCode(), Issuer: asset.GetIssuer()}
	}

	ids := []string{from}
	if to != from {
		ids = append(ids, to)
	}
	if opType == "payment" {
		return &historyRecord{ids: ids, op: p}
	}
	return &historyRecord{ids: ids, op: operations.PathPayment{Payment: p}}
}

func withBase(op operations.Operation, b operations.Base) operations.Operation {
	switch o := op.(type) {
	case operations.Payment:
		o.Base = b
		return o
	case operations.PathPayment:
		o.Payment.Base = b
		return o
	}
	return op
}

func (l *Ledger) record(address string, op operations.Operation) {
	l.history[address] = append(l.history[address], op)
}
