package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/nikhilsaraf/go-tools/multithreading"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/support/log"
)

// rateDecimals is the precision of computed mids and inverses
const rateDecimals = 6

// TradingPair is a base/counter pair of registry symbols
type TradingPair struct {
	Base    string
	Counter string
}

// String impl.
func (p TradingPair) String() string {
	return p.Base + "/" + p.Counter
}

// FallbackRate is a fixed conversion used when a pair has no live liquidity in either direction
type FallbackRate struct {
	Pair TradingPair
	Rate decimal.Decimal
}

// MarketRate is one entry of the market-rates response. It is recomputed on every request.
type MarketRate struct {
	Pair         string  `json:"pair"`
	Base         string  `json:"base"`
	Counter      string  `json:"counter"`
	BestBid      *string `json:"bestBid"`
	BestAsk      *string `json:"bestAsk"`
	Mid          *string `json:"mid"`
	ExchangeRate *string `json:"exchangeRate"`
	Error        string  `json:"error,omitempty"`
}

// DexWatcher queries the DEX order books and turns them into market rates
type DexWatcher struct {
	API      Horizon
	registry *AssetRegistry
	pairs    []TradingPair
	fallback *FallbackRate
	l        *log.Entry
}

// MakeDexWatcher is the factory method
func MakeDexWatcher(
	api Horizon,
	registry *AssetRegistry,
	pairs []TradingPair,
	fallback *FallbackRate,
	l *log.Entry,
) *DexWatcher {
	return &DexWatcher{
		API:      api,
		registry: registry,
		pairs:    pairs,
		fallback: fallback,
		l:        l,
	}
}

// DefaultTradingPairs are the pairs shown on the dashboard; inverses are derived, not queried
func DefaultTradingPairs(customSymbol string) []TradingPair {
	return []TradingPair{
		{Base: SymbolXLM, Counter: SymbolUSDC},
		{Base: SymbolXLM, Counter: customSymbol},
		{Base: SymbolUSDC, Counter: customSymbol},
	}
}

// GetOrderBook gets the SDEX order book selling base for counter
func (w *DexWatcher) GetOrderBook(base Asset, counter Asset) (hProtocol.OrderBookSummary, error) {
	request := horizonclient.OrderBookRequest{
		SellingAssetType:   base.horizonType(),
		SellingAssetCode:   base.Code,
		SellingAssetIssuer: base.Issuer,
		BuyingAssetType:    counter.horizonType(),
		BuyingAssetCode:    counter.Code,
		BuyingAssetIssuer:  counter.Issuer,
		Limit:              1,
	}
	if base.IsNative() {
		request.SellingAssetCode = ""
	}
	if counter.IsNative() {
		request.BuyingAssetCode = ""
	}

	book, e := w.API.OrderBook(request)
	if e != nil {
		return hProtocol.OrderBookSummary{}, classifyHorizonError("unable to get sdex order book", "", e)
	}
	return book, nil
}

// GetTopBid returns the top bid's price, nil when there are no bids
func GetTopBid(book hProtocol.OrderBookSummary) *string {
	if len(book.Bids) == 0 {
		return nil
	}
	price := book.Bids[0].Price
	return &price
}

// GetLowAsk returns the low ask's price, nil when there are no asks
func GetLowAsk(book hProtocol.OrderBookSummary) *string {
	if len(book.Asks) == 0 {
		return nil
	}
	price := book.Asks[0].Price
	return &price
}

// Rates queries every pair concurrently and returns them in pair order, each followed by its inverse
func (w *DexWatcher) Rates() []MarketRate {
	results := make([]MarketRate, len(w.pairs))
	threadTracker := multithreading.MakeThreadTracker()

	for i, pair := range w.pairs {
		threadTracker.TriggerGoroutine(func(inputs []interface{}) {
			idx := inputs[0].(int)
			p := inputs[1].(TradingPair)
			results[idx] = w.pairRate(p)
		}, []interface{}{i, pair})
	}
	threadTracker.Wait()

	withInverse := []MarketRate{}
	for _, r := range results {
		r = w.applyFallback(r)
		withInverse = append(withInverse, r)
		if inv, ok := InvertRate(r); ok {
			withInverse = append(withInverse, inv)
		}
	}
	return withInverse
}

// StreamRates calls emit with fresh rates immediately and then every interval until ctx is done or emit fails
func (w *DexWatcher) StreamRates(ctx context.Context, interval time.Duration, emit func([]MarketRate) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if e := emit(w.Rates()); e != nil {
			return e
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *DexWatcher) pairRate(pair TradingPair) MarketRate {
	r := MarketRate{
		Pair:    pair.String(),
		Base:    pair.Base,
		Counter: pair.Counter,
	}

	base, e := w.registry.Resolve(pair.Base)
	if e != nil {
		r.Error = e.Error()
		return r
	}
	counter, e := w.registry.Resolve(pair.Counter)
	if e != nil {
		r.Error = e.Error()
		return r
	}

	book, e := w.GetOrderBook(base, counter)
	if e != nil {
		w.l.Infof("can't get sdex orderbook for %s: %s", pair, e)
		r.Error = e.Error()
		return r
	}

	r.BestBid = GetTopBid(book)
	r.BestAsk = GetLowAsk(book)
	r.Mid = MidPrice(r.BestBid, r.BestAsk)
	if r.Mid != nil {
		r.ExchangeRate = exchangeRateText(pair.Base, *r.Mid, pair.Counter)
	}
	return r
}

// MidPrice is the mean of bid and ask when both exist, else whichever side exists
func MidPrice(bid *string, ask *string) *string {
	if bid != nil && ask != nil {
		b, e1 := decimal.NewFromString(*bid)
		a, e2 := decimal.NewFromString(*ask)
		if e1 == nil && e2 == nil {
			mid := b.Add(a).Div(decimal.NewFromInt(2)).StringFixed(rateDecimals)
			return &mid
		}
	}
	if bid != nil {
		return bid
	}
	return ask
}

// applyFallback substitutes the fixed rate when the fallback pair, in either orientation, has no mid
func (w *DexWatcher) applyFallback(r MarketRate) MarketRate {
	if w.fallback == nil || r.Mid != nil {
		return r
	}

	fb := w.fallback
	var mid string
	switch {
	case r.Base == fb.Pair.Base && r.Counter == fb.Pair.Counter:
		mid = fb.Rate.String()
	case r.Base == fb.Pair.Counter && r.Counter == fb.Pair.Base && fb.Rate.IsPositive():
		mid = decimal.NewFromInt(1).Div(fb.Rate).StringFixed(rateDecimals)
	default:
		return r
	}

	r.Mid = &mid
	r.ExchangeRate = exchangeRateText(r.Base, mid, r.Counter)
	return r
}

// InvertRate derives the counter/base entry from r. It is not queried separately, so a thin book
// can give inverted bid/ask that don't match the opposite book.
func InvertRate(r MarketRate) (MarketRate, bool) {
	if r.Mid == nil {
		return MarketRate{}, false
	}
	mid, e := decimal.NewFromString(*r.Mid)
	if e != nil || !mid.IsPositive() {
		return MarketRate{}, false
	}

	invMid := invert(mid)
	inv := MarketRate{
		Pair:         TradingPair{Base: r.Counter, Counter: r.Base}.String(),
		Base:         r.Counter,
		Counter:      r.Base,
		BestBid:      invertString(r.BestAsk),
		BestAsk:      invertString(r.BestBid),
		Mid:          &invMid,
		ExchangeRate: exchangeRateText(r.Counter, invMid, r.Base),
	}
	return inv, true
}

func invert(d decimal.Decimal) string {
	return decimal.NewFromInt(1).DivRound(d, 16).StringFixed(rateDecimals)
}

func invertString(s *string) *string {
	if s == nil {
		return nil
	}
	d, e := decimal.NewFromString(*s)
	if e != nil || !d.IsPositive() {
		return nil
	}
	out := invert(d)
	return &out
}

func exchangeRateText(base string, mid string, counter string) *string {
	text := fmt.Sprintf("1 %s = %s %s", base, mid, counter)
	return &text
}
