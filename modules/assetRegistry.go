package modules

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
)

// symbols recognised by the registry besides the custom asset
const (
	SymbolXLM  = NativeCode
	SymbolUSDC = "USDC"
)

// TestnetUSDCIssuer is Circle's testnet USDC issuing account
const TestnetUSDCIssuer = "GBBD47IF6LWK7P7MDEVSCWR7DPUWV3NY3DTQEVFL4NAT4AQH3ZLLFLA5"

// Issuer is the issuing identity of the custom asset. It lives for the life of the process
// and is handed to the components that sign for it; nothing else holds the seed.
type Issuer struct {
	Keypair *keypair.Full
	Asset   Asset
}

// MakeIssuer parses seed into the issuing identity for code, or generates a fresh one when seed is empty
func MakeIssuer(code string, seed string) (*Issuer, error) {
	var kp *keypair.Full
	var e error
	if strings.TrimSpace(seed) == "" {
		kp, e = keypair.Random()
		if e != nil {
			return nil, errors.Wrap(e, "unable to generate issuer keypair")
		}
	} else {
		kp, e = keypair.ParseFull(strings.TrimSpace(seed))
		if e != nil {
			return nil, errors.Wrap(e, "invalid issuer secret seed")
		}
	}

	if len(code) == 0 || len(code) > 12 || code == NativeCode {
		return nil, fmt.Errorf("invalid custom asset code %q", code)
	}

	return &Issuer{
		Keypair: kp,
		Asset:   Asset{Code: code, Issuer: kp.Address()},
	}, nil
}

// Address returns the issuer's public key
func (i *Issuer) Address() string {
	return i.Keypair.Address()
}

// AssetRegistry resolves the fixed set of asset symbols this service trades
type AssetRegistry struct {
	assets  map[string]Asset
	symbols []string
}

// MakeAssetRegistry is the factory method
func MakeAssetRegistry(usdcIssuer string, issuer *Issuer) *AssetRegistry {
	assets := map[string]Asset{
		SymbolXLM:         NativeAsset,
		SymbolUSDC:        {Code: SymbolUSDC, Issuer: usdcIssuer},
		issuer.Asset.Code: issuer.Asset,
	}
	return &AssetRegistry{
		assets:  assets,
		symbols: []string{SymbolXLM, SymbolUSDC, issuer.Asset.Code},
	}
}

// Resolve maps a symbol to its ledger asset
func (r *AssetRegistry) Resolve(symbol string) (Asset, error) {
	a, ok := r.assets[strings.TrimSpace(symbol)]
	if !ok {
		return Asset{}, &UnknownAssetError{Symbol: symbol}
	}
	return a, nil
}

// Symbol is the reverse of Resolve
func (r *AssetRegistry) Symbol(asset Asset) (string, bool) {
	for _, s := range r.symbols {
		if r.assets[s] == asset {
			return s, true
		}
	}
	return "", false
}

// Symbols lists the recognised symbols in display order
func (r *AssetRegistry) Symbols() []string {
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}

// CustomSymbol is the symbol of the self-issued asset
func (r *AssetRegistry) CustomSymbol() string {
	return r.symbols[len(r.symbols)-1]
}

// IssuerFor returns the issuer implied by a registry credit asset code, "" otherwise
func (r *AssetRegistry) IssuerFor(code string) string {
	a, ok := r.assets[code]
	if !ok || a.IsNative() {
		return ""
	}
	return a.Issuer
}
