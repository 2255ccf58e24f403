package modules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
)

// NativeCode is the display code of the native asset
const NativeCode = "XLM"

// sdexPrecision is the number of decimal places the ledger keeps for amounts
const sdexPrecision = 7

// Asset is a ledger asset, identified by code and issuer; the native asset has no issuer
type Asset struct {
	Code   string
	Issuer string
}

// NativeAsset is XLM
var NativeAsset = Asset{Code: NativeCode}

// IsNative reports whether this is the native asset
func (a Asset) IsNative() bool {
	return a.Code == NativeCode && a.Issuer == ""
}

// String returns XLM for the native asset, CODE:ISSUER otherwise
func (a Asset) String() string {
	if a.IsNative() {
		return NativeCode
	}
	return fmt.Sprintf("%s:%s", a.Code, a.Issuer)
}

// TxnAsset converts to the txnbuild representation
func (a Asset) TxnAsset() txnbuild.Asset {
	if a.IsNative() {
		return txnbuild.NativeAsset{}
	}
	return txnbuild.CreditAsset{Code: a.Code, Issuer: a.Issuer}
}

// horizonType returns the asset_type query value horizon expects
func (a Asset) horizonType() horizonclient.AssetType {
	if a.IsNative() {
		return horizonclient.AssetTypeNative
	}
	if len(a.Code) <= 4 {
		return horizonclient.AssetType4
	}
	return horizonclient.AssetType12
}

// sourceAssetParam is the source_assets form of a path query: native or CODE:ISSUER
func (a Asset) sourceAssetParam() string {
	if a.IsNative() {
		return string(horizonclient.AssetTypeNative)
	}
	return a.String()
}

// ParseAsset returns an asset from strings
func ParseAsset(code string, issuer string) (Asset, error) {
	code = strings.TrimSpace(code)
	issuer = strings.TrimSpace(issuer)

	if code != NativeCode && issuer == "" {
		return Asset{}, validationErrorf("assetIssuer required for non-XLM asset")
	}

	if code == NativeCode && issuer != "" {
		return Asset{}, validationErrorf("issuer needs to be empty if asset is XLM")
	}

	if code == NativeCode {
		return NativeAsset, nil
	}

	if len(code) == 0 || len(code) > 12 {
		return Asset{}, validationErrorf("invalid asset code %q", code)
	}
	if !strkey.IsValidEd25519PublicKey(issuer) {
		return Asset{}, validationErrorf("invalid asset issuer %q", issuer)
	}
	return Asset{Code: code, Issuer: issuer}, nil
}

// assetFromHorizon turns a horizon type/code/issuer triple into an Asset
func assetFromHorizon(assetType string, code string, issuer string) Asset {
	if assetType == string(horizonclient.AssetTypeNative) {
		return NativeAsset
	}
	return Asset{Code: code, Issuer: issuer}
}

// pathRecord2Assets turns the intermediate assets of a path record into txnbuild assets
func pathRecord2Assets(path hProtocol.Path) []txnbuild.Asset {
	assets := []txnbuild.Asset{}
	for _, p := range path.Path {
		assets = append(assets, assetFromHorizon(p.Type, p.Code, p.Issuer).TxnAsset())
	}
	return assets
}

// creditBalance finds the account's balance for a credit asset; ok is false without a trustline
func creditBalance(account hProtocol.Account, asset Asset) (decimal.Decimal, bool) {
	for _, b := range account.Balances {
		if b.Type == string(horizonclient.AssetTypeNative) {
			continue
		}
		if b.Code == asset.Code && b.Issuer == asset.Issuer {
			d, e := decimal.NewFromString(b.Balance)
			if e != nil {
				return decimal.Zero, true
			}
			return d, true
		}
	}
	return decimal.Zero, false
}

// maxAmount is the largest int64 stroop amount, in units
var maxAmount = decimal.RequireFromString(txnbuild.MaxTrustlineLimit)

// parseAmount validates a positive ledger amount
func parseAmount(field string, amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, validationErrorf("Missing %s", field)
	}
	d, e := decimal.NewFromString(amount)
	if e != nil {
		return decimal.Zero, validationErrorf("invalid %s %q", field, amount)
	}
	if !d.IsPositive() {
		return decimal.Zero, validationErrorf("%s must be positive", field)
	}
	if d.GreaterThan(maxAmount) {
		return decimal.Zero, validationErrorf("%s exceeds the ledger maximum %s", field, txnbuild.MaxTrustlineLimit)
	}
	if d.Exponent() < -sdexPrecision && !d.Equal(d.Truncate(sdexPrecision)) {
		return decimal.Zero, validationErrorf("%s has more than %d decimal places", field, sdexPrecision)
	}
	return d, nil
}

// amountString renders an amount the way txnbuild expects it
func amountString(d decimal.Decimal) string {
	return d.Truncate(sdexPrecision).String()
}

func validPublicKey(field string, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", validationErrorf("Missing %s", field)
	}
	if !strkey.IsValidEd25519PublicKey(address) {
		return "", validationErrorf("Invalid %s", field)
	}
	return address, nil
}
