package modules

import (
	"context"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/support/log"
)

// Funder creates and funds a new ledger account
type Funder interface {
	Fund(ctx context.Context, address string) error
}

// FriendbotClient is the part of horizonclient.ClientInterface the faucet uses. Horizon proxies
// friendbot under /friendbot on test networks.
type FriendbotClient interface {
	Fund(addr string) (hProtocol.Transaction, error)
}

// Faucet funds testnet accounts through friendbot
type Faucet struct {
	api FriendbotClient
	l   *log.Entry
}

// MakeFaucet is the factory method
func MakeFaucet(api FriendbotClient, l *log.Entry) *Faucet {
	return &Faucet{
		api: api,
		l:   l,
	}
}

// Fund asks friendbot to create and fund address
func (f *Faucet) Fund(ctx context.Context, address string) error {
	if e := ctx.Err(); e != nil {
		return e
	}

	tx, e := f.api.Fund(address)
	if e != nil {
		if herr := horizonclient.GetError(e); herr != nil {
			detail := herr.Problem.Detail
			if detail == "" {
				detail = herr.Problem.Title
			}
			return &FundingError{Msg: "Friendbot funding failed", Detail: detail}
		}
		return &NetworkUnavailableError{Op: "friendbot unreachable", Err: e}
	}

	f.l.Infof("funded %s via friendbot (tx %s)", address, tx.Hash)
	return nil
}
