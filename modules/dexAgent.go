package modules

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/support/log"
	"github.com/stellar/go/txnbuild"
)

// txTimeoutSeconds is the ledger-time horizon set on every transaction
const txTimeoutSeconds = 30

// DefaultBaseFee is used whenever the network fee can't be discovered, in stroops
const DefaultBaseFee = int64(txnbuild.MinBaseFee)

// FeePolicy decides the per-operation fee in stroops
type FeePolicy func(api Horizon) int64

// NetworkFeeWithFallback reads the last ledger base fee from horizon and substitutes fallback when that fails
func NetworkFeeWithFallback(fallback int64, l *log.Entry) FeePolicy {
	if fallback < txnbuild.MinBaseFee {
		fallback = txnbuild.MinBaseFee
	}
	return func(api Horizon) int64 {
		stats, e := api.FeeStats()
		if e != nil {
			l.Warnf("unable to fetch fee stats, using %d stroops: %s", fallback, e)
			return fallback
		}
		if stats.LastLedgerBaseFee <= 0 {
			return fallback
		}
		if stats.LastLedgerBaseFee < txnbuild.MinBaseFee {
			return txnbuild.MinBaseFee
		}
		return stats.LastLedgerBaseFee
	}
}

// FixedFee always charges fee
func FixedFee(fee int64) FeePolicy {
	return func(api Horizon) int64 {
		return fee
	}
}

// SubmitResult is what the ledger reports for an included transaction
type SubmitResult struct {
	Hash       string
	Successful bool
}

// ResultText is the "success"/"failed" label the API reports
func (r *SubmitResult) ResultText() string {
	if r.Successful {
		return "success"
	}
	return "failed"
}

// DexAgent builds, signs and submits transactions against the Stellar network
type DexAgent struct {
	API        Horizon
	Passphrase string
	feePolicy  FeePolicy
	l          *log.Entry

	// optional
	onSubmit func(kind string, result *SubmitResult, e error)
}

// MakeDexAgent is the factory method
func MakeDexAgent(
	api Horizon,
	passphrase string,
	feePolicy FeePolicy,
	l *log.Entry,
) *DexAgent {
	if feePolicy == nil {
		feePolicy = NetworkFeeWithFallback(DefaultBaseFee, l)
	}
	return &DexAgent{
		API:        api,
		Passphrase: passphrase,
		feePolicy:  feePolicy,
		l:          l,
	}
}

// OnSubmit registers a hook called after every submission
func (dA *DexAgent) OnSubmit(fn func(kind string, result *SubmitResult, e error)) {
	dA.onSubmit = fn
}

// VerifyCredential parses secret and checks that it derives publicKey
func VerifyCredential(publicKey string, secret string, role string) (*keypair.Full, error) {
	kp, e := keypair.ParseFull(strings.TrimSpace(secret))
	if e != nil {
		return nil, validationErrorf("Invalid secret key")
	}
	if kp.Address() != strings.TrimSpace(publicKey) {
		return nil, &CredentialMismatchError{PublicKey: publicKey, Role: role}
	}
	return kp, nil
}

// LoadAccount fetches the current account state, sequence number included
func (dA *DexAgent) LoadAccount(address string) (hProtocol.Account, error) {
	account, e := dA.API.AccountDetail(horizonclient.AccountRequest{AccountID: address})
	if e != nil {
		return hProtocol.Account{}, classifyHorizonError("unable to load account", address, e)
	}
	return account, nil
}

// BaseFee applies the fee policy
func (dA *DexAgent) BaseFee() int64 {
	return dA.feePolicy(dA.API)
}

// Build constructs and signs a transaction from source; source's sequence number is incremented in place
func (dA *DexAgent) Build(source txnbuild.Account, ops []txnbuild.Operation, baseFee int64, signer *keypair.Full) (*txnbuild.Transaction, error) {
	if baseFee <= 0 {
		return nil, errors.Errorf("fee must be a positive number of stroops, was %d", baseFee)
	}
	if len(ops) == 0 {
		return nil, errors.New("a transaction needs at least one operation")
	}

	tx, e := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        source,
		IncrementSequenceNum: true,
		Operations:           ops,
		BaseFee:              baseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(txTimeoutSeconds),
		},
	})
	if e != nil {
		return nil, errors.Wrap(e, "unable to build transaction")
	}

	tx, e = tx.Sign(dA.Passphrase, signer)
	if e != nil {
		return nil, errors.Wrap(e, "unable to sign transaction")
	}
	return tx, nil
}

// Submit sends a signed transaction and waits for horizon's verdict
func (dA *DexAgent) Submit(kind string, tx *txnbuild.Transaction) (*SubmitResult, error) {
	if hash, e := tx.HashHex(dA.Passphrase); e == nil {
		dA.l.Infof("submitting %s tx %s", kind, hash)
	}

	resp, e := dA.API.SubmitTransaction(tx)
	if e != nil {
		e = classifyHorizonError("unable to submit transaction", "", e)
		var rejected *SubmissionRejectedError
		if errors.As(e, &rejected) {
			if rejected.TransactionCode == "tx_bad_seq" {
				dA.l.Info("tx_bad_seq, the next build will reload the sequence number")
			}
			dA.l.Infof("%s tx rejected: tx code = %s, opcodes = %v", kind, rejected.TransactionCode, rejected.OperationCodes)
		} else {
			dA.l.Infof("%s tx failed for unknown reason, error message: %s", kind, e)
		}
		dA.notify(kind, nil, e)
		return nil, e
	}

	result := &SubmitResult{Hash: resp.Hash, Successful: resp.Successful}
	dA.l.Infof("%s tx confirmation hash: %s (%s)", kind, result.Hash, result.ResultText())
	dA.notify(kind, result, nil)
	return result, nil
}

// SubmitOps reloads the signer's account so the sequence number is fresh, then builds, signs and submits ops in one transaction
func (dA *DexAgent) SubmitOps(kind string, signer *keypair.Full, ops []txnbuild.Operation) (*SubmitResult, error) {
	account, e := dA.LoadAccount(signer.Address())
	if e != nil {
		return nil, e
	}

	tx, e := dA.Build(&account, ops, dA.BaseFee(), signer)
	if e != nil {
		return nil, e
	}
	return dA.Submit(kind, tx)
}

func (dA *DexAgent) notify(kind string, result *SubmitResult, e error) {
	if dA.onSubmit == nil {
		return
	}
	dA.onSubmit(kind, result, e)
}
