package modules

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/clients/horizonclient"
)

// ValidationError is a missing or malformed input, rejected before any network call
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UnknownAssetError is returned for symbols outside the registry
type UnknownAssetError struct {
	Symbol string
}

func (e *UnknownAssetError) Error() string {
	return fmt.Sprintf("Unknown asset: %s", e.Symbol)
}

// CredentialMismatchError means the secret seed does not derive the declared public key
type CredentialMismatchError struct {
	PublicKey string
	Role      string
}

func (e *CredentialMismatchError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("Secret key does not match %s public key", e.Role)
	}
	return "Secret key does not match public key"
}

// NoPathError means horizon has no conversion path between two assets
type NoPathError struct {
	SendAsset string
	DestAsset string
	Msg       string
	Detail    string
}

func (e *NoPathError) Error() string {
	return e.Msg
}

// NotFoundError means the ledger has no such account
type NotFoundError struct {
	Address string
	Msg     string
}

func (e *NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("account %s not found", e.Address)
}

// FundingError is a faucet refusal or an unfunded issuer
type FundingError struct {
	Msg    string
	Detail string
}

func (e *FundingError) Error() string {
	if e.Detail == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Detail)
}

// SubmissionRejectedError carries the result codes horizon returned for a rejected transaction
type SubmissionRejectedError struct {
	TransactionCode string
	OperationCodes  []string
	cause           error
}

// Code returns the most specific result code: the first operation code, else the transaction code
func (e *SubmissionRejectedError) Code() string {
	for _, c := range e.OperationCodes {
		if c != "" && c != "op_success" {
			return c
		}
	}
	if len(e.OperationCodes) > 0 && e.OperationCodes[0] != "" {
		return e.OperationCodes[0]
	}
	return e.TransactionCode
}

func (e *SubmissionRejectedError) Error() string {
	if c := e.Code(); c != "" {
		return c
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return "transaction rejected"
}

// Unwrap gives access to the horizon error
func (e *SubmissionRejectedError) Unwrap() error {
	return e.cause
}

// NetworkUnavailableError wraps a transport failure talking to horizon or friendbot
type NetworkUnavailableError struct {
	Op  string
	Err error
}

func (e *NetworkUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

// Unwrap impl.
func (e *NetworkUnavailableError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether e is (or wraps) a NotFoundError
func IsNotFound(e error) bool {
	var nf *NotFoundError
	return errors.As(e, &nf)
}

// classifyHorizonError turns a horizon client error into one of the typed errors above
func classifyHorizonError(op string, address string, e error) error {
	if e == nil {
		return nil
	}
	if horizonclient.IsNotFoundError(e) {
		return &NotFoundError{Address: address}
	}

	herr := horizonclient.GetError(e)
	if herr == nil {
		return &NetworkUnavailableError{Op: op, Err: e}
	}

	rcs, rcErr := herr.ResultCodes()
	if rcErr != nil || rcs == nil {
		return errors.Wrap(e, op)
	}
	return &SubmissionRejectedError{
		TransactionCode: rcs.TransactionCode,
		OperationCodes:  rcs.OperationCodes,
		cause:           e,
	}
}

func missingFields(fields map[string]string, order ...string) []string {
	missing := []string{}
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
