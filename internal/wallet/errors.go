package wallet

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrNotConnected is returned by signing operations when no wallet is active.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrEmptyPublicKey is returned when a wallet reports success but exposes no key.
	ErrEmptyPublicKey = errors.New("wallet connected without a public key")

	// ErrUnknownAdapter is returned for an adapter name that is not configured.
	ErrUnknownAdapter = errors.New("unknown wallet adapter")

	// ErrUnknownNetwork is returned for a network other than mainnet or devnet.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrWalletNotDetected means the injected wallet is not reachable.
	ErrWalletNotDetected = errors.New("no wallet detected")

	// ErrUserRejected means the user declined the request in the wallet.
	ErrUserRejected = errors.New("wallet rejected the request")

	// ErrBusy is returned when a disconnect is already running.
	ErrBusy = errors.New("another wallet operation is in progress")
)

// TransactionError is a send, confirm or sign failure. When the injected-wallet
// fallback was attempted and also failed, FallbackErr holds its error and Err
// still holds the original one.
type TransactionError struct {
	Op          string
	Signature   solana.Signature
	Err         error
	FallbackErr error
}

func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("failed to %s transaction: %v", e.Op, e.Err)
	if e.Signature != (solana.Signature{}) {
		msg += fmt.Sprintf(" (signature %s)", e.Signature)
	}
	if e.FallbackErr != nil {
		msg += fmt.Sprintf("; injected wallet fallback: %v", e.FallbackErr)
	}
	return msg
}

func (e *TransactionError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.FallbackErr != nil {
		errs = append(errs, e.FallbackErr)
	}
	return errs
}

// IsTransactionError checks if error is TransactionError
func IsTransactionError(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}
