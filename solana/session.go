package solana

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/AlexZinkM/token-dapp/internal/wallet"
)

// Session is the wallet session the flows sign and send through.
type Session interface {
	PublicKey() *solana.PublicKey
	Network() wallet.Network
	Connection() wallet.Connection
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	FetchBalance(ctx context.Context)
}

type rentCalculator interface {
	MinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
}

var _ Session = (*wallet.Manager)(nil)

// ValidationError is an error in the caller's input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError checks if error is ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// payer returns the connected account or wallet.ErrNotConnected.
func payer(s Session) (solana.PublicKey, error) {
	pk := s.PublicKey()
	if pk == nil {
		return solana.PublicKey{}, wallet.ErrNotConnected
	}
	return *pk, nil
}

// isValidSolanaAddress validates a Solana address
func isValidSolanaAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}
