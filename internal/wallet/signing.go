package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// active returns the adapter and connection a transaction goes through.
func (m *Manager) active() (Adapter, Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusConnected || m.adapter == nil {
		return nil, nil, ErrNotConnected
	}
	return m.adapter, m.conn, nil
}

// fallback returns the injected wallet when it backs adapter.
func (m *Manager) fallback(adapter Adapter) Provider {
	if m.injected == nil || m.injected.Name() != adapter.Name() {
		return nil
	}
	return m.injected
}

// SendTransaction sends tx through the connected wallet and waits for
// confirmation. If the adapter fails and the injected wallet backs it, the
// injected wallet's sign-and-send is tried once; when that fails too the
// returned TransactionError carries both errors.
func (m *Manager) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	adapter, conn, err := m.active()
	if err != nil {
		return solana.Signature{}, err
	}
	log := m.log.WithField("adapter", adapter.Name())

	sig, err := adapter.SendTransaction(ctx, tx, conn)
	if err != nil {
		provider := m.fallback(adapter)
		if provider == nil {
			m.metrics.ObserveTransaction("send", "error")
			return solana.Signature{}, &TransactionError{Op: "send", Err: err}
		}
		log.WithError(err).Warn("Adapter send failed, retrying through injected wallet")
		var fbErr error
		if sig, fbErr = provider.SignAndSendTransaction(ctx, tx); fbErr != nil {
			m.metrics.ObserveTransaction("send", "error")
			return solana.Signature{}, &TransactionError{Op: "send", Err: err, FallbackErr: fbErr}
		}
		m.metrics.ObserveTransaction("send", "fallback")
	}

	if err := conn.ConfirmTransaction(ctx, sig); err != nil {
		m.metrics.ObserveTransaction("confirm", "error")
		return sig, &TransactionError{Op: "confirm", Signature: sig, Err: err}
	}
	m.metrics.ObserveTransaction("send", "ok")
	log.WithField("signature", sig.String()).Info("Transaction confirmed")
	return sig, nil
}

// SignTransaction signs tx with the connected wallet, falling back to the
// injected wallet the same way SendTransaction does.
func (m *Manager) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	adapter, _, err := m.active()
	if err != nil {
		return nil, err
	}

	signed, err := adapter.SignTransaction(ctx, tx)
	if err == nil {
		m.metrics.ObserveTransaction("sign", "ok")
		return signed, nil
	}
	provider := m.fallback(adapter)
	if provider == nil {
		m.metrics.ObserveTransaction("sign", "error")
		return nil, &TransactionError{Op: "sign", Err: err}
	}
	m.log.WithError(err).WithField("adapter", adapter.Name()).Warn("Adapter sign failed, retrying through injected wallet")
	signed, fbErr := provider.SignTransaction(ctx, tx)
	if fbErr != nil {
		m.metrics.ObserveTransaction("sign", "error")
		return nil, &TransactionError{Op: "sign", Err: err, FallbackErr: fbErr}
	}
	m.metrics.ObserveTransaction("sign", "fallback")
	return signed, nil
}

// SignAllTransactions signs txs with the connected wallet, falling back to the
// injected wallet the same way SendTransaction does.
func (m *Manager) SignAllTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	adapter, _, err := m.active()
	if err != nil {
		return nil, err
	}

	signed, err := adapter.SignAllTransactions(ctx, txs)
	if err == nil {
		m.metrics.ObserveTransaction("sign_all", "ok")
		return signed, nil
	}
	provider := m.fallback(adapter)
	if provider == nil {
		m.metrics.ObserveTransaction("sign_all", "error")
		return nil, &TransactionError{Op: "sign all", Err: err}
	}
	m.log.WithError(err).WithField("adapter", adapter.Name()).Warn("Adapter sign-all failed, retrying through injected wallet")
	signed, fbErr := provider.SignAllTransactions(ctx, txs)
	if fbErr != nil {
		m.metrics.ObserveTransaction("sign_all", "error")
		return nil, &TransactionError{Op: "sign all", Err: err, FallbackErr: fbErr}
	}
	m.metrics.ObserveTransaction("sign_all", "fallback")
	return signed, nil
}

// PartialSign adds signatures of keys to tx in the slots of the matching
// required signers, leaving other slots as they are.
func PartialSign(tx *solana.Transaction, keys ...solana.PrivateKey) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return fmt.Errorf("message requires %d signatures but has %d accounts", required, len(tx.Message.AccountKeys))
	}
	if len(tx.Signatures) < required {
		grown := make([]solana.Signature, required)
		copy(grown, tx.Signatures)
		tx.Signatures = grown
	}

	for _, key := range keys {
		pub := key.PublicKey()
		idx := -1
		for i, acc := range tx.Message.AccountKeys[:required] {
			if acc.Equals(pub) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%s is not a required signer", pub)
		}
		sig, err := key.Sign(msg)
		if err != nil {
			return fmt.Errorf("failed to sign for %s: %w", pub, err)
		}
		tx.Signatures[idx] = sig
	}
	return nil
}
