package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// InjectedAdapter is the adapter over an injected wallet Provider. Events of
// the provider reach the Manager directly when it is also the Manager's
// Injected provider, so the adapter does not re-emit them.
type InjectedAdapter struct {
	provider Provider
}

// NewInjectedAdapter wraps provider.
func NewInjectedAdapter(provider Provider) *InjectedAdapter {
	return &InjectedAdapter{provider: provider}
}

func (a *InjectedAdapter) Name() string {
	return a.provider.Name()
}

// Connect asks the wallet for access, prompting the user if needed.
func (a *InjectedAdapter) Connect(ctx context.Context) error {
	_, err := a.provider.Connect(ctx, false)
	return err
}

// AutoConnect reconnects only if the wallet already trusts this app.
func (a *InjectedAdapter) AutoConnect(ctx context.Context) error {
	_, err := a.provider.Connect(ctx, true)
	return err
}

// ProbeAuthorized returns the account of an existing trusted session, or nil.
func (a *InjectedAdapter) ProbeAuthorized(ctx context.Context) (*solana.PublicKey, error) {
	if pk := a.PublicKey(); pk != nil {
		return pk, nil
	}
	pk, err := a.provider.Connect(ctx, true)
	if err != nil {
		return nil, err
	}
	return &pk, nil
}

func (a *InjectedAdapter) Disconnect(ctx context.Context) error {
	return a.provider.Disconnect(ctx)
}

func (a *InjectedAdapter) PublicKey() *solana.PublicKey {
	if !a.provider.IsConnected() {
		return nil
	}
	return copyKey(a.provider.PublicKey())
}

// SendTransaction has the wallet sign tx and submits it through conn.
func (a *InjectedAdapter) SendTransaction(ctx context.Context, tx *solana.Transaction, conn Connection) (solana.Signature, error) {
	signed, err := a.provider.SignTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign: %w", err)
	}
	return conn.SendTransaction(ctx, signed)
}

func (a *InjectedAdapter) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	return a.provider.SignTransaction(ctx, tx)
}

func (a *InjectedAdapter) SignAllTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	return a.provider.SignAllTransactions(ctx, txs)
}
