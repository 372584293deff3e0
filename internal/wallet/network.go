package wallet

import (
	"context"
)

// FetchBalance refreshes the balance of the connected account. Without a
// connected account the balance is zero. A failed lookup also reports zero.
func (m *Manager) FetchBalance(ctx context.Context) {
	m.mu.Lock()
	if m.status != StatusConnected || m.publicKey == nil {
		m.balance = 0
		m.mu.Unlock()
		return
	}
	pk := *m.publicKey
	conn := m.conn
	m.mu.Unlock()

	lamports, err := conn.GetBalance(ctx, pk)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Drop the result if the account or network changed while it was in flight.
	if m.publicKey == nil || !m.publicKey.Equals(pk) || m.conn != conn {
		return
	}
	if err != nil {
		m.balance = 0
		m.metrics.ObserveBalanceFailure()
		m.log.WithError(err).WithField("public_key", pk.String()).Warn("Failed to fetch balance")
		return
	}
	m.balance = lamports
}

// SwitchNetwork selects the cluster, persists the choice and, with a wallet
// connected, refreshes the balance against it. Selecting the current network
// does nothing.
func (m *Manager) SwitchNetwork(ctx context.Context, network Network) error {
	if _, err := ParseNetwork(string(network)); err != nil {
		return err
	}

	m.mu.Lock()
	if m.network == network {
		m.mu.Unlock()
		return nil
	}
	m.network = network
	m.conn = m.dial(network)
	connected := m.status == StatusConnected
	m.mu.Unlock()

	m.save(KeyNetwork, string(network))
	m.log.WithField("network", network).Info("Network switched")

	if connected {
		m.FetchBalance(ctx)
	}
	return nil
}
