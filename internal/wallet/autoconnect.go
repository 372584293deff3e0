package wallet

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// AutoConnect restores a persisted session without user interaction where the
// wallet allows it. It reports whether a session is connected afterwards.
// Failures are logged, never returned.
//
// Nothing is attempted after a manual disconnect, or when the persisted
// connect time is older than the session TTL; in both cases the persisted
// wallet name and connect time are cleared.
func (m *Manager) AutoConnect(ctx context.Context) bool {
	m.mu.Lock()
	if m.status != StatusIdle {
		connected := m.status == StatusConnected
		m.mu.Unlock()
		return connected
	}
	m.status = StatusConnecting
	m.mu.Unlock()

	if m.restore(ctx) {
		return true
	}

	m.mu.Lock()
	if m.status == StatusConnecting {
		m.status = StatusIdle
	}
	m.mu.Unlock()
	return false
}

func (m *Manager) restore(ctx context.Context) bool {
	log := m.log.WithField("op", "autoconnect")

	connectTime, ok := m.storedConnectTime()
	if !ok {
		log.Debug("No persisted wallet session")
		return false
	}
	manual, _ := m.load(KeyManuallyDisconnected)
	if manual == manualFlagValue {
		m.forget(KeyWalletName, KeyConnectTime)
		log.Debug("Wallet was disconnected manually, not reconnecting")
		return false
	}
	if m.now().Sub(connectTime) > m.ttl {
		m.forget(KeyWalletName, KeyConnectTime)
		log.WithField("connected_at", connectTime).Info("Persisted wallet session expired")
		return false
	}

	if m.injected != nil {
		if a, err := m.AdapterByName(m.injected.Name()); err == nil {
			pk, err := m.injected.Connect(ctx, true)
			if err == nil && pk != (solana.PublicKey{}) {
				if apk := a.PublicKey(); apk != nil && *apk != (solana.PublicKey{}) {
					pk = *apk
				}
				m.restored(ctx, a, pk, "injected")
				return true
			}
			log.WithError(err).Debug("Injected wallet has no trusted session")
		}
	}

	for _, a := range m.adapters {
		pk := a.PublicKey()
		if pk == nil {
			if p, ok := a.(Prober); ok {
				var err error
				if pk, err = p.ProbeAuthorized(ctx); err != nil {
					log.WithError(err).WithField("adapter", a.Name()).Debug("Probe failed")
				}
			}
		}
		if pk != nil && *pk != (solana.PublicKey{}) {
			m.restored(ctx, a, *pk, "authorized")
			return true
		}
	}

	name, ok := m.load(KeyWalletName)
	if !ok {
		return false
	}
	a, err := m.AdapterByName(name)
	if err != nil {
		log.WithError(err).Warn("Persisted wallet is not available")
		return false
	}
	if sc, ok := a.(SilentConnector); ok {
		if err := sc.AutoConnect(ctx); err == nil {
			if pk := a.PublicKey(); pk != nil && *pk != (solana.PublicKey{}) {
				m.restored(ctx, a, *pk, "silent")
				return true
			}
		} else {
			log.WithError(err).WithField("adapter", name).Debug("Silent reconnect failed")
		}
	}

	if err := m.connect(ctx, a, StatusIdle, true); err != nil {
		log.WithError(err).Warn("Failed to reconnect persisted wallet")
		return false
	}
	return true
}

func (m *Manager) restored(ctx context.Context, a Adapter, pk solana.PublicKey, via string) {
	m.establish(ctx, a, pk, false)
	m.metrics.ObserveConnect(a.Name(), "restored")
	m.log.WithFields(logrus.Fields{
		"adapter":    a.Name(),
		"public_key": pk.String(),
		"via":        via,
	}).Info("Wallet session restored")
}
