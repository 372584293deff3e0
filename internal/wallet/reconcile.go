package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// installWatch starts observers for adapter and records their teardown, unless
// the session moved past gen in the meantime. It runs without mu held because
// subscribing may take the provider's own lock.
func (m *Manager) installWatch(gen uint64, adapter Adapter) {
	stop := m.watch(gen, adapter)

	m.mu.Lock()
	if m.gen != gen || m.status != StatusConnected {
		m.mu.Unlock()
		stop()
		return
	}
	m.stopWatch = stop
	m.mu.Unlock()
}

// watch subscribes to every signal that can reveal an account change: injected
// wallet events, adapter events, adapter key streams and a poll of the adapter
// key. All of them feed reconcile and are torn down by the returned func.
func (m *Manager) watch(gen uint64, adapter Adapter) func() {
	ctx, cancel := context.WithCancel(m.baseCtx)
	var unsubs []func()

	onEvent := func(e Event) {
		if ctx.Err() != nil {
			return
		}
		switch e.Name {
		case EventDisconnect:
			m.reconcile(ctx, gen, nil)
		case EventAccountChanged:
			m.reconcile(ctx, gen, e.PublicKey)
		case EventConnect:
			if e.PublicKey != nil {
				m.reconcile(ctx, gen, e.PublicKey)
			}
		}
	}
	subscribe := func(on func(EventName, Listener) func()) {
		for _, name := range []EventName{EventConnect, EventDisconnect, EventAccountChanged} {
			unsubs = append(unsubs, on(name, onEvent))
		}
	}

	if m.injected != nil && m.injected.Name() == adapter.Name() {
		subscribe(m.injected.On)
	}
	if src, ok := adapter.(EventSource); ok {
		subscribe(src.On)
	}
	if kw, ok := adapter.(KeyWatcher); ok {
		keys := kw.WatchPublicKey(ctx)
		go func() {
			for pk := range keys {
				if ctx.Err() != nil {
					return
				}
				m.reconcile(ctx, gen, pk)
			}
		}()
	}
	go m.pollKey(ctx, gen, adapter)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			for _, unsub := range unsubs {
				unsub()
			}
		})
	}
}

func (m *Manager) pollKey(ctx context.Context, gen uint64, adapter Adapter) {
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reconcile(ctx, gen, adapter.PublicKey())
		}
	}
}

// reconcile brings the session in line with the account the wallet reports.
// A nil key means the wallet no longer exposes an account: the session is
// cleared, but the persisted wallet name stays so a later start can restore it.
// A different key replaces the session key and refreshes the balance once.
func (m *Manager) reconcile(ctx context.Context, gen uint64, observed *solana.PublicKey) {
	m.mu.Lock()
	if m.gen != gen || m.status != StatusConnected || m.publicKey == nil {
		m.mu.Unlock()
		return
	}

	if observed == nil || *observed == (solana.PublicKey{}) {
		name := m.adapter.Name()
		stop := m.clearLocked()
		m.mu.Unlock()

		stop()
		m.metrics.ObserveDisconnect("external")
		m.log.WithField("adapter", name).Info("Wallet disconnected externally")
		return
	}

	if m.publicKey.Equals(*observed) {
		m.mu.Unlock()
		return
	}
	prev := *m.publicKey
	m.publicKey = copyKey(observed)
	m.mu.Unlock()

	m.metrics.ObserveAccountChange()
	m.log.WithFields(logrus.Fields{
		"previous":   prev.String(),
		"public_key": observed.String(),
	}).Info("Wallet account changed")

	m.FetchBalance(ctx)
}
