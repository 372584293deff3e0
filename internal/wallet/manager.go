// Package wallet owns the single wallet session: connecting and disconnecting
// adapters, keeping the session in step with the wallet, persisting it across
// restarts, and signing transactions.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/AlexZinkM/token-dapp/internal/common"
	"github.com/AlexZinkM/token-dapp/internal/observability"
	"github.com/AlexZinkM/token-dapp/internal/storage"
)

const (
	DefaultSessionTTL   = 2 * time.Hour
	DefaultPollInterval = time.Second
)

// Options configures a Manager.
type Options struct {
	Store    storage.KeyValueStore
	Dial     func(Network) Connection
	Adapters []Adapter

	// Injected is the raw injected wallet, if one is reachable. It backs the
	// adapter with the same name and serves as the signing fallback for it.
	Injected Provider

	DefaultNetwork Network
	SessionTTL     time.Duration
	PollInterval   time.Duration

	Logger  logrus.FieldLogger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// Manager holds the one wallet session of the process. Construct it once and share it.
type Manager struct {
	store    storage.KeyValueStore
	dial     func(Network) Connection
	adapters []Adapter
	injected Provider
	ttl      time.Duration
	poll     time.Duration
	log      logrus.FieldLogger
	metrics  *observability.Metrics
	now      func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc

	mu          sync.Mutex
	status      Status
	adapter     Adapter
	publicKey   *solana.PublicKey
	balance     uint64
	network     Network
	conn        Connection
	connectedAt time.Time
	manual      bool
	// gen changes whenever the session is replaced or cleared; observers
	// carry the gen they were installed for and are ignored once it moves on.
	gen       uint64
	stopWatch func()
}

// NewManager restores the persisted network and manual-disconnect flag and dials the network.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("wallet: store is required")
	}
	if opts.Dial == nil {
		return nil, errors.New("wallet: dial is required")
	}
	if opts.DefaultNetwork == "" {
		opts.DefaultNetwork = NetworkMainnet
	}
	if _, err := ParseNetwork(string(opts.DefaultNetwork)); err != nil {
		return nil, err
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		store:    opts.Store,
		dial:     opts.Dial,
		adapters: opts.Adapters,
		injected: opts.Injected,
		ttl:      opts.SessionTTL,
		poll:     opts.PollInterval,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
		baseCtx:  ctx,
		cancel:   cancel,
		network:  opts.DefaultNetwork,
	}

	if v, ok := m.load(KeyNetwork); ok {
		if n, err := ParseNetwork(v); err == nil {
			m.network = n
		} else {
			m.log.WithField("value", v).Warn("Ignoring persisted network")
		}
	}
	if v, ok := m.load(KeyManuallyDisconnected); ok && v == manualFlagValue {
		m.manual = true
	}
	m.conn = m.dial(m.network)

	return m, nil
}

// Close tears down all account observers. The wallet itself stays connected.
func (m *Manager) Close() {
	m.mu.Lock()
	stop := m.stopWatch
	m.stopWatch = nil
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	m.cancel()
}

// Adapters returns the configured adapters.
func (m *Manager) Adapters() []Adapter {
	out := make([]Adapter, len(m.adapters))
	copy(out, m.adapters)
	return out
}

// AdapterByName returns the configured adapter with the given name.
func (m *Manager) AdapterByName(name string) (Adapter, error) {
	for _, a := range m.adapters {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, name)
}

// Connect connects adapter interactively. A call while another connect is in
// flight returns nil without doing anything.
func (m *Manager) Connect(ctx context.Context, adapter Adapter) error {
	if adapter == nil {
		return ErrUnknownAdapter
	}

	m.mu.Lock()
	prev := m.status
	switch prev {
	case StatusConnecting:
		m.mu.Unlock()
		return nil
	case StatusDisconnecting:
		m.mu.Unlock()
		return ErrBusy
	case StatusConnected:
		if m.adapter.Name() == adapter.Name() {
			m.mu.Unlock()
			return nil
		}
	}
	m.status = StatusConnecting
	m.mu.Unlock()

	return m.connect(ctx, adapter, prev, true)
}

// ConnectByName looks the adapter up by name and connects it.
func (m *Manager) ConnectByName(ctx context.Context, name string) error {
	a, err := m.AdapterByName(name)
	if err != nil {
		return err
	}
	return m.Connect(ctx, a)
}

// connect runs the adapter's connect procedure. The caller has set StatusConnecting;
// on failure the status goes back to prev.
func (m *Manager) connect(ctx context.Context, adapter Adapter, prev Status, fresh bool) error {
	log := m.log.WithField("adapter", adapter.Name())

	err := adapter.Connect(ctx)
	var pk *solana.PublicKey
	if err == nil {
		pk = copyKey(adapter.PublicKey())
		if pk == nil || *pk == (solana.PublicKey{}) {
			err = ErrEmptyPublicKey
		}
	}
	if err != nil {
		m.mu.Lock()
		if m.status == StatusConnecting {
			m.status = prev
		}
		m.mu.Unlock()

		m.metrics.ObserveConnect(adapter.Name(), "error")
		log.WithError(err).Warn("Wallet connect failed")
		return fmt.Errorf("failed to connect %s: %w", adapter.Name(), err)
	}

	m.establish(ctx, adapter, *pk, fresh)
	m.metrics.ObserveConnect(adapter.Name(), "ok")
	log.WithField("public_key", pk.String()).Info("Wallet connected")
	return nil
}

// establish records a connected session, installs observers, persists it and
// refreshes the balance. fresh=false keeps the persisted connect time (restored session).
func (m *Manager) establish(ctx context.Context, adapter Adapter, pk solana.PublicKey, fresh bool) {
	connectedAt := m.now()
	if !fresh {
		if t, ok := m.storedConnectTime(); ok {
			connectedAt = t
		}
	}

	m.mu.Lock()
	oldAdapter, oldStop := m.adapter, m.stopWatch
	m.gen++
	gen := m.gen
	m.adapter = adapter
	m.publicKey = &pk
	m.balance = 0
	m.status = StatusConnected
	m.connectedAt = connectedAt
	m.manual = false
	m.stopWatch = nil
	m.mu.Unlock()

	if oldStop != nil {
		oldStop()
	}
	if oldAdapter != nil && oldAdapter.Name() != adapter.Name() {
		if err := oldAdapter.Disconnect(ctx); err != nil {
			m.log.WithError(err).WithField("adapter", oldAdapter.Name()).Warn("Failed to disconnect replaced wallet")
		}
	}

	m.installWatch(gen, adapter)

	m.save(KeyWalletName, adapter.Name())
	if fresh {
		m.save(KeyConnectTime, strconv.FormatInt(connectedAt.UnixMilli(), 10))
	}
	m.forget(KeyManuallyDisconnected)

	m.FetchBalance(ctx)
}

// Disconnect disconnects the active wallet and suppresses automatic reconnection
// until the next explicit connect. Without an active wallet it does nothing.
// If the wallet's disconnect fails the session stays connected.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.status == StatusDisconnecting:
		m.mu.Unlock()
		return nil
	case m.status == StatusConnecting:
		m.mu.Unlock()
		return ErrBusy
	case m.adapter == nil:
		m.mu.Unlock()
		return nil
	}
	adapter := m.adapter
	gen := m.gen
	stop := m.stopWatch
	m.stopWatch = nil
	m.status = StatusDisconnecting
	m.mu.Unlock()

	if stop != nil {
		stop()
	}

	if err := adapter.Disconnect(ctx); err != nil {
		m.mu.Lock()
		restored := m.gen == gen && m.status == StatusDisconnecting
		if restored {
			m.status = StatusConnected
		}
		m.mu.Unlock()
		if restored {
			m.installWatch(gen, adapter)
		}
		return fmt.Errorf("failed to disconnect %s: %w", adapter.Name(), err)
	}

	m.mu.Lock()
	m.clearLocked()
	m.manual = true
	m.mu.Unlock()

	m.save(KeyManuallyDisconnected, manualFlagValue)
	m.forget(KeyConnectTime)
	m.metrics.ObserveDisconnect("manual")
	m.log.WithField("adapter", adapter.Name()).Info("Wallet disconnected")
	return nil
}

// clearLocked resets the session to Idle and returns the observer teardown, which
// the caller must run after releasing mu.
func (m *Manager) clearLocked() func() {
	stop := m.stopWatch
	m.stopWatch = nil
	m.gen++
	m.adapter = nil
	m.publicKey = nil
	m.balance = 0
	m.status = StatusIdle
	m.connectedAt = time.Time{}
	if stop == nil {
		return func() {}
	}
	return stop
}

// Snapshot returns a copy of the session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Status:               m.status,
		BalanceLamports:      m.balance,
		BalanceSOL:           common.LamportsToSOL(m.balance),
		Network:              m.network,
		Endpoint:             m.conn.Endpoint(),
		ManuallyDisconnected: m.manual,
	}
	if m.adapter != nil {
		s.Adapter = m.adapter.Name()
	}
	if m.publicKey != nil {
		s.PublicKey = m.publicKey.String()
	}
	if !m.connectedAt.IsZero() {
		connectedAt := m.connectedAt
		expiresAt := connectedAt.Add(m.ttl)
		s.ConnectedAt = &connectedAt
		s.ExpiresAt = &expiresAt
	}
	return s
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// PublicKey returns the connected account, or nil.
func (m *Manager) PublicKey() *solana.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyKey(m.publicKey)
}

// Connection returns the connection of the selected network.
func (m *Manager) Connection() Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// Network returns the selected network.
func (m *Manager) Network() Network {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.network
}

func (m *Manager) load(key string) (string, bool) {
	v, ok, err := m.store.Get(key)
	if err != nil {
		m.log.WithError(err).WithField("key", key).Warn("Failed to read session state")
		return "", false
	}
	return v, ok
}

func (m *Manager) save(key, value string) {
	if err := m.store.Set(key, value); err != nil {
		m.log.WithError(err).WithField("key", key).Warn("Failed to persist session state")
	}
}

func (m *Manager) forget(keys ...string) {
	for _, key := range keys {
		if err := m.store.Remove(key); err != nil {
			m.log.WithError(err).WithField("key", key).Warn("Failed to clear session state")
		}
	}
}

func (m *Manager) storedConnectTime() (time.Time, bool) {
	v, ok := m.load(KeyConnectTime)
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		m.log.WithField("value", v).Warn("Ignoring malformed connect time")
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
