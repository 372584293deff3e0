package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/AlexZinkM/token-dapp/internal/client"
	"github.com/AlexZinkM/token-dapp/internal/storage/memory"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

type fakeConn struct {
	endpoint string

	mu           sync.Mutex
	balance      uint64
	balanceErr   error
	balanceCalls int
	sendSig      solana.Signature
	sendErr      error
	confirmErr   error
	confirmed    []solana.Signature
}

func (c *fakeConn) Endpoint() string { return c.endpoint }

func (c *fakeConn) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balanceCalls++
	return c.balance, c.balanceErr
}

func (c *fakeConn) GetAccountInfo(context.Context, solana.PublicKey) (*client.AccountInfo, error) {
	return nil, nil
}

func (c *fakeConn) GetAccountInfoRaw(context.Context, solana.PublicKey) (*client.AccountInfo, error) {
	return nil, nil
}

func (c *fakeConn) SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	return c.sendSig, c.sendErr
}

func (c *fakeConn) ConfirmTransaction(_ context.Context, sig solana.Signature) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmed = append(c.confirmed, sig)
	return c.confirmErr
}

func (c *fakeConn) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (c *fakeConn) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceCalls
}

type fakeDialer struct {
	mu    sync.Mutex
	conns map[Network]*fakeConn
}

func (d *fakeDialer) dial(n Network) Connection {
	return d.conn(n)
}

func (d *fakeDialer) conn(n Network) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conns == nil {
		d.conns = make(map[Network]*fakeConn)
	}
	c, ok := d.conns[n]
	if !ok {
		c = &fakeConn{endpoint: "https://" + string(n) + ".test", balance: 5_000_000_000}
		d.conns[n] = c
	}
	return c
}

type fakeAdapter struct {
	name string

	mu            sync.Mutex
	key           *solana.PublicKey
	connectKey    *solana.PublicKey
	connectErr    error
	disconnectErr error
	sendErr       error
	signErr       error
	sendSig       solana.Signature
	block         chan struct{}
	connects      int
	disconnects   int
}

func newFakeAdapter(name string) *fakeAdapter {
	pk := newKey()
	return &fakeAdapter{name: name, connectKey: &pk}
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Connect(ctx context.Context) error {
	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connects++
	if a.connectErr != nil {
		return a.connectErr
	}
	a.key = copyKey(a.connectKey)
	return nil
}

func (a *fakeAdapter) Disconnect(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disconnects++
	if a.disconnectErr != nil {
		return a.disconnectErr
	}
	a.key = nil
	return nil
}

func (a *fakeAdapter) PublicKey() *solana.PublicKey {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyKey(a.key)
}

func (a *fakeAdapter) setKey(pk *solana.PublicKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.key = copyKey(pk)
}

func (a *fakeAdapter) counts() (connects, disconnects int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connects, a.disconnects
}

func (a *fakeAdapter) SendTransaction(context.Context, *solana.Transaction, Connection) (solana.Signature, error) {
	if a.sendErr != nil {
		return solana.Signature{}, a.sendErr
	}
	return a.sendSig, nil
}

func (a *fakeAdapter) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if a.signErr != nil {
		return nil, a.signErr
	}
	return tx, nil
}

func (a *fakeAdapter) SignAllTransactions(_ context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	if a.signErr != nil {
		return nil, a.signErr
	}
	return txs, nil
}

// silentAdapter reconnects without interaction.
type silentAdapter struct {
	*fakeAdapter
	silent int
}

func (a *silentAdapter) AutoConnect(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.silent++
	a.key = copyKey(a.connectKey)
	return nil
}

// eventAdapter emits its own wallet events.
type eventAdapter struct {
	*fakeAdapter
	events *fakeProvider
}

func newEventAdapter(name string) *eventAdapter {
	return &eventAdapter{fakeAdapter: newFakeAdapter(name), events: newFakeProvider(name)}
}

func (a *eventAdapter) On(event EventName, l Listener) func() {
	return a.events.On(event, l)
}

func (a *eventAdapter) emit(e Event) {
	switch e.Name {
	case EventDisconnect:
		a.setKey(nil)
	case EventAccountChanged:
		a.setKey(e.PublicKey)
	}
	a.events.emit(e)
}

type fakeProvider struct {
	name string

	mu        sync.Mutex
	key       *solana.PublicKey
	connected bool
	trusted   bool
	sendSig   solana.Signature
	sendErr   error
	signErr   error
	sends     int
	listeners map[EventName]map[int]Listener
	nextID    int
}

func newFakeProvider(name string) *fakeProvider {
	pk := newKey()
	return &fakeProvider{name: name, key: &pk}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Connect(_ context.Context, onlyIfTrusted bool) (solana.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if onlyIfTrusted && !p.trusted {
		return solana.PublicKey{}, ErrUserRejected
	}
	p.connected = true
	p.trusted = true
	return *p.key, nil
}

func (p *fakeProvider) Disconnect(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	return nil
}

func (p *fakeProvider) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakeProvider) PublicKey() *solana.PublicKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyKey(p.key)
}

func (p *fakeProvider) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if p.signErr != nil {
		return nil, p.signErr
	}
	return tx, nil
}

func (p *fakeProvider) SignAllTransactions(_ context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	if p.signErr != nil {
		return nil, p.signErr
	}
	return txs, nil
}

func (p *fakeProvider) SignAndSendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sends++
	return p.sendSig, p.sendErr
}

func (p *fakeProvider) On(event EventName, l Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listeners == nil {
		p.listeners = make(map[EventName]map[int]Listener)
	}
	if p.listeners[event] == nil {
		p.listeners[event] = make(map[int]Listener)
	}
	p.nextID++
	id := p.nextID
	p.listeners[event][id] = l
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners[event], id)
	}
}

func (p *fakeProvider) emit(e Event) {
	p.mu.Lock()
	switch e.Name {
	case EventDisconnect:
		p.connected = false
	case EventAccountChanged:
		p.key = copyKey(e.PublicKey)
	}
	ls := make([]Listener, 0, len(p.listeners[e.Name]))
	for _, l := range p.listeners[e.Name] {
		ls = append(ls, l)
	}
	p.mu.Unlock()

	for _, l := range ls {
		l(e)
	}
}

func (p *fakeProvider) listenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ls := range p.listeners {
		n += len(ls)
	}
	return n
}

// countingStore counts writes to the underlying store.
type countingStore struct {
	*memory.KVStore
	mu   sync.Mutex
	sets int
}

func (s *countingStore) Set(key, value string) error {
	s.mu.Lock()
	s.sets++
	s.mu.Unlock()
	return s.KVStore.Set(key, value)
}

func (s *countingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

type harness struct {
	m      *Manager
	store  *countingStore
	dialer *fakeDialer
	logs   *test.Hook
}

func newHarness(t *testing.T, configure func(*Options)) *harness {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{
		store:  &countingStore{KVStore: memory.NewKVStore()},
		dialer: &fakeDialer{},
		logs:   hook,
	}
	opts := Options{
		Store:        h.store,
		Dial:         h.dialer.dial,
		PollInterval: time.Hour,
		Logger:       logger,
		Now:          func() time.Time { return testNow },
	}
	if configure != nil {
		configure(&opts)
	}

	m, err := NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(m.Close)
	h.m = m
	return h
}

func (h *harness) stored(key string) (string, bool) {
	v, ok, _ := h.store.Get(key)
	return v, ok
}
