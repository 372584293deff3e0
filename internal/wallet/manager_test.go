package wallet

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RestoresNetwork(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		require.NoError(t, o.Store.Set(KeyNetwork, "devnet"))
	})
	assert.Equal(t, NetworkDevnet, h.m.Network())
	assert.Equal(t, "https://devnet.test", h.m.Connection().Endpoint())

	h = newHarness(t, func(o *Options) {
		require.NoError(t, o.Store.Set(KeyNetwork, "testnet"))
	})
	assert.Equal(t, NetworkMainnet, h.m.Network())
}

func TestNewManager_RequiresStoreAndDial(t *testing.T) {
	_, err := NewManager(Options{Dial: (&fakeDialer{}).dial})
	assert.Error(t, err)

	_, err = NewManager(Options{Store: &countingStore{}})
	assert.Error(t, err)
}

func TestConnectDisconnect(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	ctx := context.Background()

	require.NoError(t, h.m.ConnectByName(ctx, "Solflare"))

	snap := h.m.Snapshot()
	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, "Solflare", snap.Adapter)
	assert.Equal(t, a.connectKey.String(), snap.PublicKey)
	assert.Equal(t, uint64(5_000_000_000), snap.BalanceLamports)
	assert.Equal(t, "5.000000000", snap.BalanceSOL)
	require.NotNil(t, snap.ExpiresAt)
	assert.Equal(t, testNow.Add(DefaultSessionTTL), *snap.ExpiresAt)

	name, _ := h.stored(KeyWalletName)
	assert.Equal(t, "Solflare", name)
	ts, _ := h.stored(KeyConnectTime)
	assert.Equal(t, strconv.FormatInt(testNow.UnixMilli(), 10), ts)

	require.NoError(t, h.m.Disconnect(ctx))

	snap = h.m.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Empty(t, snap.PublicKey)
	assert.Zero(t, snap.BalanceLamports)
	assert.True(t, snap.ManuallyDisconnected)
	assert.Nil(t, h.m.PublicKey())

	flag, _ := h.stored(KeyManuallyDisconnected)
	assert.Equal(t, "true", flag)
	_, ok := h.stored(KeyConnectTime)
	assert.False(t, ok)
	_, disconnects := a.counts()
	assert.Equal(t, 1, disconnects)

	require.NoError(t, h.m.ConnectByName(ctx, "Solflare"))
	_, ok = h.stored(KeyManuallyDisconnected)
	assert.False(t, ok, "explicit connect clears the manual flag")
	assert.False(t, h.m.Snapshot().ManuallyDisconnected)
}

func TestConnect_UnknownAdapter(t *testing.T) {
	h := newHarness(t, nil)
	err := h.m.ConnectByName(context.Background(), "Nope")
	assert.ErrorIs(t, err, ErrUnknownAdapter)
}

func TestConnect_NoOpWhileConnecting(t *testing.T) {
	slow := newFakeAdapter("Slow")
	slow.block = make(chan struct{})
	other := newFakeAdapter("Other")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{slow, other} })
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- h.m.Connect(ctx, slow) }()

	require.Eventually(t, func() bool { return h.m.Status() == StatusConnecting }, time.Second, time.Millisecond)

	assert.NoError(t, h.m.Connect(ctx, other))
	connects, _ := other.counts()
	assert.Zero(t, connects, "second connect must not reach the adapter")

	close(slow.block)
	require.NoError(t, <-done)
	assert.Equal(t, "Slow", h.m.Snapshot().Adapter)
}

func TestConnect_EmptyKeyRestoresStatus(t *testing.T) {
	a := newFakeAdapter("Empty")
	a.connectKey = nil
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })

	err := h.m.Connect(context.Background(), a)
	assert.ErrorIs(t, err, ErrEmptyPublicKey)
	assert.Equal(t, StatusIdle, h.m.Status())
	_, ok := h.stored(KeyWalletName)
	assert.False(t, ok)
}

func TestConnect_FailureKeepsPreviousSession(t *testing.T) {
	good := newFakeAdapter("Good")
	bad := newFakeAdapter("Bad")
	bad.connectErr = ErrUserRejected
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{good, bad} })
	ctx := context.Background()

	require.NoError(t, h.m.Connect(ctx, good))
	err := h.m.Connect(ctx, bad)
	assert.ErrorIs(t, err, ErrUserRejected)

	snap := h.m.Snapshot()
	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, "Good", snap.Adapter)
}

func TestConnect_SwitchingAdapterDisconnectsPrevious(t *testing.T) {
	first := newFakeAdapter("First")
	second := newFakeAdapter("Second")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{first, second} })
	ctx := context.Background()

	require.NoError(t, h.m.Connect(ctx, first))
	require.NoError(t, h.m.Connect(ctx, second))

	_, disconnects := first.counts()
	assert.Equal(t, 1, disconnects)
	assert.Equal(t, second.connectKey.String(), h.m.Snapshot().PublicKey)
	name, _ := h.stored(KeyWalletName)
	assert.Equal(t, "Second", name)
}

func TestDisconnect_FailureRestoresConnected(t *testing.T) {
	a := newFakeAdapter("Sticky")
	a.disconnectErr = errors.New("wallet busy")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	ctx := context.Background()

	require.NoError(t, h.m.Connect(ctx, a))
	err := h.m.Disconnect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, a.disconnectErr)

	snap := h.m.Snapshot()
	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, a.connectKey.String(), snap.PublicKey)
	_, ok := h.stored(KeyManuallyDisconnected)
	assert.False(t, ok)
	_, ok = h.stored(KeyConnectTime)
	assert.True(t, ok)
}

func TestDisconnect_WithoutAdapterIsNoOp(t *testing.T) {
	h := newHarness(t, nil)
	assert.NoError(t, h.m.Disconnect(context.Background()))
	assert.Equal(t, StatusIdle, h.m.Status())
	assert.Zero(t, h.store.writes())
}

func TestAutoConnect_NoPersistedSession(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })

	assert.False(t, h.m.AutoConnect(context.Background()))
	assert.Equal(t, StatusIdle, h.m.Status())
	connects, _ := a.counts()
	assert.Zero(t, connects)
}

func TestAutoConnect_AfterManualDisconnect(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	ctx := context.Background()

	require.NoError(t, h.m.Connect(ctx, a))
	require.NoError(t, h.m.Disconnect(ctx))
	assert.False(t, h.m.AutoConnect(ctx))

	// A stale connect time left behind by an older build must not override the flag.
	require.NoError(t, h.store.Set(KeyConnectTime, strconv.FormatInt(testNow.UnixMilli(), 10)))
	assert.False(t, h.m.AutoConnect(ctx))

	connects, _ := a.counts()
	assert.Equal(t, 1, connects)
	_, ok := h.stored(KeyConnectTime)
	assert.False(t, ok)
	_, ok = h.stored(KeyWalletName)
	assert.False(t, ok)
	flag, _ := h.stored(KeyManuallyDisconnected)
	assert.Equal(t, "true", flag)
}

func TestAutoConnect_ExpiredSession(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		require.NoError(t, o.Store.Set(KeyWalletName, "Solflare"))
		require.NoError(t, o.Store.Set(KeyConnectTime, strconv.FormatInt(testNow.Add(-3*time.Hour).UnixMilli(), 10)))
	})

	assert.False(t, h.m.AutoConnect(context.Background()))
	_, ok := h.stored(KeyConnectTime)
	assert.False(t, ok)
	_, ok = h.stored(KeyWalletName)
	assert.False(t, ok)
	connects, _ := a.counts()
	assert.Zero(t, connects)
}

func TestAutoConnect_SilentReconnectKeepsConnectTime(t *testing.T) {
	a := &silentAdapter{fakeAdapter: newFakeAdapter("Keystore")}
	connectedAt := testNow.Add(-30 * time.Minute)
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		require.NoError(t, o.Store.Set(KeyWalletName, "Keystore"))
		require.NoError(t, o.Store.Set(KeyConnectTime, strconv.FormatInt(connectedAt.UnixMilli(), 10)))
	})

	require.True(t, h.m.AutoConnect(context.Background()))

	snap := h.m.Snapshot()
	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, a.connectKey.String(), snap.PublicKey)
	require.NotNil(t, snap.ConnectedAt)
	assert.True(t, connectedAt.Equal(*snap.ConnectedAt))

	ts, _ := h.stored(KeyConnectTime)
	assert.Equal(t, strconv.FormatInt(connectedAt.UnixMilli(), 10), ts)
	connects, _ := a.counts()
	assert.Zero(t, connects)
	assert.Equal(t, 1, a.silent)
}

func TestAutoConnect_InteractiveFallback(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		require.NoError(t, o.Store.Set(KeyWalletName, "Solflare"))
		require.NoError(t, o.Store.Set(KeyConnectTime, strconv.FormatInt(testNow.Add(-time.Hour).UnixMilli(), 10)))
	})

	require.True(t, h.m.AutoConnect(context.Background()))
	connects, _ := a.counts()
	assert.Equal(t, 1, connects)
	ts, _ := h.stored(KeyConnectTime)
	assert.Equal(t, strconv.FormatInt(testNow.UnixMilli(), 10), ts)
}

func TestAutoConnect_TrustedInjectedWallet(t *testing.T) {
	p := newFakeProvider("Phantom")
	p.trusted = true
	injected := NewInjectedAdapter(p)
	other := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{other, injected}
		o.Injected = p
		require.NoError(t, o.Store.Set(KeyWalletName, "Solflare"))
		require.NoError(t, o.Store.Set(KeyConnectTime, strconv.FormatInt(testNow.UnixMilli(), 10)))
	})

	require.True(t, h.m.AutoConnect(context.Background()))
	snap := h.m.Snapshot()
	assert.Equal(t, "Phantom", snap.Adapter)
	assert.Equal(t, p.key.String(), snap.PublicKey)
	connects, _ := other.counts()
	assert.Zero(t, connects)
}

func TestAutoConnect_AlreadyAuthorizedAdapter(t *testing.T) {
	a := newFakeAdapter("Solflare")
	a.setKey(a.connectKey)
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		require.NoError(t, o.Store.Set(KeyConnectTime, strconv.FormatInt(testNow.UnixMilli(), 10)))
	})

	require.True(t, h.m.AutoConnect(context.Background()))
	assert.Equal(t, a.connectKey.String(), h.m.Snapshot().PublicKey)
	connects, _ := a.counts()
	assert.Zero(t, connects)
}

func TestAutoConnect_WhenConnected(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	require.NoError(t, h.m.Connect(context.Background(), a))
	assert.True(t, h.m.AutoConnect(context.Background()))
}

func TestSwitchNetwork(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	ctx := context.Background()
	require.NoError(t, h.m.Connect(ctx, a))

	mainnet := h.dialer.conn(NetworkMainnet)
	writes, calls := h.store.writes(), mainnet.calls()

	require.NoError(t, h.m.SwitchNetwork(ctx, NetworkMainnet))
	assert.Equal(t, writes, h.store.writes(), "same network must not write")
	assert.Equal(t, calls, mainnet.calls(), "same network must not refresh")

	devnet := h.dialer.conn(NetworkDevnet)
	devnet.balance = 42
	require.NoError(t, h.m.SwitchNetwork(ctx, NetworkDevnet))

	stored, _ := h.stored(KeyNetwork)
	assert.Equal(t, "devnet", stored)
	assert.Equal(t, 1, devnet.calls())
	snap := h.m.Snapshot()
	assert.Equal(t, uint64(42), snap.BalanceLamports)
	assert.Equal(t, "https://devnet.test", snap.Endpoint)

	assert.ErrorIs(t, h.m.SwitchNetwork(ctx, "testnet"), ErrUnknownNetwork)
	assert.Equal(t, NetworkDevnet, h.m.Network())
}

func TestFetchBalance(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	ctx := context.Background()

	h.m.FetchBalance(ctx)
	assert.Zero(t, h.m.Snapshot().BalanceLamports)
	assert.Zero(t, h.dialer.conn(NetworkMainnet).calls())

	require.NoError(t, h.m.Connect(ctx, a))
	assert.Equal(t, uint64(5_000_000_000), h.m.Snapshot().BalanceLamports)

	conn := h.dialer.conn(NetworkMainnet)
	conn.mu.Lock()
	conn.balanceErr = errors.New("rpc down")
	conn.mu.Unlock()

	h.m.FetchBalance(ctx)
	assert.Zero(t, h.m.Snapshot().BalanceLamports)
}

func TestReconcile_PollDetectsAccountChange(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		o.PollInterval = 5 * time.Millisecond
	})
	require.NoError(t, h.m.Connect(context.Background(), a))
	conn := h.dialer.conn(NetworkMainnet)
	require.Equal(t, 1, conn.calls())

	next := newKey()
	a.setKey(&next)

	require.Eventually(t, func() bool {
		return h.m.Snapshot().PublicKey == next.String()
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return conn.calls() == 2 }, time.Second, time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, conn.calls(), "one refresh per account change")
}

func TestReconcile_PollDetectsExternalDisconnect(t *testing.T) {
	a := newFakeAdapter("Solflare")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		o.PollInterval = 5 * time.Millisecond
	})
	require.NoError(t, h.m.Connect(context.Background(), a))

	a.setKey(nil)

	require.Eventually(t, func() bool { return h.m.Status() == StatusIdle }, time.Second, time.Millisecond)
	snap := h.m.Snapshot()
	assert.False(t, snap.ManuallyDisconnected)
	assert.Zero(t, snap.BalanceLamports)
	name, _ := h.stored(KeyWalletName)
	assert.Equal(t, "Solflare", name)
}

func TestReconcile_ProviderEvents(t *testing.T) {
	p := newFakeProvider("Phantom")
	injected := NewInjectedAdapter(p)
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{injected}
		o.Injected = p
	})
	ctx := context.Background()
	require.NoError(t, h.m.Connect(ctx, injected))
	require.Positive(t, p.listenerCount())

	next := newKey()
	p.emit(Event{Name: EventAccountChanged, PublicKey: &next})
	assert.Equal(t, next.String(), h.m.Snapshot().PublicKey)
	assert.Equal(t, 2, h.dialer.conn(NetworkMainnet).calls())

	p.emit(Event{Name: EventAccountChanged, PublicKey: &next})
	assert.Equal(t, 2, h.dialer.conn(NetworkMainnet).calls(), "same key is not a change")

	p.emit(Event{Name: EventDisconnect})
	assert.Equal(t, StatusIdle, h.m.Status())
	assert.Zero(t, p.listenerCount(), "listeners are removed with the session")
	_, ok := h.stored(KeyManuallyDisconnected)
	assert.False(t, ok)
}

func TestReconcile_AdapterEvents(t *testing.T) {
	a := newEventAdapter("Backpack")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
	})
	ctx := context.Background()
	require.NoError(t, h.m.Connect(ctx, a))
	assert.Equal(t, 3, a.events.listenerCount())
	conn := h.dialer.conn(NetworkMainnet)
	require.Equal(t, 1, conn.calls())

	next := newKey()
	a.emit(Event{Name: EventAccountChanged, PublicKey: &next})
	assert.Equal(t, next.String(), h.m.Snapshot().PublicKey)
	assert.Equal(t, 2, conn.calls())

	a.emit(Event{Name: EventDisconnect})
	assert.Equal(t, StatusIdle, h.m.Status())
	assert.False(t, h.m.Snapshot().ManuallyDisconnected)
	_, ok := h.stored(KeyManuallyDisconnected)
	assert.False(t, ok)
	assert.Zero(t, a.events.listenerCount(), "listeners are removed with the session")
}

func TestReconcile_ListenersRemovedOnManualDisconnect(t *testing.T) {
	p := newFakeProvider("Phantom")
	injected := NewInjectedAdapter(p)
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{injected}
		o.Injected = p
	})
	ctx := context.Background()
	require.NoError(t, h.m.Connect(ctx, injected))
	require.NoError(t, h.m.Disconnect(ctx))
	assert.Zero(t, p.listenerCount())

	next := newKey()
	p.emit(Event{Name: EventAccountChanged, PublicKey: &next})
	assert.Equal(t, StatusIdle, h.m.Status())
}

func TestSendTransaction(t *testing.T) {
	sig := solana.Signature{1, 2, 3}
	a := newFakeAdapter("Solflare")
	a.sendSig = sig
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	ctx := context.Background()

	_, err := h.m.SendTransaction(ctx, &solana.Transaction{})
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, h.m.Connect(ctx, a))
	got, err := h.m.SendTransaction(ctx, &solana.Transaction{})
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	assert.Equal(t, []solana.Signature{sig}, h.dialer.conn(NetworkMainnet).confirmed)
}

func TestSendTransaction_ConfirmFailure(t *testing.T) {
	sig := solana.Signature{9}
	a := newFakeAdapter("Solflare")
	a.sendSig = sig
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	ctx := context.Background()
	require.NoError(t, h.m.Connect(ctx, a))

	conn := h.dialer.conn(NetworkMainnet)
	conn.confirmErr = errors.New("blockhash expired")

	_, err := h.m.SendTransaction(ctx, &solana.Transaction{})
	var te *TransactionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "confirm", te.Op)
	assert.Equal(t, sig, te.Signature)
	assert.ErrorIs(t, err, conn.confirmErr)
}

func TestSendTransaction_FallbackCarriesBothErrors(t *testing.T) {
	p := newFakeProvider("Phantom")
	p.sendErr = errors.New("fallback failed")
	a := newFakeAdapter("Phantom")
	a.sendErr = errors.New("adapter failed")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		o.Injected = p
	})
	ctx := context.Background()
	require.NoError(t, h.m.Connect(ctx, a))

	_, err := h.m.SendTransaction(ctx, &solana.Transaction{})
	var te *TransactionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, a.sendErr, te.Err)
	assert.Equal(t, p.sendErr, te.FallbackErr)
	assert.ErrorIs(t, err, a.sendErr)
	assert.ErrorIs(t, err, p.sendErr)
	assert.True(t, IsTransactionError(err))
	assert.Contains(t, err.Error(), "adapter failed")
	assert.Contains(t, err.Error(), "fallback failed")
}

func TestSendTransaction_FallbackSucceeds(t *testing.T) {
	sig := solana.Signature{7}
	p := newFakeProvider("Phantom")
	p.sendSig = sig
	a := newFakeAdapter("Phantom")
	a.sendErr = errors.New("adapter failed")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		o.Injected = p
	})
	ctx := context.Background()
	require.NoError(t, h.m.Connect(ctx, a))

	got, err := h.m.SendTransaction(ctx, &solana.Transaction{})
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	assert.Equal(t, 1, p.sends)
}

func TestSendTransaction_NoFallbackForOtherWallet(t *testing.T) {
	p := newFakeProvider("Phantom")
	a := newFakeAdapter("Solflare")
	a.sendErr = errors.New("adapter failed")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		o.Injected = p
	})
	ctx := context.Background()
	require.NoError(t, h.m.Connect(ctx, a))

	_, err := h.m.SendTransaction(ctx, &solana.Transaction{})
	var te *TransactionError
	require.ErrorAs(t, err, &te)
	assert.NoError(t, te.FallbackErr)
	assert.Zero(t, p.sends)
}

func TestSignTransactions_Fallback(t *testing.T) {
	p := newFakeProvider("Phantom")
	a := newFakeAdapter("Phantom")
	a.signErr = errors.New("adapter sign failed")
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{a}
		o.Injected = p
	})
	ctx := context.Background()

	_, err := h.m.SignTransaction(ctx, &solana.Transaction{})
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, h.m.Connect(ctx, a))
	tx := &solana.Transaction{}
	signed, err := h.m.SignTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Same(t, tx, signed)

	all, err := h.m.SignAllTransactions(ctx, []*solana.Transaction{tx, tx})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	p.signErr = errors.New("provider sign failed")
	_, err = h.m.SignAllTransactions(ctx, []*solana.Transaction{tx})
	var te *TransactionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "sign all", te.Op)
	assert.ErrorIs(t, err, p.signErr)
}

func TestClose_StopsObservers(t *testing.T) {
	p := newFakeProvider("Phantom")
	injected := NewInjectedAdapter(p)
	h := newHarness(t, func(o *Options) {
		o.Adapters = []Adapter{injected}
		o.Injected = p
	})
	require.NoError(t, h.m.Connect(context.Background(), injected))

	h.m.Close()
	assert.Zero(t, p.listenerCount())
	assert.Equal(t, StatusConnected, h.m.Status())
}
