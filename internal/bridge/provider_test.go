package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/token-dapp/internal/wallet"
)

// fakeRelay plays the browser page: it answers requests with handle and can push events.
type fakeRelay struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (r *fakeRelay) send(t *testing.T, v interface{}) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NoError(t, r.conn.WriteJSON(v))
}

func newProvider(t *testing.T, cfg Config) (*Provider, *httptest.Server) {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "Phantom"
	}
	log, _ := test.NewNullLogger()
	p := NewProvider(cfg, log)
	server := httptest.NewServer(p)
	t.Cleanup(server.Close)
	return p, server
}

func attachRelay(t *testing.T, p *Provider, server *httptest.Server, handle func(request) message) *fakeRelay {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	r := &fakeRelay{conn: conn}
	go func() {
		for {
			var req request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if handle == nil {
				continue
			}
			resp := handle(req)
			resp.ID = req.ID
			r.mu.Lock()
			err := conn.WriteJSON(resp)
			r.mu.Unlock()
			if err != nil {
				return
			}
		}
	}()

	require.Eventually(t, p.Attached, time.Second, time.Millisecond)
	return r
}

func result(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func collect(p *Provider, name wallet.EventName) <-chan wallet.Event {
	ch := make(chan wallet.Event, 8)
	p.On(name, func(e wallet.Event) { ch <- e })
	return ch
}

func waitEvent(t *testing.T, ch <-chan wallet.Event) wallet.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return wallet.Event{}
	}
}

func TestProvider_NoRelay(t *testing.T) {
	p, _ := newProvider(t, Config{})

	_, err := p.Connect(context.Background(), false)
	assert.ErrorIs(t, err, wallet.ErrWalletNotDetected)
	assert.NoError(t, p.Disconnect(context.Background()))
	assert.False(t, p.IsConnected())
	assert.Nil(t, p.PublicKey())
}

func TestProvider_Connect(t *testing.T) {
	p, server := newProvider(t, Config{})
	key := solana.NewWallet().PublicKey()

	var gotParams json.RawMessage
	var mu sync.Mutex
	attachRelay(t, p, server, func(req request) message {
		mu.Lock()
		gotParams = result(t, req.Params)
		mu.Unlock()
		assert.Equal(t, "connect", req.Method)
		return message{Result: result(t, map[string]string{"publicKey": key.String()})}
	})
	connects := collect(p, wallet.EventConnect)

	pk, err := p.Connect(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, key, pk)
	assert.True(t, p.IsConnected())
	assert.Equal(t, key, *p.PublicKey())

	mu.Lock()
	assert.JSONEq(t, `{"onlyIfTrusted":true}`, string(gotParams))
	mu.Unlock()

	e := waitEvent(t, connects)
	require.NotNil(t, e.PublicKey)
	assert.Equal(t, key, *e.PublicKey)
}

func TestProvider_UserRejected(t *testing.T) {
	p, server := newProvider(t, Config{})
	attachRelay(t, p, server, func(request) message {
		return message{Error: &RelayError{Code: CodeUserRejected, Message: "User rejected the request."}}
	})

	_, err := p.Connect(context.Background(), false)
	assert.ErrorIs(t, err, wallet.ErrUserRejected)
	var relayErr *RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, "User rejected the request.", relayErr.Message)
	assert.False(t, p.IsConnected())
}

func TestProvider_RelayEvents(t *testing.T) {
	p, server := newProvider(t, Config{})
	r := attachRelay(t, p, server, nil)
	changes := collect(p, wallet.EventAccountChanged)
	connects := collect(p, wallet.EventConnect)

	first := solana.NewWallet().PublicKey().String()
	r.send(t, map[string]interface{}{"event": "connect", "publicKey": first})
	e := waitEvent(t, connects)
	assert.Equal(t, first, e.PublicKey.String())
	assert.True(t, p.IsConnected())

	next := solana.NewWallet().PublicKey().String()
	r.send(t, map[string]interface{}{"event": "accountChanged", "publicKey": next})
	e = waitEvent(t, changes)
	require.NotNil(t, e.PublicKey)
	assert.Equal(t, next, e.PublicKey.String())
	assert.Equal(t, next, p.PublicKey().String())

	r.send(t, map[string]interface{}{"event": "accountChanged", "publicKey": nil})
	e = waitEvent(t, changes)
	assert.Nil(t, e.PublicKey)
	assert.Nil(t, p.PublicKey())
}

func TestProvider_RelayCloseEmitsDisconnect(t *testing.T) {
	p, server := newProvider(t, Config{})
	key := solana.NewWallet().PublicKey()
	r := attachRelay(t, p, server, func(request) message {
		return message{Result: result(t, map[string]string{"publicKey": key.String()})}
	})
	disconnects := collect(p, wallet.EventDisconnect)

	_, err := p.Connect(context.Background(), false)
	require.NoError(t, err)

	r.conn.Close()
	waitEvent(t, disconnects)
	assert.False(t, p.IsConnected())
	require.Eventually(t, func() bool { return !p.Attached() }, time.Second, time.Millisecond)
}

func TestProvider_PendingRequestFailsOnDetach(t *testing.T) {
	p, server := newProvider(t, Config{})
	var r *fakeRelay
	ready := make(chan struct{})
	r = attachRelay(t, p, server, func(request) message {
		<-ready
		r.conn.Close()
		return message{}
	})
	close(ready)

	_, err := p.Connect(context.Background(), false)
	assert.ErrorIs(t, err, wallet.ErrWalletNotDetected)
}

func TestProvider_RequestTimeout(t *testing.T) {
	p, server := newProvider(t, Config{RequestTimeout: 50 * time.Millisecond})
	attachRelay(t, p, server, nil)

	_, err := p.Connect(context.Background(), false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProvider_Signing(t *testing.T) {
	p, server := newProvider(t, Config{})
	sig := solana.Signature{1, 2, 3}
	attachRelay(t, p, server, func(req request) message {
		params, _ := req.Params.(map[string]interface{})
		switch req.Method {
		case "signTransaction":
			return message{Result: result(t, map[string]interface{}{"transaction": params["transaction"]})}
		case "signAllTransactions":
			return message{Result: result(t, map[string]interface{}{"transactions": params["transactions"]})}
		case "signAndSendTransaction":
			return message{Result: result(t, map[string]string{"signature": sig.String()})}
		}
		return message{Error: &RelayError{Code: -32601, Message: "unknown method"}}
	})

	from := solana.NewWallet().PublicKey()
	ix := system.NewTransferInstruction(1000, from, solana.NewWallet().PublicKey()).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{3}, solana.TransactionPayer(from))
	require.NoError(t, err)
	tx.Signatures = []solana.Signature{{9}}
	ctx := context.Background()

	signed, err := p.SignTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Message.RecentBlockhash, signed.Message.RecentBlockhash)
	assert.Equal(t, tx.Signatures, signed.Signatures)

	all, err := p.SignAllTransactions(ctx, []*solana.Transaction{tx, tx})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := p.SignAndSendTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}

func TestProvider_ListenerUnsubscribe(t *testing.T) {
	p, _ := newProvider(t, Config{})
	calls := 0
	unsub := p.On(wallet.EventDisconnect, func(wallet.Event) { calls++ })
	p.emit(wallet.Event{Name: wallet.EventDisconnect})
	unsub()
	p.emit(wallet.Event{Name: wallet.EventDisconnect})
	assert.Equal(t, 1, calls)
}

func TestRelayError(t *testing.T) {
	err := error(&RelayError{Code: 4100, Message: "unauthorized"})
	assert.False(t, errors.Is(err, wallet.ErrUserRejected))
	assert.Contains(t, err.Error(), "4100")
}
