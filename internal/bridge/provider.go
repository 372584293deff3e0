// Package bridge reaches a browser wallet extension through a relay page. The
// page opens a WebSocket to the service and forwards requests to the injected
// wallet object, so the wallet looks like a local wallet.Provider.
package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/AlexZinkM/token-dapp/internal/wallet"
)

// CodeUserRejected is the wallet error code for a request the user declined.
const CodeUserRejected = 4001

// Config configures a Provider.
type Config struct {
	// Name is the wallet name the relay fronts, e.g. "Phantom".
	Name string
	// RequestTimeout bounds a round trip to the wallet, including user approval.
	RequestTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// AllowedOrigins lists origins allowed to attach a relay. Empty means same origin only.
	AllowedOrigins []string
}

// DefaultConfig returns default bridge configuration.
func DefaultConfig(name string) Config {
	return Config{
		Name:           name,
		RequestTimeout: 2 * time.Minute,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
	}
}

// RelayError is an error reported by the wallet through the relay.
type RelayError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

// Is maps the user-rejected code to wallet.ErrUserRejected.
func (e *RelayError) Is(target error) bool {
	return target == wallet.ErrUserRejected && e.Code == CodeUserRejected
}

type request struct {
	ID     uint64      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// message is anything the relay sends: a response when ID is set, otherwise a wallet event.
type message struct {
	ID        uint64          `json:"id,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *RelayError     `json:"error,omitempty"`
	Event     string          `json:"event,omitempty"`
	PublicKey *string         `json:"publicKey,omitempty"`
}

type reply struct {
	msg message
	err error
}

// Provider is the injected wallet behind the relay. It serves the relay
// WebSocket as an http.Handler. One relay is attached at a time; a new one
// replaces the old.
type Provider struct {
	cfg      Config
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	connMu    sync.Mutex
	conn      *websocket.Conn
	requestID atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan reply

	stateMu   sync.Mutex
	publicKey *solana.PublicKey
	connected bool

	listenersMu sync.Mutex
	listeners   map[wallet.EventName]map[int]wallet.Listener
	nextID      int
}

var _ wallet.Provider = (*Provider)(nil)

// NewProvider creates a Provider with no relay attached.
func NewProvider(cfg Config, log logrus.FieldLogger) *Provider {
	def := DefaultConfig(cfg.Name)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	p := &Provider{
		cfg:       cfg,
		log:       log,
		pending:   make(map[uint64]chan reply),
		listeners: make(map[wallet.EventName]map[int]wallet.Listener),
	}
	p.upgrader = websocket.Upgrader{CheckOrigin: p.checkOrigin}
	return p
}

func (p *Provider) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(p.cfg.AllowedOrigins) == 0 {
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
	for _, allowed := range p.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (p *Provider) Name() string {
	return p.cfg.Name
}

// Attached reports whether a relay is connected.
func (p *Provider) Attached() bool {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	return p.conn != nil
}

// ServeHTTP upgrades the relay connection and serves it until it closes.
func (p *Provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.log.WithError(err).Warn("Relay upgrade failed")
		return
	}

	p.connMu.Lock()
	old := p.conn
	p.conn = conn
	p.connMu.Unlock()
	if old != nil {
		old.Close()
	}
	p.log.WithField("remote", r.RemoteAddr).Info("Wallet relay attached")

	done := make(chan struct{})
	go p.pingLoop(conn, done)
	p.readLoop(conn)
	close(done)
	p.detach(conn)
}

func (p *Provider) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(p.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(p.cfg.WriteTimeout)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// readLoop reads messages from the relay until the connection fails.
func (p *Provider) readLoop(conn *websocket.Conn) {
	readTimeout := 2 * p.cfg.PingInterval
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				p.log.WithError(err).Warn("Ignoring malformed relay message")
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.log.WithError(err).Debug("Relay read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.ID != 0 {
			p.resolve(msg.ID, reply{msg: msg})
			continue
		}
		p.handleEvent(msg)
	}
}

// detach drops conn if it is still the active relay and fails every request waiting on it.
func (p *Provider) detach(conn *websocket.Conn) {
	p.connMu.Lock()
	active := p.conn == conn
	if active {
		p.conn = nil
	}
	p.connMu.Unlock()
	conn.Close()

	if !active {
		return
	}
	p.log.Info("Wallet relay detached")

	p.pendingMu.Lock()
	for id, ch := range p.pending {
		ch <- reply{err: wallet.ErrWalletNotDetected}
		delete(p.pending, id)
	}
	p.pendingMu.Unlock()

	if p.setState(nil, false) {
		p.emit(wallet.Event{Name: wallet.EventDisconnect})
	}
}

func (p *Provider) resolve(id uint64, r reply) {
	p.pendingMu.Lock()
	ch, ok := p.pending[id]
	delete(p.pending, id)
	p.pendingMu.Unlock()

	if ok {
		ch <- r
	}
}

func (p *Provider) handleEvent(msg message) {
	var pk *solana.PublicKey
	if msg.PublicKey != nil {
		key, err := solana.PublicKeyFromBase58(*msg.PublicKey)
		if err != nil {
			p.log.WithError(err).WithField("event", msg.Event).Warn("Ignoring event with malformed public key")
			return
		}
		pk = &key
	}

	switch wallet.EventName(msg.Event) {
	case wallet.EventConnect:
		if pk == nil {
			return
		}
		p.setState(pk, true)
		p.emit(wallet.Event{Name: wallet.EventConnect, PublicKey: pk})
	case wallet.EventDisconnect:
		p.setState(nil, false)
		p.emit(wallet.Event{Name: wallet.EventDisconnect})
	case wallet.EventAccountChanged:
		p.stateMu.Lock()
		p.publicKey = pk
		p.stateMu.Unlock()
		p.emit(wallet.Event{Name: wallet.EventAccountChanged, PublicKey: pk})
	default:
		p.log.WithField("event", msg.Event).Debug("Ignoring unknown relay event")
	}
}

// setState records the wallet state and reports whether it was connected before.
func (p *Provider) setState(pk *solana.PublicKey, connected bool) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	was := p.connected
	p.publicKey = pk
	p.connected = connected
	return was
}

// call sends a request to the wallet and decodes the result into out.
func (p *Provider) call(ctx context.Context, method string, params, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	id := p.requestID.Add(1)
	ch := make(chan reply, 1)
	p.pendingMu.Lock()
	p.pending[id] = ch
	p.pendingMu.Unlock()

	p.connMu.Lock()
	if p.conn == nil {
		p.connMu.Unlock()
		p.forget(id)
		return wallet.ErrWalletNotDetected
	}
	p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
	err := p.conn.WriteJSON(request{ID: id, Method: method, Params: params})
	p.connMu.Unlock()
	if err != nil {
		p.forget(id)
		return fmt.Errorf("failed to write %s request: %w", method, err)
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return r.err
		}
		if r.msg.Error != nil {
			return r.msg.Error
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(r.msg.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		p.forget(id)
		return fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

func (p *Provider) forget(id uint64) {
	p.pendingMu.Lock()
	delete(p.pending, id)
	p.pendingMu.Unlock()
}

// Connect asks the wallet for its account. With onlyIfTrusted the wallet
// answers without prompting, or fails if it has not approved this app before.
func (p *Provider) Connect(ctx context.Context, onlyIfTrusted bool) (solana.PublicKey, error) {
	var res struct {
		PublicKey string `json:"publicKey"`
	}
	if err := p.call(ctx, "connect", map[string]bool{"onlyIfTrusted": onlyIfTrusted}, &res); err != nil {
		return solana.PublicKey{}, err
	}
	pk, err := solana.PublicKeyFromBase58(res.PublicKey)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("wallet returned invalid public key: %w", err)
	}

	p.setState(&pk, true)
	p.emit(wallet.Event{Name: wallet.EventConnect, PublicKey: &pk})
	return pk, nil
}

// Disconnect revokes the session in the wallet. Without a relay there is nothing to revoke.
func (p *Provider) Disconnect(ctx context.Context) error {
	if err := p.call(ctx, "disconnect", nil, nil); err != nil && !errors.Is(err, wallet.ErrWalletNotDetected) {
		return err
	}
	if p.setState(nil, false) {
		p.emit(wallet.Event{Name: wallet.EventDisconnect})
	}
	return nil
}

func (p *Provider) IsConnected() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.connected
}

func (p *Provider) PublicKey() *solana.PublicKey {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.publicKey == nil {
		return nil
	}
	pk := *p.publicKey
	return &pk
}

func (p *Provider) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	encoded, err := encodeTransaction(tx)
	if err != nil {
		return nil, err
	}
	var res struct {
		Transaction string `json:"transaction"`
	}
	if err := p.call(ctx, "signTransaction", map[string]string{"transaction": encoded}, &res); err != nil {
		return nil, err
	}
	return decodeTransaction(res.Transaction)
}

func (p *Provider) SignAllTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	encoded := make([]string, 0, len(txs))
	for _, tx := range txs {
		e, err := encodeTransaction(tx)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, e)
	}

	var res struct {
		Transactions []string `json:"transactions"`
	}
	if err := p.call(ctx, "signAllTransactions", map[string][]string{"transactions": encoded}, &res); err != nil {
		return nil, err
	}
	if len(res.Transactions) != len(txs) {
		return nil, fmt.Errorf("wallet returned %d transactions, want %d", len(res.Transactions), len(txs))
	}

	out := make([]*solana.Transaction, 0, len(res.Transactions))
	for _, e := range res.Transactions {
		tx, err := decodeTransaction(e)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// SignAndSendTransaction has the wallet sign tx and submit it over its own RPC.
func (p *Provider) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	encoded, err := encodeTransaction(tx)
	if err != nil {
		return solana.Signature{}, err
	}
	var res struct {
		Signature string `json:"signature"`
	}
	if err := p.call(ctx, "signAndSendTransaction", map[string]string{"transaction": encoded}, &res); err != nil {
		return solana.Signature{}, err
	}
	sig, err := solana.SignatureFromBase58(res.Signature)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("wallet returned invalid signature: %w", err)
	}
	return sig, nil
}

// On registers listener for event. Listeners run on the relay read goroutine
// with no bridge lock held.
func (p *Provider) On(event wallet.EventName, listener wallet.Listener) func() {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()

	if p.listeners[event] == nil {
		p.listeners[event] = make(map[int]wallet.Listener)
	}
	p.nextID++
	id := p.nextID
	p.listeners[event][id] = listener

	return func() {
		p.listenersMu.Lock()
		defer p.listenersMu.Unlock()
		delete(p.listeners[event], id)
	}
}

func (p *Provider) emit(e wallet.Event) {
	p.listenersMu.Lock()
	ls := make([]wallet.Listener, 0, len(p.listeners[e.Name]))
	for _, l := range p.listeners[e.Name] {
		ls = append(ls, l)
	}
	p.listenersMu.Unlock()

	for _, l := range ls {
		l(e)
	}
}

func encodeTransaction(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeTransaction(encoded string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("wallet returned invalid transaction encoding: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("wallet returned invalid transaction: %w", err)
	}
	return tx, nil
}
