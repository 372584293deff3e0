package wallet

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/AlexZinkM/token-dapp/internal/client"
)

// Connection is the RPC endpoint of the selected network.
type Connection interface {
	Endpoint() string
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	GetAccountInfo(ctx context.Context, address solana.PublicKey) (*client.AccountInfo, error)
	GetAccountInfoRaw(ctx context.Context, address solana.PublicKey) (*client.AccountInfo, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature) error
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// Adapter is a wallet the session can connect to. PublicKey returns nil while
// the wallet exposes no account.
type Adapter interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	PublicKey() *solana.PublicKey
	SendTransaction(ctx context.Context, tx *solana.Transaction, conn Connection) (solana.Signature, error)
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
	SignAllTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error)
}

// EventName is a wallet event.
type EventName string

const (
	EventConnect        EventName = "connect"
	EventDisconnect     EventName = "disconnect"
	EventAccountChanged EventName = "accountChanged"
)

// Event is delivered to listeners. PublicKey is nil for disconnect and for an
// account change to an account that is not connected to this app.
type Event struct {
	Name      EventName
	PublicKey *solana.PublicKey
}

// Listener receives wallet events.
type Listener func(Event)

// EventSource is implemented by adapters that emit wallet events.
type EventSource interface {
	On(event EventName, listener Listener) (unsubscribe func())
}

// KeyWatcher is implemented by adapters that stream their public key. The
// channel receives the current key on every change and closes when ctx ends.
type KeyWatcher interface {
	WatchPublicKey(ctx context.Context) <-chan *solana.PublicKey
}

// SilentConnector is implemented by adapters that can reconnect without user interaction.
type SilentConnector interface {
	AutoConnect(ctx context.Context) error
}

// Prober is implemented by adapters that can report an already-authorized
// account without prompting. It returns nil when there is none.
type Prober interface {
	ProbeAuthorized(ctx context.Context) (*solana.PublicKey, error)
}

// Provider is the injected wallet object itself, as opposed to an adapter over it.
type Provider interface {
	Name() string
	Connect(ctx context.Context, onlyIfTrusted bool) (solana.PublicKey, error)
	Disconnect(ctx context.Context) error
	IsConnected() bool
	PublicKey() *solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
	SignAllTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error)
	SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	On(event EventName, listener Listener) (unsubscribe func())
}

func copyKey(pk *solana.PublicKey) *solana.PublicKey {
	if pk == nil {
		return nil
	}
	out := *pk
	return &out
}

func sameKey(a, b *solana.PublicKey) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(*b)
}
