package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/AlexZinkM/token-dapp/internal/crypto"
)

// KeystoreAdapterName is the name of the local keystore wallet.
const KeystoreAdapterName = "Keystore"

// PasswordFunc returns the keystore password. The caller zeroes the slice after use.
type PasswordFunc func() ([]byte, error)

// Keystore is an encrypted key file.
type Keystore interface {
	// Address reads the plaintext account address without decrypting.
	Address() (string, error)
	Unlock(password []byte) (solana.PrivateKey, error)
}

// FileKeystore is the .cwt keystore at the given path.
type FileKeystore string

func (p FileKeystore) Address() (string, error) {
	return crypto.ReadWalletAddress(string(p))
}

func (p FileKeystore) Unlock(password []byte) (solana.PrivateKey, error) {
	_, data, err := crypto.DecryptWallet(string(p), password)
	if err != nil {
		return nil, err
	}
	if len(data.PrivateKey) != 64 {
		return nil, fmt.Errorf("keystore holds a %d-byte key, want 64", len(data.PrivateKey))
	}
	return solana.PrivateKey(data.PrivateKey), nil
}

// KeystoreAdapter is a wallet backed by a local encrypted keystore. The key is
// decrypted on connect and dropped on disconnect. Watchers notice when the
// keystore is replaced by one for another account.
type KeystoreAdapter struct {
	keystore Keystore
	password PasswordFunc
	interval time.Duration
	log      logrus.FieldLogger

	mu   sync.Mutex
	key  solana.PrivateKey
	feed keyFeed
}

// KeystoreOption configures a KeystoreAdapter.
type KeystoreOption func(*KeystoreAdapter)

// WithKeystoreWatchInterval sets how often watchers re-read the keystore file.
func WithKeystoreWatchInterval(d time.Duration) KeystoreOption {
	return func(a *KeystoreAdapter) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithKeystoreLogger sets the logger.
func WithKeystoreLogger(l logrus.FieldLogger) KeystoreOption {
	return func(a *KeystoreAdapter) {
		if l != nil {
			a.log = l
		}
	}
}

// NewKeystoreAdapter returns an adapter over keystore.
func NewKeystoreAdapter(keystore Keystore, password PasswordFunc, opts ...KeystoreOption) *KeystoreAdapter {
	a := &KeystoreAdapter{
		keystore: keystore,
		password: password,
		interval: 2 * time.Second,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *KeystoreAdapter) Name() string {
	return KeystoreAdapterName
}

// Connect decrypts the keystore.
func (a *KeystoreAdapter) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := a.unlock()
	if err != nil {
		return err
	}
	a.setKey(key)
	return nil
}

// AutoConnect is Connect: the password is held in memory, so no prompt is involved.
func (a *KeystoreAdapter) AutoConnect(ctx context.Context) error {
	return a.Connect(ctx)
}

func (a *KeystoreAdapter) Disconnect(ctx context.Context) error {
	a.setKey(nil)
	return nil
}

func (a *KeystoreAdapter) PublicKey() *solana.PublicKey {
	a.mu.Lock()
	defer a.mu.Unlock()
	return publicKeyOf(a.key)
}

// SendTransaction signs tx with the keystore key and submits it through conn.
func (a *KeystoreAdapter) SendTransaction(ctx context.Context, tx *solana.Transaction, conn Connection) (solana.Signature, error) {
	signed, err := a.SignTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	return conn.SendTransaction(ctx, signed)
}

// SignTransaction adds the keystore signature to tx in place.
func (a *KeystoreAdapter) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	a.mu.Lock()
	key := a.key
	a.mu.Unlock()
	if key == nil {
		return nil, ErrNotConnected
	}
	if err := PartialSign(tx, key); err != nil {
		return nil, err
	}
	return tx, nil
}

func (a *KeystoreAdapter) SignAllTransactions(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	out := make([]*solana.Transaction, 0, len(txs))
	for i, tx := range txs {
		signed, err := a.SignTransaction(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		out = append(out, signed)
	}
	return out, nil
}

// WatchPublicKey re-reads the keystore address every watch interval. When the
// file now holds another account the adapter unlocks it, or drops the key if
// it cannot.
func (a *KeystoreAdapter) WatchPublicKey(ctx context.Context) <-chan *solana.PublicKey {
	out := make(chan *solana.PublicKey, 1)
	id := a.feed.subscribe(out)

	go func() {
		defer a.feed.unsubscribe(id)
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.checkFile()
			}
		}
	}()
	return out
}

func (a *KeystoreAdapter) checkFile() {
	current := a.PublicKey()
	if current == nil {
		return
	}

	address, err := a.keystore.Address()
	if err != nil {
		if errors.Is(err, crypto.ErrKeystoreNotFound) || errors.Is(err, crypto.ErrKeystoreEmpty) {
			a.log.Warn("Keystore disappeared, locking wallet")
			a.setKey(nil)
			return
		}
		a.log.WithError(err).Debug("Failed to read keystore address")
		return
	}
	if address == current.String() {
		return
	}

	key, err := a.unlock()
	if err != nil {
		a.log.WithError(err).Warn("Keystore changed and could not be unlocked")
		a.setKey(nil)
		return
	}
	a.setKey(key)
}

func (a *KeystoreAdapter) unlock() (solana.PrivateKey, error) {
	password, err := a.password()
	if err != nil {
		return nil, fmt.Errorf("keystore password: %w", err)
	}
	defer clear(password)

	return a.keystore.Unlock(password)
}

func (a *KeystoreAdapter) setKey(key solana.PrivateKey) {
	a.mu.Lock()
	old := publicKeyOf(a.key)
	a.key = key
	a.mu.Unlock()

	if pk := publicKeyOf(key); !sameKey(old, pk) {
		a.feed.publish(pk)
	}
}

func publicKeyOf(key solana.PrivateKey) *solana.PublicKey {
	if key == nil {
		return nil
	}
	pk := key.PublicKey()
	return &pk
}

// keyFeed fans key changes out to watchers. Each watcher sees the latest key;
// a slow watcher misses intermediate ones.
type keyFeed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan *solana.PublicKey
}

func (f *keyFeed) subscribe(ch chan *solana.PublicKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]chan *solana.PublicKey)
	}
	f.next++
	f.subs[f.next] = ch
	return f.next
}

func (f *keyFeed) unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

func (f *keyFeed) publish(pk *solana.PublicKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- copyKey(pk):
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- copyKey(pk):
			default:
			}
		}
	}
}
