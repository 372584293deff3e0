package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/token-dapp/internal/crypto"
)

type fakeKeystore struct {
	mu       sync.Mutex
	key      solana.PrivateKey
	password string
	err      error
}

func (k *fakeKeystore) Address() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err != nil {
		return "", k.err
	}
	return k.key.PublicKey().String(), nil
}

func (k *fakeKeystore) Unlock(password []byte) (solana.PrivateKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err != nil {
		return nil, k.err
	}
	if string(password) != k.password {
		return nil, crypto.ErrInvalidPassword
	}
	return k.key, nil
}

func (k *fakeKeystore) replace(key solana.PrivateKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = key
}

func (k *fakeKeystore) fail(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.err = err
}

func passwordOf(s string) PasswordFunc {
	return func() ([]byte, error) { return []byte(s), nil }
}

func transferTx(t *testing.T, from, to solana.PublicKey) *solana.Transaction {
	t.Helper()
	ix := system.NewTransferInstruction(1000, from, to).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(from))
	require.NoError(t, err)
	return tx
}

func TestKeystoreAdapter_ConnectSignDisconnect(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	ks := &fakeKeystore{key: key, password: "pw"}
	a := NewKeystoreAdapter(ks, passwordOf("pw"))
	ctx := context.Background()

	assert.Equal(t, KeystoreAdapterName, a.Name())
	assert.Nil(t, a.PublicKey())

	require.NoError(t, a.Connect(ctx))
	require.NotNil(t, a.PublicKey())
	assert.Equal(t, key.PublicKey(), *a.PublicKey())

	tx := transferTx(t, key.PublicKey(), newKey())
	signed, err := a.SignTransaction(ctx, tx)
	require.NoError(t, err)
	msg, err := signed.Message.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, signed.Signatures, 1)
	assert.True(t, signed.Signatures[0].Verify(key.PublicKey(), msg))

	all, err := a.SignAllTransactions(ctx, []*solana.Transaction{transferTx(t, key.PublicKey(), newKey())})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, a.Disconnect(ctx))
	assert.Nil(t, a.PublicKey())
	_, err = a.SignTransaction(ctx, transferTx(t, key.PublicKey(), newKey()))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestKeystoreAdapter_WrongPassword(t *testing.T) {
	ks := &fakeKeystore{key: solana.NewWallet().PrivateKey, password: "pw"}
	a := NewKeystoreAdapter(ks, passwordOf("nope"))

	err := a.Connect(context.Background())
	assert.ErrorIs(t, err, crypto.ErrInvalidPassword)
	assert.Nil(t, a.PublicKey())

	a = NewKeystoreAdapter(ks, func() ([]byte, error) { return nil, errors.New("no password") })
	assert.Error(t, a.Connect(context.Background()))
}

func TestKeystoreAdapter_WatchPublicKey(t *testing.T) {
	ks := &fakeKeystore{key: solana.NewWallet().PrivateKey, password: "pw"}
	a := NewKeystoreAdapter(ks, passwordOf("pw"), WithKeystoreWatchInterval(5*time.Millisecond))
	require.NoError(t, a.Connect(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	keys := a.WatchPublicKey(ctx)

	next := solana.NewWallet().PrivateKey
	ks.replace(next)

	select {
	case pk := <-keys:
		require.NotNil(t, pk)
		assert.Equal(t, next.PublicKey(), *pk)
	case <-time.After(time.Second):
		t.Fatal("no key change observed")
	}

	ks.fail(crypto.ErrKeystoreNotFound)
	select {
	case pk := <-keys:
		assert.Nil(t, pk)
	case <-time.After(time.Second):
		t.Fatal("no lock observed")
	}
	assert.Nil(t, a.PublicKey())

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-keys:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestManager_FollowsKeystoreReplacement(t *testing.T) {
	ks := &fakeKeystore{key: solana.NewWallet().PrivateKey, password: "pw"}
	a := NewKeystoreAdapter(ks, passwordOf("pw"), WithKeystoreWatchInterval(5*time.Millisecond))
	h := newHarness(t, func(o *Options) { o.Adapters = []Adapter{a} })
	require.NoError(t, h.m.Connect(context.Background(), a))

	next := solana.NewWallet().PrivateKey
	ks.replace(next)

	require.Eventually(t, func() bool {
		return h.m.Snapshot().PublicKey == next.PublicKey().String()
	}, time.Second, time.Millisecond)
	assert.Equal(t, StatusConnected, h.m.Status())
}

func TestInjectedAdapter(t *testing.T) {
	p := newFakeProvider("Phantom")
	a := NewInjectedAdapter(p)
	ctx := context.Background()

	assert.Equal(t, "Phantom", a.Name())
	assert.Nil(t, a.PublicKey(), "no key before the wallet connects")

	assert.ErrorIs(t, a.AutoConnect(ctx), ErrUserRejected)
	pk, err := a.ProbeAuthorized(ctx)
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.Nil(t, pk)

	require.NoError(t, a.Connect(ctx))
	assert.Equal(t, p.key.String(), a.PublicKey().String())

	pk, err = a.ProbeAuthorized(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.key.String(), pk.String())

	conn := &fakeConn{sendSig: solana.Signature{4}}
	sig, err := a.SendTransaction(ctx, &solana.Transaction{}, conn)
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{4}, sig)

	p.signErr = ErrUserRejected
	_, err = a.SendTransaction(ctx, &solana.Transaction{}, conn)
	assert.ErrorIs(t, err, ErrUserRejected)

	require.NoError(t, a.Disconnect(ctx))
	assert.Nil(t, a.PublicKey())
}

func TestPartialSign(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PrivateKey
	ix := system.NewCreateAccountInstruction(1_461_600, 82, solana.TokenProgramID, payer.PublicKey(), mint.PublicKey()).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{2}, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)
	require.EqualValues(t, 2, tx.Message.Header.NumRequiredSignatures)

	require.NoError(t, PartialSign(tx, mint))
	require.Len(t, tx.Signatures, 2)
	assert.Equal(t, solana.Signature{}, tx.Signatures[0], "payer slot stays empty")

	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	idx := 1
	require.Equal(t, mint.PublicKey(), tx.Message.AccountKeys[idx])
	assert.True(t, tx.Signatures[idx].Verify(mint.PublicKey(), msg))

	require.NoError(t, PartialSign(tx, payer))
	assert.True(t, tx.Signatures[0].Verify(payer.PublicKey(), msg))
	assert.True(t, tx.Signatures[idx].Verify(mint.PublicKey(), msg), "earlier signature kept")

	stranger := solana.NewWallet().PrivateKey
	assert.Error(t, PartialSign(tx, stranger))
}
