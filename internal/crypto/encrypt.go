// Package crypto reads and writes the encrypted .cwt keystore (scrypt + AES-256-GCM).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexZinkM/token-dapp/internal/model"
	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for the local keystore. Security is prioritized over performance:
// N=2^18 costs ~256MB RAM and 0.5-2s per derivation.
// Variables rather than constants so tests can lower the cost.
var (
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

const (
	saltLen  = 32
	nonceLen = 12

	// KeystoreExt is the required keystore file extension
	KeystoreExt = ".cwt"
)

// utf8BOM is prepended for proper display in Windows editors
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrFileNotEmpty is returned when refusing to overwrite an existing keystore
var ErrFileNotEmpty = errors.New("file is not empty")

// EncryptWallet encrypts wallet data and writes it to a .cwt file.
// header carries the plaintext network, address and QR fields.
// password must be []byte for security (caller should zero it after use)
func EncryptWallet(filePath string, header model.CWTFile, walletData *model.WalletData, password []byte) error {
	if !strings.HasSuffix(filePath, KeystoreExt) {
		return fmt.Errorf("file must have %s extension", KeystoreExt)
	}

	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return fmt.Errorf("%w: %s", ErrFileNotEmpty, filePath)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(walletData)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	header.Salt = base64.StdEncoding.EncodeToString(salt)
	header.Nonce = base64.StdEncoding.EncodeToString(nonce)
	header.CipherText = base64.StdEncoding.EncodeToString(ciphertext)

	fileData, err := json.MarshalIndent(header, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cwt file: %w", err)
	}

	if err := os.WriteFile(filePath, append(append([]byte{}, utf8BOM...), fileData...), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// newGCM derives the file key from password and salt and wraps it in AES-GCM.
func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
