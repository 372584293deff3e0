package solana

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/AlexZinkM/token-dapp/internal/common"
	"github.com/AlexZinkM/token-dapp/internal/crypto"
	"github.com/AlexZinkM/token-dapp/internal/model"
)

const (
	networkSolana = "solana"
)

// FileExistsError is an error when file already exists and is not empty
type FileExistsError struct {
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	var fe *FileExistsError
	return errors.As(err, &fe)
}

// GenerateWallet generates a new Solana keypair and saves it to a .cwt keystore.
// Returns the generated public address on success.
// password must be []byte for security (caller should zero it after use)
func GenerateWallet(filePath string, password []byte) (address string, err error) {
	if filepath.Ext(filePath) != crypto.KeystoreExt {
		return "", fmt.Errorf("file must have %s extension", crypto.KeystoreExt)
	}

	wallet := solana.NewWallet()
	defer clear(wallet.PrivateKey)

	address = wallet.PublicKey().String()

	qrCode, err := common.GenerateQRCode(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	walletData := &model.WalletData{
		PrivateKey: wallet.PrivateKey,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}
	header := model.CWTFile{
		Network: networkSolana,
		Address: address,
		QR:      qrCode,
	}

	if err := crypto.EncryptWallet(filePath, header, walletData, password); err != nil {
		if errors.Is(err, crypto.ErrFileNotEmpty) {
			return "", &FileExistsError{Message: err.Error()}
		}
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	return address, nil
}
