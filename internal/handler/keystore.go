package handler

import (
	"net/http"

	"github.com/AlexZinkM/token-dapp/internal/model"
	"github.com/AlexZinkM/token-dapp/solana"
)

// PasswordFunc returns the keystore password. The caller zeroes the slice.
type PasswordFunc func() ([]byte, error)

// KeystoreHandler serves the keystore endpoints
type KeystoreHandler struct {
	filePath string
	password PasswordFunc
}

// NewKeystoreHandler creates a KeystoreHandler for the keystore at filePath
func NewKeystoreHandler(filePath string, password PasswordFunc) *KeystoreHandler {
	return &KeystoreHandler{filePath: filePath, password: password}
}

// Generate handles POST /keystore/generate
// @Summary      Generate new wallet
// @Description  Generates a new Solana wallet into the configured .cwt keystore, encrypted with the startup password
// @Tags         keystore
// @Produce      json
// @Success      200  {object}  model.GenerateResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /keystore/generate [post]
func (h *KeystoreHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	// Get password as []byte, use it, then zero it immediately
	passwordBytes, err := h.password()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer clear(passwordBytes)

	address, err := solana.GenerateWallet(h.filePath, passwordBytes)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet generated successfully",
		Address: address,
	})
}
