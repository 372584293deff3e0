package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/token-dapp/internal/client"
	"github.com/AlexZinkM/token-dapp/internal/model"
	"github.com/AlexZinkM/token-dapp/internal/wallet"
	"github.com/AlexZinkM/token-dapp/solana"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

// writeFailure maps err onto a status and code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		writeError(w, http.StatusConflict, "not_connected", err)
	case errors.Is(err, wallet.ErrBusy):
		writeError(w, http.StatusConflict, "busy", err)
	case errors.Is(err, wallet.ErrUserRejected):
		writeError(w, http.StatusForbidden, "user_rejected", err)
	case errors.Is(err, wallet.ErrWalletNotDetected):
		writeError(w, http.StatusServiceUnavailable, "wallet_not_detected", err)
	case errors.Is(err, wallet.ErrUnknownAdapter), errors.Is(err, wallet.ErrUnknownNetwork), solana.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, wallet.ErrEmptyPublicKey):
		writeError(w, http.StatusBadGateway, "empty_public_key", err)
	case wallet.IsTransactionError(err):
		writeError(w, http.StatusBadGateway, "transaction_failed", err)
	case errors.Is(err, client.ErrPinataNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "pinning_not_configured", err)
	case client.IsUploadError(err):
		writeError(w, http.StatusBadGateway, "upload_failed", err)
	case solana.IsFileExistsError(err):
		writeError(w, http.StatusConflict, "file_exists", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed. Should be "+method, http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}
