package handler

import (
	"errors"
	"net/http"

	"github.com/AlexZinkM/token-dapp/internal/model"
	"github.com/AlexZinkM/token-dapp/solana"
)

// TokenHandler serves the token and metadata endpoints
type TokenHandler struct {
	session         solana.Session
	reader          solana.MetadataReader
	cooldownMinutes int
}

// NewTokenHandler creates a TokenHandler
func NewTokenHandler(session solana.Session, reader solana.MetadataReader, cooldownMinutes int) *TokenHandler {
	return &TokenHandler{session: session, reader: reader, cooldownMinutes: cooldownMinutes}
}

// Metadata handles GET /metadata
// @Summary      Get token metadata
// @Description  Reads and decodes the metadata account of a mint on the selected network, with its resolved logo
// @Tags         token
// @Produce      json
// @Param        mint  query     string  true  "Mint address"
// @Success      200   {object}  metadata.Record
// @Failure      404   {object}  model.ErrorResponse
// @Router       /metadata [get]
func (h *TokenHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	rec, err := solana.GetMetadata(r.Context(), h.reader, r.URL.Query().Get("mint"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", errors.New("no metadata for mint"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateToken handles POST /token/create
// @Summary      Create token
// @Description  Creates a mint with metadata and initial supply, signed and sent by the connected wallet
// @Tags         token
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateTokenRequest  true  "Token"
// @Success      200      {object}  model.CreateTokenResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /token/create [post]
func (h *TokenHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.CreateTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := solana.CreateToken(r.Context(), h.session, &req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateMetadata handles POST /token/metadata
// @Summary      Update token metadata
// @Description  Updates metadata of a mint whose update authority is the connected wallet
// @Tags         token
// @Accept       json
// @Produce      json
// @Param        request  body      model.UpdateMetadataRequest  true  "Metadata"
// @Success      200      {object}  model.UpdateMetadataResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /token/metadata [post]
func (h *TokenHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.UpdateMetadataRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := solana.UpdateMetadata(r.Context(), h.session, &req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PaySOL handles POST /solana/pay/sol
// @Summary      Send SOL
// @Description  Sends SOL from the connected wallet to the specified address
// @Tags         solana
// @Accept       json
// @Produce      json
// @Param        request  body      model.PayRequest  true  "Payment data"
// @Success      200      {object}  model.PayResponse
// @Router       /solana/pay/sol [post]
func (h *TokenHandler) PaySOL(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.PayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	payResp, err := solana.PaySOL(r.Context(), h.session, req.ToAddress, req.Amount, h.cooldownMinutes)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payResp)
}
