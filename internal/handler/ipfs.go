package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/AlexZinkM/token-dapp/internal/client"
	"github.com/AlexZinkM/token-dapp/internal/model"
)

const maxUploadSize = 10 << 20

// Pinner pins content to IPFS.
type Pinner interface {
	PinJSON(ctx context.Context, name string, content any) (*client.PinResult, error)
	PinFile(ctx context.Context, fileName string, r io.Reader) (*client.PinResult, error)
	ReplaceJSON(ctx context.Context, oldCID string, content any) (*client.PinResult, error)
}

// IPFSHandler serves the pinning endpoints
type IPFSHandler struct {
	pinner Pinner
}

// NewIPFSHandler creates an IPFSHandler
func NewIPFSHandler(pinner Pinner) *IPFSHandler {
	return &IPFSHandler{pinner: pinner}
}

// PinJSON handles POST /ipfs/json
// @Summary      Pin JSON
// @Description  Pins a JSON document, e.g. token metadata, and returns its gateway URL
// @Tags         ipfs
// @Accept       json
// @Produce      json
// @Param        request  body      model.PinJSONRequest  true  "Document"
// @Success      200      {object}  model.PinResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /ipfs/json [post]
func (h *IPFSHandler) PinJSON(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.PinJSONRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Content) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("content is required"))
		return
	}

	var (
		res *client.PinResult
		err error
	)
	if req.ReplaceCID != "" {
		res, err = h.pinner.ReplaceJSON(r.Context(), req.ReplaceCID, req.Content)
	} else {
		res, err = h.pinner.PinJSON(r.Context(), req.Name, req.Content)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.PinResponse{CID: res.CID, URL: res.URL, Size: res.Size})
}

// PinFile handles POST /ipfs/file
// @Summary      Pin file
// @Description  Pins an uploaded file, e.g. a token logo
// @Tags         ipfs
// @Accept       mpfd
// @Produce      json
// @Param        file  formData  file  true  "File"
// @Success      200   {object}  model.PinResponse
// @Failure      502   {object}  model.ErrorResponse
// @Router       /ipfs/file [post]
func (h *IPFSHandler) PinFile(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer file.Close()

	res, err := h.pinner.PinFile(r.Context(), header.Filename, file)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.PinResponse{CID: res.CID, URL: res.URL, Size: res.Size})
}
