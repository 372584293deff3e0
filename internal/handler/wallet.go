package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/AlexZinkM/token-dapp/internal/common"
	"github.com/AlexZinkM/token-dapp/internal/model"
	"github.com/AlexZinkM/token-dapp/internal/wallet"
	"github.com/AlexZinkM/token-dapp/solana"
)

// WalletSession is the wallet session the handlers drive.
type WalletSession interface {
	solana.Session
	Snapshot() wallet.Snapshot
	Adapters() []wallet.Adapter
	ConnectByName(ctx context.Context, name string) error
	AutoConnect(ctx context.Context) bool
	Disconnect(ctx context.Context) error
	SwitchNetwork(ctx context.Context, network wallet.Network) error
}

var _ WalletSession = (*wallet.Manager)(nil)

// Presence reports whether the wallet behind an adapter is reachable.
type Presence interface {
	Attached() bool
}

// WalletHandler serves the session endpoints
type WalletHandler struct {
	session  WalletSession
	presence map[string]Presence
	log      logrus.FieldLogger
}

// NewWalletHandler creates a WalletHandler. presence maps adapter names to
// their reachability; adapters not in it are always installed.
func NewWalletHandler(session WalletSession, presence map[string]Presence, log logrus.FieldLogger) *WalletHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WalletHandler{session: session, presence: presence, log: log}
}

// State handles GET /wallet/state
// @Summary      Get wallet session
// @Description  Returns status, adapter, public key, balance, network and session expiry
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  wallet.Snapshot
// @Router       /wallet/state [get]
func (h *WalletHandler) State(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Adapters handles GET /wallet/adapters
// @Summary      List wallet adapters
// @Tags         wallet
// @Produce      json
// @Success      200  {array}   model.AdapterInfo
// @Router       /wallet/adapters [get]
func (h *WalletHandler) Adapters(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	active := h.session.Snapshot().Adapter
	adapters := h.session.Adapters()
	out := make([]model.AdapterInfo, 0, len(adapters))
	for _, a := range adapters {
		installed := true
		if p, ok := h.presence[a.Name()]; ok {
			installed = p.Attached()
		}
		out = append(out, model.AdapterInfo{Name: a.Name(), Active: a.Name() == active, Installed: installed})
	}
	writeJSON(w, http.StatusOK, out)
}

// Connect handles POST /wallet/connect
// @Summary      Connect a wallet
// @Description  Connects the named adapter. A request while another connect is running is a no-op.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.ConnectRequest  true  "Adapter"
// @Success      200      {object}  wallet.Snapshot
// @Failure      400      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Router       /wallet/connect [post]
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.ConnectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Adapter == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("adapter is required"))
		return
	}

	if err := h.session.ConnectByName(r.Context(), req.Adapter); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// AutoConnect handles POST /wallet/autoconnect
// @Summary      Restore the persisted session
// @Description  Reconnects the last wallet without user interaction where possible
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.AutoConnectResponse
// @Router       /wallet/autoconnect [post]
func (h *WalletHandler) AutoConnect(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	writeJSON(w, http.StatusOK, model.AutoConnectResponse{Connected: h.session.AutoConnect(r.Context())})
}

// Disconnect handles POST /wallet/disconnect
// @Summary      Disconnect the wallet
// @Description  Disconnects and suppresses auto-connect until the next explicit connect
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  wallet.Snapshot
// @Failure      502  {object}  model.ErrorResponse
// @Router       /wallet/disconnect [post]
func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.session.Disconnect(r.Context()); err != nil {
		if errors.Is(err, wallet.ErrBusy) {
			writeFailure(w, err)
			return
		}
		writeError(w, http.StatusBadGateway, "disconnect_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Network handles POST /wallet/network
// @Summary      Switch network
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.NetworkRequest  true  "Network"
// @Success      200      {object}  wallet.Snapshot
// @Failure      400      {object}  model.ErrorResponse
// @Router       /wallet/network [post]
func (h *WalletHandler) Network(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.NetworkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.session.SwitchNetwork(r.Context(), wallet.Network(req.Network)); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Balance handles GET /wallet/balance
// @Summary      Get wallet balance
// @Description  Reads the SOL balance of the connected account on the selected network
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.SolanaBalanceResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	balance, err := solana.GetBalance(r.Context(), h.session)
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.session.FetchBalance(r.Context())
	writeJSON(w, http.StatusOK, balance)
}

// QR handles GET /wallet/qr
// @Summary      Get address QR code
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.QRResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/qr [get]
func (h *WalletHandler) QR(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	pk := h.session.PublicKey()
	if pk == nil {
		writeFailure(w, wallet.ErrNotConnected)
		return
	}
	qr, err := common.GenerateQRCode(pk.String())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.QRResponse{Address: pk.String(), QR: qr})
}
