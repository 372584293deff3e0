package api

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/AlexZinkM/token-dapp/internal/bridge"
	"github.com/AlexZinkM/token-dapp/internal/handler"
	"github.com/AlexZinkM/token-dapp/internal/observability"
	"github.com/AlexZinkM/token-dapp/solana"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Session     handler.WalletSession
	Reader      solana.MetadataReader
	Pinner      handler.Pinner
	Bridge      *bridge.Provider // nil when the browser bridge is disabled
	Metrics     *observability.Metrics
	PayCooldown int
	Logger      logrus.FieldLogger

	// KeystorePath enables POST /keystore/generate when set.
	KeystorePath     string
	KeystorePassword handler.PasswordFunc
}

// SetupRouter sets up router with handlers
func SetupRouter(deps Dependencies) (http.Handler, error) {
	if deps.Session == nil {
		return nil, errors.New("wallet session is required")
	}
	if deps.Reader == nil {
		return nil, errors.New("metadata reader is required")
	}
	if deps.Pinner == nil {
		return nil, errors.New("pinner is required")
	}

	presence := map[string]handler.Presence{}
	if deps.Bridge != nil {
		presence[deps.Bridge.Name()] = deps.Bridge
	}

	walletHandler := handler.NewWalletHandler(deps.Session, presence, deps.Logger)
	tokenHandler := handler.NewTokenHandler(deps.Session, deps.Reader, deps.PayCooldown)
	ipfsHandler := handler.NewIPFSHandler(deps.Pinner)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)
	mux.Handle("/metrics", deps.Metrics.Handler())

	// Wallet session endpoints
	mux.HandleFunc("/wallet/state", walletHandler.State)
	mux.HandleFunc("/wallet/adapters", walletHandler.Adapters)
	mux.HandleFunc("/wallet/connect", walletHandler.Connect)
	mux.HandleFunc("/wallet/autoconnect", walletHandler.AutoConnect)
	mux.HandleFunc("/wallet/disconnect", walletHandler.Disconnect)
	mux.HandleFunc("/wallet/network", walletHandler.Network)
	mux.HandleFunc("/wallet/balance", walletHandler.Balance)
	mux.HandleFunc("/wallet/qr", walletHandler.QR)
	if deps.Bridge != nil {
		mux.Handle("/wallet/bridge", deps.Bridge)
		mux.Handle("/wallet/bridge/relay", bridge.RelayPage())
	}

	// Token endpoints
	mux.HandleFunc("/metadata", tokenHandler.Metadata)
	mux.HandleFunc("/token/create", tokenHandler.CreateToken)
	mux.HandleFunc("/token/metadata", tokenHandler.UpdateMetadata)
	mux.HandleFunc("/solana/pay/sol", tokenHandler.PaySOL)

	if deps.KeystorePath != "" && deps.KeystorePassword != nil {
		keystoreHandler := handler.NewKeystoreHandler(deps.KeystorePath, deps.KeystorePassword)
		mux.HandleFunc("/keystore/generate", keystoreHandler.Generate)
	}

	// IPFS endpoints
	mux.HandleFunc("/ipfs/json", ipfsHandler.PinJSON)
	mux.HandleFunc("/ipfs/file", ipfsHandler.PinFile)

	return mux, nil
}
