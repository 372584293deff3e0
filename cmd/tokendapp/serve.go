package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AlexZinkM/token-dapp/internal/api"
	"github.com/AlexZinkM/token-dapp/internal/bridge"
	"github.com/AlexZinkM/token-dapp/internal/client"
	"github.com/AlexZinkM/token-dapp/internal/common"
	"github.com/AlexZinkM/token-dapp/internal/config"
	"github.com/AlexZinkM/token-dapp/internal/metadata"
	"github.com/AlexZinkM/token-dapp/internal/observability"
	"github.com/AlexZinkM/token-dapp/internal/storage/file"
	"github.com/AlexZinkM/token-dapp/internal/storage/memory"
	"github.com/AlexZinkM/token-dapp/internal/storage/postgres"
	"github.com/AlexZinkM/token-dapp/internal/wallet"
)

var serveCmd = cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := observability.ConfigureLogging(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	log := observability.Component("server")
	metrics := observability.NewMetrics("tokendapp")

	store, err := file.NewKVStore(cfg.StateFile)
	if err != nil {
		return err
	}

	clients := map[wallet.Network]*client.SolanaClient{}
	for _, n := range []wallet.Network{wallet.NetworkMainnet, wallet.NetworkDevnet} {
		clients[n] = client.NewSolanaClient(cfg.RPCURL(string(n)), client.WithConfirmTimeout(cfg.ConfirmTimeout))
	}

	opts := wallet.Options{
		Store:          store,
		Dial:           func(n wallet.Network) wallet.Connection { return clients[n] },
		DefaultNetwork: wallet.Network(cfg.Network),
		SessionTTL:     cfg.SessionTTL,
		PollInterval:   cfg.PollInterval,
		Logger:         observability.Component("wallet"),
		Metrics:        metrics,
	}

	var provider *bridge.Provider
	if cfg.BridgeEnabled {
		provider = bridge.NewProvider(bridge.DefaultConfig(cfg.BridgeWalletName), observability.Component("bridge"))
		opts.Injected = provider
		opts.Adapters = append(opts.Adapters, wallet.NewInjectedAdapter(provider))
	}
	if keystorePath := config.GetKeystorePath(); keystorePath != "" {
		if err := config.PromptForPassword(); err != nil {
			return err
		}
		opts.Adapters = append(opts.Adapters, wallet.NewKeystoreAdapter(
			wallet.FileKeystore(keystorePath),
			config.GetKeystorePasswordBytes,
			wallet.WithKeystoreLogger(observability.Component("keystore")),
		))
	}
	if len(opts.Adapters) == 0 {
		log.Warn("No wallet adapters configured: enable the bridge or set KEYSTORE_PATH")
	}

	manager, err := wallet.NewManager(opts)
	if err != nil {
		return err
	}
	defer manager.Close()

	cache, closeCache, err := openMetadataCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	resolver := metadata.NewResolver(cfg.Gateways, cfg.GatewayTimeout,
		metadata.WithResolverLogger(observability.Component("gateway")),
		metadata.WithResolverMetrics(metrics),
	)
	reader := metadata.NewReader(
		func() (metadata.AccountFetcher, string) {
			return manager.Connection(), string(manager.Network())
		},
		resolver,
		metadata.WithCache(cache),
		metadata.WithReaderLogger(observability.Component("metadata")),
		metadata.WithReaderMetrics(metrics),
	)

	pinata := client.NewPinataClient(client.PinataCredentials{
		JWT:       cfg.PinataJWT,
		APIKey:    cfg.PinataAPIKey,
		SecretKey: cfg.PinataSecretKey,
	}, client.WithPinataLogger(observability.Component("pinata")))
	if pinata.Configured() {
		if err := pinata.TestAuthentication(ctx); err != nil {
			log.WithError(err).Warn("Pinata authentication failed")
		}
	}

	router, err := api.SetupRouter(api.Dependencies{
		Session:     manager,
		Reader:      reader,
		Pinner:      pinata,
		Bridge:      provider,
		Metrics:     metrics,
		PayCooldown: config.GetPayCooldown(),
		Logger:      observability.Component("api"),

		KeystorePath:     config.GetKeystorePath(),
		KeystorePassword: config.GetKeystorePasswordBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if provider != nil {
			log.Infof("Open http://localhost:%s/wallet/bridge/relay in a browser with %s installed", config.GetPort(), provider.Name())
		}
		errCh <- srv.ListenAndServe()
	}()

	go func() {
		if manager.AutoConnect(ctx) {
			snap := manager.Snapshot()
			log.WithFields(logrus.Fields{
				"adapter":    snap.Adapter,
				"public_key": common.ShortAddress(snap.PublicKey),
			}).Info("Restored wallet session")
		}
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openMetadataCache returns the Postgres cache when a DSN is configured and
// the in-memory one otherwise.
func openMetadataCache(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (metadata.Cache, func(), error) {
	if cfg.MetadataCacheDSN == "" {
		return memory.NewMetadataStore(cfg.MetadataCacheTTL), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.MetadataCacheDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	store := postgres.NewMetadataStore(pool, cfg.MetadataCacheTTL)
	purgeCtx, cancel := context.WithCancel(ctx)
	go purgeLoop(purgeCtx, store, cfg.MetadataCacheTTL, log)

	return store, func() {
		cancel()
		pool.Close()
	}, nil
}

func purgeLoop(ctx context.Context, store *postgres.MetadataStore, every time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to purge metadata cache")
				continue
			}
			if n > 0 {
				log.WithField("rows", n).Debug("Purged metadata cache")
			}
		}
	}
}
