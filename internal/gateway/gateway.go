// ABOUTME: Gateway orchestrator wiring the store, share services, and HTTP server
// ABOUTME: Manages startup, the expired-session sweeper, and graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Talotekniikkalehtila/doku/internal/api"
	"github.com/Talotekniikkalehtila/doku/internal/assets"
	"github.com/Talotekniikkalehtila/doku/internal/auth"
	"github.com/Talotekniikkalehtila/doku/internal/config"
	"github.com/Talotekniikkalehtila/doku/internal/share"
	"github.com/Talotekniikkalehtila/doku/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Gateway orchestrates the share-gateway server components: the SQLite
// store, the share services, the signed-asset handler, and the HTTP server.
type Gateway struct {
	config     *config.Config
	store      store.Store
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a gateway from the given configuration. The store is opened
// and all routes are wired; nothing listens until Run.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating JWT verifier: %w", err)
	}

	baseURL := cfg.Server.BaseURL
	if baseURL == "" {
		baseURL = "http://" + cfg.Server.HTTPAddr
	}
	signer, err := assets.NewSigner([]byte(cfg.Assets.Secret), baseURL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating asset signer: %w", err)
	}
	minter := assets.NewMinter(signer, cfg.Assets.URLTTL, nil)

	registry := share.NewRegistry(s, share.RegistryOptions{
		SlugLength:  cfg.Share.SlugLength,
		SlugRetries: cfg.Share.SlugRetries,
	})
	issuer := share.NewIssuer(s, registry, share.IssuerOptions{
		SessionTTL: cfg.Share.SessionTTL,
	})
	resolver := share.NewResolver(s, minter, share.ResolverOptions{
		AssetURLTTL: cfg.Assets.URLTTL,
	})

	mux := http.NewServeMux()
	api.New(registry, issuer, resolver, verifier).RegisterRoutes(mux)
	assets.NewHandler(signer, cfg.Assets.Dir).RegisterRoutes(mux)

	handler := api.RequestLogger(logger.With("component", "http"))(mux)

	return &Gateway{
		config: cfg,
		store:  s,
		httpServer: &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

// Run starts the HTTP server and the expired-session sweeper and blocks
// until the context is cancelled or the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go share.RunSessionSweeper(sweepCtx, g.store, g.config.Share.SweepInterval, g.logger)

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		g.logger.Info("shutdown signal received")
		return g.Shutdown()
	case err := <-errCh:
		g.closeStore()
		return err
	}
}

// Shutdown stops the HTTP server gracefully and closes the store.
func (g *Gateway) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	g.logger.Info("shutdown complete")
	return nil
}

func (g *Gateway) closeStore() {
	if err := g.store.Close(); err != nil {
		g.logger.Error("closing store failed", "error", err)
	}
}
