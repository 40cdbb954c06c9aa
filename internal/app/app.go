package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/auth"
	"github.com/MikhailRaia/secure-shortener/internal/config"
	"github.com/MikhailRaia/secure-shortener/internal/handler"
	"github.com/MikhailRaia/secure-shortener/internal/middleware"
	"github.com/MikhailRaia/secure-shortener/internal/proto"
	"github.com/MikhailRaia/secure-shortener/internal/service"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
	"github.com/MikhailRaia/secure-shortener/internal/storage/file"
	"github.com/MikhailRaia/secure-shortener/internal/storage/memory"
	"github.com/MikhailRaia/secure-shortener/internal/storage/postgres"
	redisstorage "github.com/MikhailRaia/secure-shortener/internal/storage/redis"
	"github.com/MikhailRaia/secure-shortener/internal/storage/sqlite"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
)

type App struct {
	config     *config.Config
	handler    http.Handler
	httpServer *http.Server
	grpcServer *grpc.Server
	closeStore func()
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeStore, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	linkService := service.NewLinkService(store, cfg.BaseURL)

	verifier := newVerifier(cfg)

	var pinger handler.DBPinger
	if p, ok := store.(storage.Pinger); ok {
		pinger = p
	}

	opts := []handler.Option{
		handler.WithAuth(middleware.NewAuthMiddleware(verifier, cfg.RequireAuth)),
	}
	if cfg.OAuthClientID != "" {
		opts = append(opts, handler.WithOAuth(auth.NewGoogleOAuth(
			cfg.OAuthClientID,
			cfg.OAuthClientSecret,
			cfg.OAuthRedirectURL,
			verifier,
		)))
	}

	httpHandler := handler.NewHandler(linkService, pinger, opts...)
	routes := httpHandler.RegisterRoutes()

	a := &App{
		config:  cfg,
		handler: routes,
		httpServer: &http.Server{
			Addr:              cfg.ServerAddress,
			Handler:           routes,
			ReadHeaderTimeout: 10 * time.Second,
		},
		closeStore: closeStore,
	}

	if cfg.GRPCAddress != "" {
		interceptor := middleware.NewGRPCAuthMiddleware(verifier, cfg.RequireAuth)
		a.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(interceptor.UnaryInterceptor))
		proto.RegisterShortenerServiceServer(a.grpcServer, handler.NewShortenerGRPCServer(linkService, grpcBaseURL(cfg)))
	}

	return a, nil
}

// newStorage picks the backend: postgres, redis, sqlite, file, then memory.
func newStorage(ctx context.Context, cfg *config.Config) (storage.LinkStorage, func(), error) {
	switch {
	case cfg.DatabaseDSN != "":
		log.Info().Msg("Using PostgreSQL storage")
		store, err := postgres.NewStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing postgres storage: %w", err)
		}
		return store, store.Close, nil

	case cfg.RedisAddr != "":
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis storage")
		store, err := redisstorage.NewStorage(ctx, redisstorage.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing redis storage: %w", err)
		}
		return store, store.Close, nil

	case cfg.SQLitePath != "":
		log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite storage")
		store, err := sqlite.NewStorage(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing sqlite storage: %w", err)
		}
		return store, store.Close, nil

	case cfg.FileStoragePath != "":
		log.Info().Str("path", cfg.FileStoragePath).Msg("Using file storage")
		store, err := file.NewStorage(cfg.FileStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing file storage: %w", err)
		}
		return store, func() {}, nil

	default:
		log.Info().Msg("Using in-memory storage")
		return memory.NewStorage(), func() {}, nil
	}
}

// newVerifier returns nil when no verification is configured, leaving
// client-supplied owners trusted.
func newVerifier(cfg *config.Config) auth.TokenVerifier {
	var opts []auth.VerifierOption

	audience := cfg.AuthAudience

	if cfg.AuthSecret != "" {
		if len(cfg.AuthIssuers) > 0 {
			opts = append(opts, auth.WithIssuers(cfg.AuthIssuers...))
		}
		if audience != "" {
			opts = append(opts, auth.WithAudience(audience))
		}
		log.Info().Msg("Verifying identity tokens with shared secret")
		return auth.NewHMACVerifier(cfg.AuthSecret, opts...)
	}

	if cfg.JWKSURL == "" && cfg.OAuthClientID == "" {
		return nil
	}

	jwksURL := cfg.JWKSURL
	issuers := cfg.AuthIssuers
	if jwksURL == "" {
		jwksURL = config.GoogleJWKSURL
		if len(issuers) == 0 {
			issuers = config.GoogleIssuers
		}
	}
	if audience == "" {
		audience = cfg.OAuthClientID
	}

	if len(issuers) > 0 {
		opts = append(opts, auth.WithIssuers(issuers...))
	}
	if audience != "" {
		opts = append(opts, auth.WithAudience(audience))
	}

	log.Info().Str("jwks", jwksURL).Msg("Verifying identity tokens against JWKS")
	return auth.NewJWKSVerifier(auth.NewKeySet(jwksURL, cfg.JWKSCacheTTL, nil), opts...)
}

func grpcBaseURL(cfg *config.Config) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}

	host := cfg.ServerAddress
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host
}

// Run serves until ctx is cancelled or a server fails, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		log.Info().Str("address", a.config.ServerAddress).Msg("Starting HTTP server")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if a.grpcServer != nil {
		listener, err := net.Listen("tcp", a.config.GRPCAddress)
		if err != nil {
			return errors.Join(fmt.Errorf("error listening on %s: %w", a.config.GRPCAddress, err), a.shutdown())
		}

		go func() {
			log.Info().Str("address", a.config.GRPCAddress).Msg("Starting gRPC server")
			if err := a.grpcServer.Serve(listener); err != nil {
				errCh <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Server stopped unexpectedly")
	}

	return errors.Join(runErr, a.shutdown())
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()

	var err error
	if shutdownErr := a.httpServer.Shutdown(ctx); shutdownErr != nil {
		err = fmt.Errorf("error shutting down HTTP server: %w", shutdownErr)
	}

	if a.grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			a.grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-ctx.Done():
			a.grpcServer.Stop()
		}
	}

	a.closeStore()
	log.Info().Msg("Server stopped")

	return err
}
