package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mountbreed/core"
	"mountbreed/gateway/middleware"
	"mountbreed/gateway/routes"
	"mountbreed/storage"
)

func runServe(e *env, args []string) int {
	fs := newFlagSet("serve", e.stderr)
	listen := fs.String("listen", e.cfg.Gateway.Listen, "address the query gateway listens on")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	secret, err := e.cfg.GatewaySecret()
	if err != nil {
		return printError(e.stderr, err)
	}
	snapshots, err := e.snapshots()
	if err != nil {
		return printError(e.stderr, err)
	}
	gw := e.cfg.Gateway
	handler := routes.New(routes.Config{
		ServiceName: "mountbreed-gateway",
		Queryer:     snapshots,
		Logger:      e.logger,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			Enabled:    gw.AuthEnabled,
			HMACSecret: secret,
			Issuer:     gw.JWTIssuer,
			Audience:   gw.JWTAudience,
		}, e.logger),
		RateLimiter: middleware.NewRateLimiter(map[string]middleware.RateLimit{
			"mountbreed": {RequestsPerMinute: gw.RequestsPerMinute, Burst: gw.Burst},
		}, e.logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			LogRequests: gw.LogRequests,
		}, e.logger),
		CORS: middleware.CORSConfig{AllowedOrigins: gw.AllowedOrigins},
	})

	srv := &http.Server{
		Addr:              *listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("gateway listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return printError(e.stderr, err)
		}
		return 0
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return printError(e.stderr, err)
	}
	e.logger.Info("gateway stopped")
	return 0
}

// snapshots returns a query view that reopens the state database read-only
// for every request, leaving the write lock free for other commands. The
// database is created first when it does not exist yet.
func (e *env) snapshots() (*core.Snapshots, error) {
	backend, path := e.cfg.StorageBackend, e.cfg.StatePath()
	db, err := storage.Open(backend, path)
	if err != nil {
		return nil, err
	}
	db.Close()
	ro, err := storage.OpenReadOnly(backend, path)
	if err != nil {
		return nil, fmt.Errorf("serve requires a persistent storage backend: %w", err)
	}
	ro.Close()

	program, opts, err := e.runtimeOptions()
	if err != nil {
		return nil, err
	}
	return core.NewSnapshots(func() (storage.Database, error) {
		return storage.OpenReadOnly(backend, path)
	}, program, opts...)
}
