package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/config"
	"expense-ledger/internal/handlers"
	"expense-ledger/internal/storage"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Starting with %s", cfg)

	if err := run(cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func run(cfg *config.Config) error {
	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	log.Printf("Opened %s database", db.Driver())

	creds, err := auth.NewCredentials(db, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to init credentials: %w", err)
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm)
	if err != nil {
		return fmt.Errorf("failed to init token service: %w", err)
	}
	log.Printf("Signing tokens with %s", tokens.Algorithm())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrapAdmin(ctx, db, creds, cfg.Bootstrap); err != nil {
		return err
	}

	if !cfg.Auth.RequireAuthOnMutations {
		log.Printf("WARNING: statement edit and delete routes accept requests without a token; set REQUIRE_AUTH_ON_MUTATIONS=true to require one")
	}

	h := handlers.NewHandlers(db, creds, tokens, handlers.Options{
		TokenTTL:               cfg.Auth.TokenTTL,
		RequireAuthOnMutations: cfg.Auth.RequireAuthOnMutations,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setupRouter(h *handlers.Handlers) http.Handler {
	return h.Routes()
}

// bootstrapAdmin creates the configured account when no users exist yet.
func bootstrapAdmin(ctx context.Context, db *storage.DB, creds *auth.Credentials, b config.BootstrapConfig) error {
	if b.Username == "" || b.Password == "" {
		return nil
	}
	n, err := db.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	email := b.Email
	if email == "" {
		email = b.Username + "@localhost"
	}
	id, err := creds.Register(ctx, b.Username, email, b.Password)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Printf("Created admin user %q with ID %d", b.Username, id)
	return nil
}
