// msgstored serves an in-memory stand-in for the TradHub auth and Message
// Store API, for local development of the messaging client.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradhub-messaging/internal/stubserver"
)

// Demo accounts seeded at startup. Both use the password from
// MSGSTORED_SEED_PASSWORD (default "tradhub").
var seedUsers = []struct {
	email string
	name  string
}{
	{"acheteur@tradhub.test", "Amina Acheteur"},
	{"fournisseur@tradhub.test", "Félix Fournisseur"},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, using process environment only")
	}

	addr := listenAddr()
	password := seedPassword()

	store := stubserver.NewStore()
	for _, seed := range seedUsers {
		user, err := store.SeedUser(seed.email, seed.name, password)
		if err != nil {
			slog.Error("failed to seed user", "email", seed.email, "err", err)
			os.Exit(1)
		}
		slog.Info("seeded user", "email", user.Email, "id", user.ID)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           stubserver.NewServer(store).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("msgstored listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func listenAddr() string {
	port := strings.TrimSpace(os.Getenv("MSGSTORED_PORT"))
	if port == "" {
		port = "8001"
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func seedPassword() string {
	if pw := os.Getenv("MSGSTORED_SEED_PASSWORD"); pw != "" {
		return pw
	}
	return "tradhub"
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
