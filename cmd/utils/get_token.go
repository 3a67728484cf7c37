package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/internal/domain/repository"
	"chronos-reconciler/internal/infrastructure/config"
	"chronos-reconciler/internal/infrastructure/oauth"
	"chronos-reconciler/internal/infrastructure/persistence"
	storeRepo "chronos-reconciler/internal/interface/repository"
	"chronos-reconciler/pkg/logger"

	"github.com/google/uuid"
)

// Obtains the first Zoom token pair through the authorization-code flow
// and stores it, so update passes have something to refresh.
func main() {
	log := logger.NewLogger("info")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	zoomOAuth := oauth.NewZoomOAuth(
		cfg.ZoomClientID,
		cfg.ZoomClientSecret,
		cfg.ZoomAuthURL,
		cfg.ZoomTokenURL,
		cfg.ZoomRedirectURL,
		&http.Client{Timeout: 30 * time.Second},
		log,
	)
	if !zoomOAuth.Configured() {
		log.Fatal("Zoom OAuth client is not configured", "error", entity.ErrClientNotConfigured)
	}

	tokens, err := openTokenStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open token store", "error", err)
	}

	redirect, err := url.Parse(cfg.ZoomRedirectURL)
	if err != nil {
		log.Fatal("Invalid ZOOM_REDIRECT_URL", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create a random state
	state := uuid.NewString()
	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	// Handle the OAuth callback
	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		cred, err := zoomOAuth.ExchangeCode(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to exchange code: %v", err), http.StatusInternalServerError)
			finish(err)
			return
		}

		// Keep the row id so an existing credential is replaced in place
		if existing, err := tokens.GetCredential(r.Context()); err == nil {
			cred.ID = existing.ID
		}
		if err := tokens.SaveCredential(r.Context(), cred); err != nil {
			http.Error(w, fmt.Sprintf("Failed to save token: %v", err), http.StatusInternalServerError)
			finish(err)
			return
		}

		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		finish(nil)
	})

	server := &http.Server{Addr: redirect.Host, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			finish(err)
		}
	}()

	fmt.Printf("Open this URL in your browser:\n%s\n", zoomOAuth.GenerateAuthURL(state))

	exitCode := 0
	select {
	case err := <-done:
		if err != nil {
			log.Error("Token bootstrap failed", "error", err)
			exitCode = 1
		} else {
			log.Info("Zoom token stored")
		}
	case <-ctx.Done():
		log.Info("Interrupted")
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	server.Shutdown(shutdownCtx)
	cancel()
	log.Sync()
	os.Exit(exitCode)
}

func openTokenStore(cfg *config.Config, log logger.Logger) (repository.TokenRepository, error) {
	if cfg.StoreDriver == config.StoreDriverPostgres {
		db, err := persistence.NewPostgresDB(cfg.PostgresDSN, 2)
		if err != nil {
			return nil, err
		}
		return storeRepo.NewGormStore(db), nil
	}
	return storeRepo.NewPostgRESTStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StoreRetryMax, 30*time.Second, log), nil
}
