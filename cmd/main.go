package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"match-mate/auth"
	"match-mate/internal"
	"match-mate/moderation"
	"match-mate/observability"
	"match-mate/projection"
	"match-mate/repositories"
	"match-mate/runtime"
	"match-mate/runtime/workers"
	"match-mate/search"
	"match-mate/services"
	"match-mate/transport/httpapi"
	"match-mate/transport/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes every component and owns the server lifecycle. Returning an
// error instead of exiting lets the defers (database close, index close) run
// on every path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := search.OpenMatchIndex(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("match index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing match index...")
		_ = index.Close()
	}()

	// 3. Realtime core
	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry()
	router := runtime.NewRouter(log, registry, metrics)

	maskRune, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	words, err := moderation.DefaultWords()
	if err != nil {
		return fmt.Errorf("loading censored words failed: %w", err)
	}
	moderator, err := moderation.NewModerator(words, maskRune)
	if err != nil {
		return fmt.Errorf("building moderator failed: %w", err)
	}

	inbox := projection.NewInbox()
	messageRepository := repositories.NewMessageRepository(db, log)
	profileRepository := repositories.NewProfileRepository(db, log)

	chatService := services.NewChatService(
		log, messageRepository, router, &moderator, inbox, metrics, config.HistoryLimit,
	)

	// 4. HTTP surface
	issuer := auth.NewTokenIssuer([]byte(config.JwtSecret), config.AuthTokenDuration)
	authService := services.NewAuthService(profileRepository, index, issuer)
	matchService := services.NewMatchService(log, profileRepository, index, config.MatchLimit)
	uploadService := services.NewUploadService(log, http.DefaultClient, config.MediaHostURL)

	handlers := httpapi.NewHandlers(log, authService, chatService, matchService, uploadService)
	wsHandler := ws.NewHandler(log, registry, chatService)
	engine := httpapi.NewRouter(handlers, wsHandler, issuer, db, func() map[string]any {
		return lo.MapEntries(metrics.Snapshot(), func(name string, value uint64) (string, any) {
			return name, value
		})
	})

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewTelemetryWorker(log, metrics, config.MetricInterval))
	go sup.Run(ctx)

	// 7. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: engine}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
