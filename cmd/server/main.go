package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calvinwijaya/blackjack-table/internal/api"
	"github.com/calvinwijaya/blackjack-table/internal/config"
	"github.com/calvinwijaya/blackjack-table/internal/db"
	"github.com/calvinwijaya/blackjack-table/internal/logger"
	"github.com/calvinwijaya/blackjack-table/internal/store"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the database; without one sessions live in memory only
	database := openDatabase(cfg, log)
	if database != nil {
		defer database.Close()
	}

	var gameStore store.Store
	if database != nil {
		gameStore = store.NewDatabaseStore(database)
		log.Info("database game store initialized", zap.String("driver", cfg.DBDriver))
	} else {
		gameStore = store.NewMemoryStore()
		log.Info("in-memory game store initialized")
	}

	// Initialize WebSocket hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := api.NewHub(log.Named("ws"))
	go hub.Run(hubCtx)

	handlers := api.NewHandlers(gameStore, database, hub, cfg.Rules, log.Named("api"))

	r := mux.NewRouter()
	handlers.RegisterRoutes(r)
	r.Use(requestLogger(log))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("port", cfg.Port),
			zap.Int("decks", cfg.Rules.DeckCount),
			zap.Bool("hitSoft17", cfg.Rules.DealerHitsSoft17),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	hub.Broadcast(api.Message{Type: "serverShutdown"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	stopHub()
	return nil
}

func openDatabase(cfg config.Config, log *zap.Logger) *db.Database {
	if cfg.DBDriver == "" {
		return nil
	}

	if cfg.DBDriver == "sqlite3" {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0755); err != nil {
			log.Warn("failed to create data directory", zap.Error(err))
		}
	}

	database, err := db.NewDatabase(cfg.DBDriver, cfg.DBDSN, log.Named("db"))
	if err != nil {
		log.Warn("failed to initialize database, continuing without persistence", zap.Error(err))
		return nil
	}
	log.Info("database initialized", zap.String("driver", cfg.DBDriver))
	return database
}

func requestLogger(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
