package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"example.com/workout/internal/api"
	"example.com/workout/internal/auth"
	"example.com/workout/internal/config"
	"example.com/workout/internal/domain"
	"example.com/workout/internal/outbox"
	persistence "example.com/workout/internal/persistence/postgres"
	httptransport "example.com/workout/internal/transport/http"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "workout").Logger()

	if cfg.JWKSURL == "" {
		log.Fatal().Msg("JWKS_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	dispatcher := outbox.NewDispatcher(pool, producer, cfg.OutboxPollInterval, cfg.OutboxBatchSize, log.Logger)
	go dispatcher.Start(ctx)

	routines := domain.NewRoutineService(repo)
	sessions := domain.NewSessionService(repo)
	history := domain.NewHistoryService(repo)

	keys := auth.NewKeySet(cfg.JWKSURL)
	verifier := auth.NewVerifier(keys)
	authMiddleware := auth.NewMiddleware(verifier, func(r *http.Request) bool {
		return r.URL.Path == "/health" || r.URL.Path == "/metrics"
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(corsMiddleware(cfg.CORSAllowOrigin))
	r.Use(authMiddleware.Wrap)

	handler := api.NewHandler(routines, sessions, history)
	handler.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, r)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("address", cfg.HTTPAddress).Msg("workout service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	dispatcher.Wait()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(allowOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
