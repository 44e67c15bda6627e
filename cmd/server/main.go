/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the weekplan server. Handles configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite store
  3. Apply the directory seed, build the fallback-client resolver
  4. Wire the transition engine and API handler
  5. Start server with graceful shutdown

CONFIGURATION:
  -port    HTTP server port (default: 8080, env PORT)
  -db      SQLite database path (default: weekplan.db, env DATABASE_PATH)
           Use ":memory:" for an in-memory database
  -seed    Directory seed JSON path (default: seed.json, env SEED_PATH)
  -debug   Verbose logging

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the database, exit.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/warp/weekplan/api"
	"github.com/warp/weekplan/factory"
	"github.com/warp/weekplan/planning"
	"github.com/warp/weekplan/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "weekplan.db"), "SQLite database path")
	seedPath := flag.String("seed", envStr("SEED_PATH", "seed.json"), "directory seed JSON path")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	ctx := context.Background()

	// Seed the directory and bind the fallback client once, at startup.
	var resolver *planning.FallbackResolver
	if seed, err := factory.Load(*seedPath); err == nil {
		if err := seed.Apply(ctx, store); err != nil {
			log.Fatal().Err(err).Msg("failed to apply seed")
		}
		resolver, err = seed.Resolver(ctx, store)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build fallback resolver")
		}
		log.Info().Str("seed", *seedPath).Msg("directory seeded")
	} else {
		log.Warn().Err(err).Msg("no seed applied, fallback client unresolved")
		resolver, err = planning.NewFallbackResolver(ctx, store, "", "")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build fallback resolver")
		}
	}

	engine := planning.NewEngine(store, store, resolver, log)
	handler := api.NewHandler(store, engine, log)
	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}
