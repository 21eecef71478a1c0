package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leadstream/leadstream/internal/api"
	"github.com/leadstream/leadstream/internal/assistant"
	"github.com/leadstream/leadstream/internal/config"
	"github.com/leadstream/leadstream/internal/database"
	"github.com/leadstream/leadstream/internal/presence"
	"github.com/leadstream/leadstream/internal/server"
	"github.com/leadstream/leadstream/internal/stats"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "5qLk1H0u5m1zPZG0W0v2jv6u3S7u0mP+a8M1uT5wQHs="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	redisAddr      string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&redisAddr, "redis-addr", "localhost:6379", "redis address for presence tracking")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[leadstream] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, redisAddr, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgLeadStreamRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("db migrate:", err)
	}

	redisStore := presence.NewRedisStore(cfg.RedisAddr)
	defer func() {
		if err := redisStore.Close(); err != nil {
			logger.Println("redis close:", err)
		}
	}()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisStore.Ping(pingCtx); err != nil {
		// presence is best effort, the realtime layer runs without it
		logger.Println("redis unreachable, presence tracking degraded:", err)
	}
	cancelPing()

	tracker := presence.NewTracker(logger, redisStore)

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	hub, err := server.NewHub(logger, tracker, server.NewRandomArbiter(), statsUpdater)
	if err != nil {
		logger.Fatal("new hub:", err)
	}

	srv := api.NewLeadStreamApp(mux, logger, hub, dbConn, assistant.Default(), cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go hub.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down realtime hub...")
	if err := hub.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("hub shutdown:", err)
	}

	logger.Println("shutdown complete")
}
