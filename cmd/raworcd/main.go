// raworcd is the control plane process: API Core plus the Reconciler tick
// loop, fronted by a minimal HTTP transport.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raworc/raworc/pkg/apicore"
	"github.com/raworc/raworc/pkg/config"
	"github.com/raworc/raworc/pkg/contentstore"
	"github.com/raworc/raworc/pkg/database"
	"github.com/raworc/raworc/pkg/engine/docker"
	"github.com/raworc/raworc/pkg/reconciler"
	"github.com/raworc/raworc/pkg/store"
	"github.com/raworc/raworc/pkg/transport/httpstub"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", ""), "Path to YAML defaults file")
	flag.Parse()

	log.Printf("Starting raworcd")

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := database.NewClient(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("closing database client: %v", err)
		}
	}()
	log.Println("connected to PostgreSQL database")

	st := store.NewEntStore(dbClient.Client)

	eng, err := docker.New()
	if err != nil {
		log.Fatalf("connecting to container engine: %v", err)
	}

	content, err := contentstore.NewFSStore(cfg.ContentRoot)
	if err != nil {
		log.Fatalf("opening content store at %q: %v", cfg.ContentRoot, err)
	}

	logger := slog.Default()
	rc := reconciler.New(st, eng, content, cfg.Reconciler, cfg.Agent, logger)

	runtimes := apicore.NewHTTPRuntimeClient(5 * time.Second)
	core := apicore.New(st, rc, eng, runtimes, cfg.Agent, logger)

	go func() {
		if err := rc.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("reconciler stopped: %v", err)
		}
	}()

	httpPort := getEnv("HTTP_PORT", "8080")
	router := httpstub.New(core, getEnv("GIN_MODE", "release"))
	srv := &http.Server{Addr: ":" + httpPort, Handler: router}

	go func() {
		log.Printf("HTTP server listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
}
