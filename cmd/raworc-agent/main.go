// raworc-agent is the Agent Task Runtime entrypoint: the single process
// that runs inside each agent container, started by the Reconciler's
// ensure_container step.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raworc/raworc/pkg/config"
	"github.com/raworc/raworc/pkg/database"
	"github.com/raworc/raworc/pkg/inference"
	"github.com/raworc/raworc/pkg/inference/anthropic"
	"github.com/raworc/raworc/pkg/inference/openai"
	"github.com/raworc/raworc/pkg/runtime"
	"github.com/raworc/raworc/pkg/runtimeapi"
	"github.com/raworc/raworc/pkg/store"
	"github.com/raworc/raworc/pkg/tools"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	agentName := os.Getenv("AGENT_NAME")
	if agentName == "" {
		log.Fatal("AGENT_NAME is required")
	}

	log.Printf("Starting raworc-agent for %q", agentName)

	cfg, err := config.LoadFromFile("")
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

	st := store.NewEntStore(dbClient.Client)

	provider, err := newProvider(cfg.Inference)
	if err != nil {
		log.Fatalf("building inference provider: %v", err)
	}

	executor := tools.NewLocalExecutor(cfg.Tools)
	validator, err := tools.NewValidator()
	if err != nil {
		log.Fatalf("compiling tool schemas: %v", err)
	}

	rt := runtime.New(agentName, cfg.Agent.WorkspaceRoot, st, provider, executor, validator, cfg.Agent)

	srv := &http.Server{Addr: getEnv("RUNTIME_API_ADDR", ":8090"), Handler: runtimeapi.New(rt)}
	go func() {
		log.Printf("runtime control API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("runtime control API failed: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := rt.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("runtime stopped: %v", err)
	}
	log.Println("runtime stopped")
}

func newProvider(cfg config.InferenceConfig) (inference.Provider, error) {
	switch cfg.Provider {
	case config.InferenceProviderOpenAI:
		return openai.New(cfg.OpenAIAPIKey, cfg.Model), nil
	default:
		return anthropic.New(cfg.AnthropicAPIKey, cfg.Model), nil
	}
}
