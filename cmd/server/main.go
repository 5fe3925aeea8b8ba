// Package main wires the ingestion core's dependency graph and serves
// its HTTP surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/brinkfield/multicore/internal/config"
	"github.com/brinkfield/multicore/internal/docstore"
	"github.com/brinkfield/multicore/internal/encoder"
	"github.com/brinkfield/multicore/internal/extractor"
	"github.com/brinkfield/multicore/internal/httpapi"
	"github.com/brinkfield/multicore/internal/ingest"
	"github.com/brinkfield/multicore/internal/pipeline"
	"github.com/brinkfield/multicore/internal/platform/logger"
	"github.com/brinkfield/multicore/internal/search"
	"github.com/brinkfield/multicore/internal/storage"
	"github.com/brinkfield/multicore/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic("failed to construct logger: " + err.Error())
	}
	defer log.Sync()

	store, err := storage.New(cfg.LocalRootRepo)
	if err != nil {
		log.Fatal("failed to initialize storage root", "error", err)
	}

	var ds docstore.Store
	if cfg.MongoURI != "" {
		gs, err := docstore.NewGormStore(cfg.LocalRootRepo + "/documents.sqlite3")
		if err != nil {
			log.Fatal("failed to open document store", "error", err)
		}
		ds = gs
		log.Info("document store ready", "backend", "sqlite")
	} else {
		ds = docstore.NewMemoryStore()
		log.Info("document store ready", "backend", "memory")
	}

	vs, err := vectorstore.New(log, cfg.ChromaPersistPath, cfg.ChromaNoSQLCollection)
	if err != nil {
		log.Warn("vector store unavailable, falling back to metadata search", "error", err.Error())
		vs = vectorstore.Unavailable(log)
	}

	enc, err := encoder.New(cfg.EnableAudio)
	if err != nil {
		log.Fatal("failed to construct encoder", "error", err)
	}

	ex := extractor.New(log)
	pl := pipeline.New(ex, enc, log)
	coord := ingest.New(pl, store, ds, vs, log)
	searcher := search.New(enc, vs, ds)

	server := httpapi.NewServer(cfg, coord, ds, store, searcher, log)
	router := server.Router()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	go func() {
		log.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error during graceful shutdown", "error", err)
	}
}
