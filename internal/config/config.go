// Package config centralizes the environment-variable surface of the
// ingestion core, loaded with godotenv and parsed with the typed
// helpers in internal/platform/envutil.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/brinkfield/multicore/internal/platform/envutil"
)

// Config is process-wide state, loaded once at startup (see Load).
type Config struct {
	AppEnv                string
	Port                  string
	LocalRootRepo         string
	MongoURI              string
	MongoDB               string
	ChromaPersistPath     string
	ChromaNoSQLCollection string
	EnableAudio           bool
	CLIPModelName         string
	CLIPPretrained        string
}

// Load reads a .env file if present (a missing file is not an error)
// then resolves every environment key this process needs, defaulting
// and absolutizing paths as required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:                envutil.String("APP_ENV", "development"),
		Port:                  envutil.String("PORT", "8080"),
		LocalRootRepo:         envutil.String("LOCAL_ROOT_REPO", "../storage"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDB:               os.Getenv("MONGO_DB"),
		ChromaPersistPath:     envutil.String("CHROMA_PERSIST_PATH", "./chroma_db"),
		ChromaNoSQLCollection: envutil.String("CHROMA_NOSQL_COLLECTION", "nosql_graph_embeddings"),
		EnableAudio:           envutil.Bool("ENABLE_AUDIO", true),
		CLIPModelName:         envutil.String("CLIP_MODEL_NAME", "ViT-B-32"),
		CLIPPretrained:        envutil.String("CLIP_PRETRAINED", "openai"),
	}

	root, err := filepath.Abs(cfg.LocalRootRepo)
	if err != nil {
		return nil, err
	}
	cfg.LocalRootRepo = root

	persist, err := filepath.Abs(cfg.ChromaPersistPath)
	if err != nil {
		return nil, err
	}
	cfg.ChromaPersistPath = persist

	if err := os.MkdirAll(cfg.LocalRootRepo, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.ChromaPersistPath, 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}
