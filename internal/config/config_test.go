package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsAndAbsolutizesPaths(t *testing.T) {
	t.Setenv("LOCAL_ROOT_REPO", filepath.Join(t.TempDir(), "repo"))
	t.Setenv("CHROMA_PERSIST_PATH", filepath.Join(t.TempDir(), "chroma"))
	os.Unsetenv("APP_ENV")
	os.Unsetenv("MONGO_URI")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppEnv != "development" {
		t.Fatalf("want default APP_ENV=development, got %s", cfg.AppEnv)
	}
	if !filepath.IsAbs(cfg.LocalRootRepo) {
		t.Fatalf("want LocalRootRepo absolutized, got %s", cfg.LocalRootRepo)
	}
	if _, err := os.Stat(cfg.LocalRootRepo); err != nil {
		t.Fatalf("expected LocalRootRepo to be created: %v", err)
	}
	if _, err := os.Stat(cfg.ChromaPersistPath); err != nil {
		t.Fatalf("expected ChromaPersistPath to be created: %v", err)
	}
}

func TestLoadEnableAudioDefaultsTrueButRespectsOverride(t *testing.T) {
	t.Setenv("LOCAL_ROOT_REPO", filepath.Join(t.TempDir(), "repo"))
	t.Setenv("CHROMA_PERSIST_PATH", filepath.Join(t.TempDir(), "chroma"))
	t.Setenv("ENABLE_AUDIO", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EnableAudio {
		t.Fatalf("expected ENABLE_AUDIO=false override to be respected")
	}
}
