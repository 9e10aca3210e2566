package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("GRPC_ADDR", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "blog" {
		t.Fatalf("expected service name blog, got %q", cfg.ServiceName)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.GRPC.Addr != ":9090" {
		t.Fatalf("unexpected addrs: http=%q grpc=%q", cfg.HTTP.Addr, cfg.GRPC.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info, got %q", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "blog-api")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "blog-api" || cfg.HTTP.Addr != ":9000" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_InvalidServiceName(t *testing.T) {
	t.Setenv("SERVICE_NAME", "blog api")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for service name with spaces")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blog.env")
	if err := os.WriteFile(path, []byte("BLOG_DOTENV_A=from-file\nBLOG_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("BLOG_DOTENV_A", "")
	_ = os.Unsetenv("BLOG_DOTENV_A")
	t.Setenv("BLOG_DOTENV_B", "from-process")
	t.Cleanup(func() { _ = os.Unsetenv("BLOG_DOTENV_A") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("BLOG_DOTENV_A"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("BLOG_DOTENV_B"); got != "from-process" {
		t.Fatalf("process env must win, got %q", got)
	}
}
