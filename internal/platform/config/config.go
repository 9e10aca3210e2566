package config

import (
	"errors"
	"os"
	"strings"
)

type HTTPConfig struct {
	Addr string
}

type GRPCConfig struct {
	Addr string
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	GRPC        GRPCConfig
}

// Load reads the settings every process shares. SERVICE_NAME defaults to
// "blog" so CLI subcommands work without a full environment.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		HTTP:        HTTPConfig{Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR"))},
		GRPC:        GRPCConfig{Addr: strings.TrimSpace(os.Getenv("GRPC_ADDR"))},
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "blog"
	}
	if strings.ContainsAny(cfg.ServiceName, " \t/") {
		return AppConfig{}, errors.New("SERVICE_NAME must not contain whitespace or slashes")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = ":9090"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
