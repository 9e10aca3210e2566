package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

type BlogConfig struct {
	JWTSecret   []byte
	DatabaseURL string
	// Production forbids falling back to the in-memory store.
	Production bool
	RedisAddr  string
	NATSURL    string

	ReportRateLimit   int
	ReportRateWindow  time.Duration
	CommentRateLimit  int
	CommentRateWindow time.Duration
	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []netip.Prefix
}

func LoadBlog() (BlogConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return BlogConfig{}, errors.New("JWT_SECRET is required")
	}
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	cfg := BlogConfig{
		JWTSecret:        []byte(secret),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Production:       env == "prod" || env == "production",
		RedisAddr:        strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		NATSURL:          strings.TrimSpace(os.Getenv("NATS_URL")),
		ReportRateLimit:  parseIntWithDefault(os.Getenv("REPORT_RATE_LIMIT"), 10),
		ReportRateWindow: parseDurationWithDefault(os.Getenv("REPORT_RATE_WINDOW"), time.Minute),

		CommentRateLimit:  parseIntWithDefault(os.Getenv("COMMENT_RATE_LIMIT"), 30),
		CommentRateWindow: parseDurationWithDefault(os.Getenv("COMMENT_RATE_WINDOW"), time.Minute),
	}
	proxies, err := parseProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return BlogConfig{}, err
	}
	cfg.TrustedProxies = proxies
	if cfg.Production && cfg.DatabaseURL == "" {
		return BlogConfig{}, errors.New("DATABASE_URL is required when APP_ENV=production")
	}
	return cfg, nil
}

func parseDurationWithDefault(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseIntWithDefault(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// parseProxies reads a comma-separated list of CIDRs or bare addresses.
func parseProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
