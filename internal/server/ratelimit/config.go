package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig limits one route. Path matches exactly or as a prefix.
type EndpointConfig struct {
	Path   string
	Method string // empty matches any method
	Limit  int    // requests per Window
	Window time.Duration
	Burst  int // defaults to Limit when 0
}

// LoadConfig reads the limiter settings from RATE_LIMIT_* variables.
func LoadConfig() *Config {
	if !env("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env("RATE_LIMIT_DEFAULT_LIMIT", 1000, strconv.Atoi),
		DefaultWindow:   env("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: env("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		IdleTTL:         env("RATE_LIMIT_IDLE_TTL", time.Hour, time.ParseDuration),
		Whitelist:       ipSet(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       ipSet(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits. Routes that launch a
// browser share RATE_LIMIT_ANALYZE_LIMIT per RATE_LIMIT_ANALYZE_WINDOW, with
// batch detection getting a third of it. Reads fall through to the default
// limit and GET /health is never limited.
func DefaultEndpointConfigs() []EndpointConfig {
	limit := env("RATE_LIMIT_ANALYZE_LIMIT", 30, strconv.Atoi)
	window := env("RATE_LIMIT_ANALYZE_WINDOW", time.Hour, time.ParseDuration)

	return []EndpointConfig{
		{Path: "/analyze", Method: "POST", Limit: limit, Window: window, Burst: 5},
		{Path: "/detect", Method: "POST", Limit: max(limit/3, 1), Window: window, Burst: 2},
		{Path: "/score/what-if", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// env parses key with parse, returning def when it is unset or malformed.
func env[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func ipSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
