package ratelimit

import (
	"strings"
)

// unlimited is returned for endpoints that are never limited.
var unlimited = EndpointConfig{}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Exact paths win over prefixes; a prefix is a Path ending in "/" and an
// empty Method matches any method.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		cfg := unlimited
		return &cfg
	}

	for i := range configs {
		cfg := &configs[i]
		if cfg.Path == path && methodMatches(cfg.Method, method) {
			return cfg
		}
	}

	for i := range configs {
		cfg := &configs[i]
		if strings.HasSuffix(cfg.Path, "/") && strings.HasPrefix(path, cfg.Path) && methodMatches(cfg.Method, method) {
			return cfg
		}
	}

	return nil
}

func methodMatches(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}
