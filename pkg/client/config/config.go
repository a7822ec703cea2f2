package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Environment holds the process settings the client reads once at startup.
type Environment struct {
	// HTTPProxy is the proxy every request is routed through unless a request sets its own.
	HTTPProxy string `koanf:"http_proxy"`
}

// Load reads the proxy environment. The lowercase http_proxy variable wins over HTTP_PROXY.
func Load() (*Environment, error) {
	k := koanf.New(".")

	if err := k.Load(env.ProviderWithValue("HTTP_PROXY", ".", keyFor("HTTP_PROXY")), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("http_proxy", ".", keyFor("http_proxy")), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Environment
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	cfg.HTTPProxy = strings.TrimSpace(cfg.HTTPProxy)

	return &cfg, nil
}

// keyFor maps exactly the named variable to http_proxy. Empty values and other
// variables sharing its prefix are dropped.
func keyFor(name string) func(string, string) (string, interface{}) {
	return func(key, value string) (string, interface{}) {
		if key != name || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return "http_proxy", value
	}
}
