package evm

import (
	"errors"
	"fmt"
)

// RPC is a single JSON-RPC endpoint.
type RPC struct {
	// Name identifies the endpoint in logs, e.g. "alchemy-mainnet".
	Name string `mapstructure:"name" yaml:"name"`
	// HTTPURL is the http(s) endpoint.
	HTTPURL string `mapstructure:"http_url" yaml:"http_url"`
	// WSURL is the optional websocket endpoint.
	WSURL string `mapstructure:"ws_url" yaml:"ws_url"`
	// PreferredURLScheme selects between the two. Empty or "http" picks
	// HTTPURL, "ws" picks WSURL.
	PreferredURLScheme string `mapstructure:"preferred_url_scheme" yaml:"preferred_url_scheme"`
}

// Endpoint returns the URL to dial based on the preferred scheme.
func (r RPC) Endpoint() (string, error) {
	switch r.PreferredURLScheme {
	case "", "http":
		if r.HTTPURL == "" {
			return "", fmt.Errorf("rpc %q: no http url configured", r.Name)
		}

		return r.HTTPURL, nil
	case "ws":
		if r.WSURL == "" {
			return "", fmt.Errorf("rpc %q: no ws url configured", r.Name)
		}

		return r.WSURL, nil
	default:
		return "", fmt.Errorf("rpc %q: unknown url scheme preference %q", r.Name, r.PreferredURLScheme)
	}
}

// RPCConfig is the endpoint configuration for one chain. The first healthy RPC
// becomes the primary; the rest serve as backups.
type RPCConfig struct {
	ChainSelector uint64 `mapstructure:"chain_selector" yaml:"chain_selector"`
	RPCs          []RPC  `mapstructure:"rpcs" yaml:"rpcs"`
}

// Validate checks that the configuration is usable.
func (c RPCConfig) Validate() error {
	if c.ChainSelector == 0 {
		return errors.New("chain selector is required")
	}
	if len(c.RPCs) == 0 {
		return errors.New("at least one RPC is required")
	}

	return nil
}
