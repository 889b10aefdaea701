package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "LIQUIDBOOKS_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "LIQUIDBOOKS_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "storage.data_dir", typ: kString, env: "LIQUIDBOOKS_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "generate.openrouter_api_key", typ: kString, env: "LIQUIDBOOKS_OPENROUTER_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Generate.OpenRouterAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Generate.OpenRouterAPIKey },
	},
	{
		key: "generate.model", typ: kString, env: "LIQUIDBOOKS_GENERATE_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Generate.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Generate.Model },
	},
	{
		key: "github.token", typ: kString, env: "LIQUIDBOOKS_GITHUB_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.GitHub.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.GitHub.Token },
	},
	{
		key: "github.owner", typ: kString, env: "LIQUIDBOOKS_GITHUB_OWNER",
		apply:   func(cfg *Config, v any) { cfg.GitHub.Owner = v.(string) },
		extract: func(cfg Config) any { return cfg.GitHub.Owner },
	},
	{
		key: "api.token", typ: kString, env: "LIQUIDBOOKS_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "worker.poll_interval", typ: kString, env: "LIQUIDBOOKS_WORKER_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Worker.PollInterval = v.(string) },
		extract: func(cfg Config) any { return cfg.Worker.PollInterval },
	},
	{
		key: "log.level", typ: kString, env: "LIQUIDBOOKS_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
