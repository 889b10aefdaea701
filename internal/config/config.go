package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Generate GenerateConfig
	GitHub   GitHubConfig
	API      APIConfig
	Worker   WorkerConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type StorageConfig struct {
	DataDir string
}

type GenerateConfig struct {
	OpenRouterAPIKey string
	Model            string
}

type GitHubConfig struct {
	Token string
	Owner string
}

type APIConfig struct {
	Token string
}

type WorkerConfig struct {
	PollInterval string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4600,
			MCPPort: 4601,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Generate: GenerateConfig{
			Model: "anthropic/claude-sonnet-4",
		},
		Worker: WorkerConfig{
			PollInterval: "500ms",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.liquidbooks.app) and
// secrets fall back to macOS Keychain.
// On Linux the backend is a JSON file at
// $XDG_CONFIG_HOME/liquidbooks/config.json and secrets must be provided via
// environment variables.
//
// Environment variables (LIQUIDBOOKS_*) override backend values on all
// platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform keychain for secrets still unset.
	if cfg.Generate.OpenRouterAPIKey == "" {
		if key, err := kc.Get("liquidbooks", "openrouter_api_key"); err == nil && key != "" {
			cfg.Generate.OpenRouterAPIKey = key
		}
	}
	if cfg.GitHub.Token == "" {
		if key, err := kc.Get("liquidbooks", "github_token"); err == nil && key != "" {
			cfg.GitHub.Token = key
		}
	}
	if cfg.API.Token == "" {
		if key, err := kc.Get("liquidbooks", "api_token"); err == nil && key != "" {
			cfg.API.Token = key
		}
	}

	if cfg.Generate.OpenRouterAPIKey == "" {
		msg := "missing required config: OpenRouter API key. " +
			"Set it via environment variable LIQUIDBOOKS_OPENROUTER_API_KEY" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}
	if cfg.API.Token == "" {
		msg := "missing required config: API bearer token. " +
			"Set it via environment variable LIQUIDBOOKS_API_TOKEN" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	return cfg, nil
}

// keychainReader reads from macOS Keychain via the security CLI.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
