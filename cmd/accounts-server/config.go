package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/persistence"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig is the YAML document read at startup.
type ServerConfig struct {
	Accounts accounts.Config    `yaml:"accounts"`
	Database persistence.Config `yaml:"database"`
	HTTP     HTTPConfig         `yaml:"http"`
	SeedFile string             `yaml:"seed_file"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Accounts: accounts.DefaultConfig(),
		Database: persistence.DefaultConfig(),
		HTTP:     HTTPConfig{Addr: ":8080"},
	}
}

// loadConfig reads path when it exists, then applies ACCOUNTS_*
// environment overrides. A .env file in the working directory is loaded
// first.
func loadConfig(path string) (ServerConfig, error) {
	_ = godotenv.Load()

	cfg := defaultServerConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.Accounts = cfg.Accounts.Normalize()

	if err := cfg.Accounts.Validate(); err != nil {
		return cfg, fmt.Errorf("accounts config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *ServerConfig) {
	cfg.Accounts.SigningKey = firstNonEmpty(os.Getenv("ACCOUNTS_SIGNING_KEY"), cfg.Accounts.SigningKey)
	cfg.Accounts.Issuer = firstNonEmpty(os.Getenv("ACCOUNTS_ISSUER"), cfg.Accounts.Issuer)
	cfg.Database.Driver = firstNonEmpty(os.Getenv("ACCOUNTS_DB_DRIVER"), cfg.Database.Driver)
	cfg.Database.DSN = firstNonEmpty(os.Getenv("ACCOUNTS_DB_DSN"), os.Getenv("DATABASE_URL"), cfg.Database.DSN)
	cfg.HTTP.Addr = firstNonEmpty(os.Getenv("ACCOUNTS_HTTP_ADDR"), cfg.HTTP.Addr)
	cfg.SeedFile = firstNonEmpty(os.Getenv("ACCOUNTS_SEED_FILE"), cfg.SeedFile)

	if v := os.Getenv("ACCOUNTS_PROTECTED_USERNAMES"); v != "" {
		cfg.Accounts.ProtectedUsernames = splitList(v)
	}
	if v := os.Getenv("ACCOUNTS_TOKEN_EXPIRATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Accounts.TokenExpiration = n
		}
	}
	if v := os.Getenv("ACCOUNTS_DB_DEBUG"); v != "" {
		cfg.Database.Debug, _ = strconv.ParseBool(v)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
