package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jarboard/backend/internal/logger"
)

// Config holds everything main needs to wire the process. Values come from an
// optional YAML file (CONFIG_PATH) with environment variables taking priority.
type Config struct {
	Port            string        `yaml:"port"`
	LogMode         string        `yaml:"log_mode"`
	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`

	Postgres Postgres `yaml:"postgres"`

	RedisAddr    string `yaml:"redis_addr"`
	RedisChannel string `yaml:"redis_channel"`
}

type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.Name)
}

func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		Port:            "8080",
		LogMode:         "development",
		JWTSecretKey:    "defaultsecret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Postgres: Postgres{
			Host: "localhost",
			Port: "5432",
			User: "postgres",
			Name: "jarboard",
		},
		RedisChannel: "jarboard_changes",
	}

	if path := GetEnv("CONFIG_PATH", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = GetEnv("PORT", cfg.Port, log)
	cfg.LogMode = GetEnv("LOG_MODE", cfg.LogMode, log)
	cfg.JWTSecretKey = GetEnv("JWT_SECRET_KEY", cfg.JWTSecretKey, log)
	cfg.AccessTokenTTL = time.Duration(GetEnvAsInt("ACCESS_TOKEN_TTL", int(cfg.AccessTokenTTL/time.Second), log)) * time.Second
	cfg.RefreshTokenTTL = time.Duration(GetEnvAsInt("REFRESH_TOKEN_TTL", int(cfg.RefreshTokenTTL/time.Second), log)) * time.Second
	cfg.Postgres.Host = GetEnv("POSTGRES_HOST", cfg.Postgres.Host, log)
	cfg.Postgres.Port = GetEnv("POSTGRES_PORT", cfg.Postgres.Port, log)
	cfg.Postgres.User = GetEnv("POSTGRES_USER", cfg.Postgres.User, log)
	cfg.Postgres.Password = GetEnv("POSTGRES_PASSWORD", cfg.Postgres.Password, log)
	cfg.Postgres.Name = GetEnv("POSTGRES_NAME", cfg.Postgres.Name, log)
	cfg.RedisAddr = GetEnv("REDIS_ADDR", cfg.RedisAddr, log)
	cfg.RedisChannel = GetEnv("REDIS_CHANNEL", cfg.RedisChannel, log)

	return cfg, nil
}

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "env_var", key, "providedVal", valStr, "error", err)
		}
		return defaultVal
	}
	return i
}
