package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"healthinsure/internal/pkg/validator"
)

const (
	DispatchMemory = "memory"
	DispatchOutbox = "outbox"
	DispatchRedis  = "redis"

	defaultJWTSecret = "change-me-jwt-secret"
)

type Config struct {
	AppEnv             string             `mapstructure:"app_env" validate:"required"`
	HTTPAddr           string             `mapstructure:"http_addr" validate:"required"`
	DatabaseURL        string             `mapstructure:"database_url" validate:"required"`
	JWTSecret          string             `mapstructure:"jwt_secret" validate:"required,min=8"`
	JWTTTL             time.Duration      `mapstructure:"jwt_ttl" validate:"gt=0"`
	LogLevel           string             `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	CORSAllowedOrigins []string           `mapstructure:"cors_allowed_origins"`
	Dispatch           DispatchConfig     `mapstructure:"dispatch"`
	Policy             PolicyConfig       `mapstructure:"policy"`
	Notification       NotificationConfig `mapstructure:"notification"`
}

type DispatchConfig struct {
	Mode         string        `mapstructure:"mode" validate:"oneof=memory outbox redis"`
	RedisAddr    string        `mapstructure:"redis_addr" validate:"required_if=Mode redis"`
	RedisKey     string        `mapstructure:"redis_key" validate:"required"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	BatchSize    int           `mapstructure:"batch_size" validate:"min=1,max=1000"`
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"min=1"`
}

type PolicyConfig struct {
	ExpiryInterval time.Duration `mapstructure:"expiry_interval" validate:"gt=0"`
}

type NotificationConfig struct {
	RetentionDays int `mapstructure:"retention_days" validate:"min=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database_url", "healthinsure.db")
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allowed_origins", []string{})

	v.SetDefault("dispatch.mode", DispatchMemory)
	v.SetDefault("dispatch.redis_addr", "")
	v.SetDefault("dispatch.redis_key", "healthinsure:notifications")
	v.SetDefault("dispatch.poll_interval", "1s")
	v.SetDefault("dispatch.batch_size", 50)
	v.SetDefault("dispatch.max_attempts", 5)

	v.SetDefault("policy.expiry_interval", "1h")
	v.SetDefault("notification.retention_days", 90)
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the environment.
// Keys map to env vars by upper-casing and replacing "." with "_", e.g. DISPATCH_MODE.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return Parse(v)
}

// Parse decodes and validates a populated viper instance.
func Parse(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.Dispatch.Mode = strings.ToLower(strings.TrimSpace(cfg.Dispatch.Mode))
	cfg.CORSAllowedOrigins = splitOrigins(cfg.CORSAllowedOrigins)

	if err := validator.Error(&cfg); err != nil {
		return nil, err
	}
	if cfg.IsProdLike() && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return &cfg, nil
}

func (c *Config) IsProdLike() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production" || c.AppEnv == "release"
}

// splitOrigins flattens comma-separated entries and drops blanks.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
