package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Token
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"720h"`

	// Password
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Rate Limit（リクエスト/分）
	RateLimitGeneral int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`
	RateLimitWrite   int `env:"RATE_LIMIT_WRITE" envDefault:"30"`

	// Feed
	PublicFeedLimit int `env:"PUBLIC_FEED_LIMIT" envDefault:"15"`

	// Worker
	RepairInterval time.Duration `env:"REPAIR_INTERVAL" envDefault:"1h"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、または値が範囲外の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL must be positive: %s", c.JWTTTL))
	}
	// bcryptの許容範囲は4〜31
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31: %d", c.BcryptCost))
	}
	if c.RateLimitGeneral <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_GENERAL must be positive: %d", c.RateLimitGeneral))
	}
	if c.RateLimitWrite <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WRITE must be positive: %d", c.RateLimitWrite))
	}
	if c.PublicFeedLimit <= 0 {
		errs = append(errs, fmt.Errorf("PUBLIC_FEED_LIMIT must be positive: %d", c.PublicFeedLimit))
	}
	if c.RepairInterval <= 0 {
		errs = append(errs, fmt.Errorf("REPAIR_INTERVAL must be positive: %s", c.RepairInterval))
	}
	return errors.Join(errs...)
}
