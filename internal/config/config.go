package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Backend services
	AnswersURL string `env:"ANSWERS_API_URL,required"`
	BibleURL   string `env:"BIBLE_API_URL,required"`
	VectorURL  string `env:"VECTOR_API_URL"`
	ExplainURL string `env:"EXPLAIN_API_URL"`
	GatewayURL string `env:"BIBLE_GATEWAY_URL" envDefault:"https://www.biblegateway.com"`

	// AI providers (names used for analytics cost attribution)
	PrimaryProvider  string `env:"PRIMARY_PROVIDER" envDefault:"openai"`
	FallbackProvider string `env:"FALLBACK_PROVIDER" envDefault:"deepseek"`

	// Bible defaults
	DefaultTranslation string `env:"DEFAULT_TRANSLATION" envDefault:"web"`

	// Admin
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Development mode: include error details in user-facing failures
	Dev bool `env:"DEV_MODE" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
