package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Tipos de store de sesión soportados
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config contiene toda la configuración del bot
type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Gemini
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Números autorizados separados por coma
	AuthorizedNumbers string `mapstructure:"AUTHORIZED_NUMBERS"`

	// Webhooks de Make
	MakeAddToCalendar   string `mapstructure:"MAKE_ADD_TO_CALENDAR"`
	MakeWebhookURL      string `mapstructure:"MAKE_WEBHOOK_URL"`
	MakeGetFromCalendar string `mapstructure:"MAKE_GET_FROM_CALENDAR"`
	WebhookTimeoutSecs  int    `mapstructure:"WEBHOOK_TIMEOUT_SECONDS"`

	WelcomeMediaURL string `mapstructure:"WELCOME_MEDIA_URL"`

	// Sesiones
	SessionStore   string `mapstructure:"SESSION_STORE"`
	SessionDBPath  string `mapstructure:"SESSION_DB_PATH"`
	WhatsAppDBPath string `mapstructure:"WHATSAPP_DB_PATH"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`

	// Servidor admin
	AdminAddr       string `mapstructure:"ADMIN_ADDR"`
	AdminRatePerMin int    `mapstructure:"ADMIN_RATE_PER_MIN"`
}

var defaults = map[string]any{
	"ENV":                     "development",
	"LOG_LEVEL":               "info",
	"GEMINI_API_KEY":          "",
	"GEMINI_MODEL":            "gemini-1.5-flash",
	"AUTHORIZED_NUMBERS":      "",
	"MAKE_ADD_TO_CALENDAR":    "",
	"MAKE_WEBHOOK_URL":        "",
	"MAKE_GET_FROM_CALENDAR":  "",
	"WEBHOOK_TIMEOUT_SECONDS": 15,
	"WELCOME_MEDIA_URL":       "",
	"SESSION_STORE":           StoreSQLite,
	"SESSION_DB_PATH":         "file:sessions.db?_foreign_keys=on",
	"WHATSAPP_DB_PATH":        "file:whatsapp.db?_foreign_keys=on",
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"ADMIN_ADDR":              ":3000",
	"ADMIN_RATE_PER_MIN":      120,
}

// Load lee .env (si existe), config.yaml (si existe) y variables de entorno
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error leyendo .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error leyendo config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error cargando configuración: %w", err)
	}
	return &cfg, nil
}

// Validate verifica lo que necesita el bot para arrancar
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return errors.New("GEMINI_API_KEY no configurada")
	}
	switch c.SessionStore {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE desconocido: %q", c.SessionStore)
	}
	return nil
}

// IsProduction indica si corremos en producción
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowList devuelve los números autorizados ya separados
func (c *Config) AllowList() []string {
	var numbers []string
	for _, n := range strings.Split(c.AuthorizedNumbers, ",") {
		if n = strings.TrimSpace(n); n != "" {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// BookingWebhook devuelve el webhook de alta de turnos
func (c *Config) BookingWebhook() string {
	if c.MakeAddToCalendar != "" {
		return c.MakeAddToCalendar
	}
	return c.MakeWebhookURL
}
