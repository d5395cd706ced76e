// Package config loads the service configuration from config.env, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"donation-form/internal/render"
	"donation-form/internal/session"
	"donation-form/internal/validation"
)

type Config struct {
	ServerAddr  string        `mapstructure:"SERVER_ADDR"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	SessionTTL  time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr   string        `mapstructure:"REDIS_ADDR"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	LogFormat   string        `mapstructure:"LOG_FORMAT"`
	CORSOrigins []string      `mapstructure:"CORS_ORIGINS"`

	MinAmount         string   `mapstructure:"DONATION_MIN_AMOUNT"`
	MaxAmount         string   `mapstructure:"DONATION_MAX_AMOUNT"`
	Presets           []string `mapstructure:"DONATION_PRESETS"`
	SuspiciousDomains []string `mapstructure:"SUSPICIOUS_DOMAINS"`

	SubmitCooldown  time.Duration `mapstructure:"SUBMIT_COOLDOWN"`
	SubmitDelay     time.Duration `mapstructure:"SUBMIT_DELAY"`
	ErrorFade       time.Duration `mapstructure:"ERROR_FADE"`
	FormMessageTTL  time.Duration `mapstructure:"FORM_MESSAGE_TTL"`
	NotificationTTL time.Duration `mapstructure:"NOTIFICATION_TTL"`
	AnnounceDelay   time.Duration `mapstructure:"ANNOUNCE_DELAY"`

	BankName        string `mapstructure:"BANK_NAME"`
	BankAccountType string `mapstructure:"BANK_ACCOUNT_TYPE"`
	BankCNPJ        string `mapstructure:"BANK_CNPJ"`
	PixKey          string `mapstructure:"PIX_KEY"`
	PixPanelNote    string `mapstructure:"PIX_PANEL_NOTE"`
}

// SetDefaults registers every key, which also lets AutomaticEnv see them
// during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("CORS_ORIGINS", []string{"*"})

	v.SetDefault("DONATION_MIN_AMOUNT", validation.DefaultMinAmount)
	v.SetDefault("DONATION_MAX_AMOUNT", validation.DefaultMaxAmount)
	v.SetDefault("DONATION_PRESETS", validation.DefaultPresets)
	v.SetDefault("SUSPICIOUS_DOMAINS", validation.DefaultSuspiciousDomains)

	v.SetDefault("SUBMIT_COOLDOWN", "3s")
	v.SetDefault("SUBMIT_DELAY", "2s")
	v.SetDefault("ERROR_FADE", "300ms")
	v.SetDefault("FORM_MESSAGE_TTL", "5s")
	v.SetDefault("NOTIFICATION_TTL", "4s")
	v.SetDefault("ANNOUNCE_DELAY", "1s")

	v.SetDefault("BANK_NAME", "Banco do Brasil")
	v.SetDefault("BANK_ACCOUNT_TYPE", "Conta Corrente")
	v.SetDefault("BANK_CNPJ", "XX.XXX.XXX/0001-XX")
	v.SetDefault("PIX_KEY", "")
	v.SetDefault("PIX_PANEL_NOTE", "")
}

// Load reads path, or config.env from the working directory when path is
// empty. A missing config.env is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("cannot read config: %w", err)
		}
		log.Debug().Msg("No config.env found, using environment only")
	}

	return Decode(v)
}

func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if _, err := c.Rules(); err != nil {
		return err
	}
	return nil
}

// Rules builds the donation rules the form enforces.
func (c Config) Rules() (*validation.Rules, error) {
	return validation.NewRules(c.MinAmount, c.MaxAmount, c.Presets, c.SuspiciousDomains)
}

func (c Config) SessionOptions() session.Options {
	return session.Options{
		SubmitDelay:   c.SubmitDelay,
		ErrorFade:     c.ErrorFade,
		MessageTTL:    c.FormMessageTTL,
		AnnounceDelay: c.AnnounceDelay,
	}
}

func (c Config) Panels() render.PanelContent {
	return render.PanelContent{
		BankName:    c.BankName,
		AccountType: c.BankAccountType,
		CNPJ:        c.BankCNPJ,
		PixKey:      c.PixKey,
		PixNote:     c.PixPanelNote,
	}
}

// Watch calls onChange with the new configuration whenever the config file
// changes. Invalid edits are logged and ignored.
func Watch(v *viper.Viper, onChange func(Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Decode(v)
		if err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("Ignoring invalid config change")
			return
		}
		log.Info().Str("file", e.Name).Msg("Config reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
}
