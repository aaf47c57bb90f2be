package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

/*
ENV-ONLY CONFIG. A .env file in the working directory is loaded first when
present; real environment variables win over it.

  Server:
    LISTEN_ADDR (default ":3000")
    MAX_BODY_KB (default 64)
    ALLOWED_ORIGINS="https://a.com,https://b.com" ("*" allows any)
    LOG_LEVEL, LOG_FORMAT (text|json), LOG_FILE (rotated when set)

  Limits:
    RATE_LIMIT_MAX (default 5), RATE_LIMIT_WINDOW (default 1h)
    NAME_MIN_LEN/NAME_MAX_LEN (2/100), MESSAGE_MIN_LEN/MESSAGE_MAX_LEN (10/5000)

  Ledger:
    LEDGER_BACKEND memory|redis, LEDGER_SWEEP_INTERVAL (memory only, default 0 = off)
    REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_TLS

  Mail:
    MAIL_PROVIDER resend|smtp, MAIL_FROM, MAIL_TO (required), MAIL_TIMEOUT
    RESEND_API_KEY, RESEND_BASE_URL
    SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS, SMTP_SSL
*/

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

type Config struct {
	ListenAddr     string   `env:"LISTEN_ADDR" envDefault:":3000"`
	MaxBodyKB      int      `env:"MAX_BODY_KB" envDefault:"64"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	Log    LogConfig
	Limits LimitsConfig
	Ledger LedgerConfig
	Redis  RedisConfig `envPrefix:"REDIS_"`
	Mail   MailConfig
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	File   string `env:"LOG_FILE"`
}

type LimitsConfig struct {
	RateMax    int           `env:"RATE_LIMIT_MAX" envDefault:"5"`
	RateWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
	NameMin    int           `env:"NAME_MIN_LEN" envDefault:"2"`
	NameMax    int           `env:"NAME_MAX_LEN" envDefault:"100"`
	MessageMin int           `env:"MESSAGE_MIN_LEN" envDefault:"10"`
	MessageMax int           `env:"MESSAGE_MAX_LEN" envDefault:"5000"`
}

type LedgerConfig struct {
	Backend       string        `env:"LEDGER_BACKEND" envDefault:"memory"`
	SweepInterval time.Duration `env:"LEDGER_SWEEP_INTERVAL" envDefault:"0"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	TLS      bool   `env:"TLS" envDefault:"false"`
}

type MailConfig struct {
	Provider string        `env:"MAIL_PROVIDER" envDefault:"resend"`
	From     string        `env:"MAIL_FROM" envDefault:"Portfolio Contact <onboarding@resend.dev>"`
	To       string        `env:"MAIL_TO"`
	Timeout  time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`

	Resend ResendConfig
	SMTP   SMTPConfig `envPrefix:"SMTP_"`
}

type ResendConfig struct {
	APIKey  string `env:"RESEND_API_KEY"`
	BaseURL string `env:"RESEND_BASE_URL"`
}

type SMTPConfig struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"587"`
	User string `env:"USER"`
	Pass string `env:"PASS"`
	SSL  bool   `env:"SSL" envDefault:"false"`
}

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.MaxBodyKB <= 0 {
		errs = append(errs, errors.New("MAX_BODY_KB must be positive"))
	}

	l := c.Limits
	if l.RateMax <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be positive"))
	}
	if l.RateWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if l.NameMin < 0 || l.NameMin > l.NameMax {
		errs = append(errs, fmt.Errorf("name length bounds %d..%d are invalid", l.NameMin, l.NameMax))
	}
	if l.MessageMin < 0 || l.MessageMin > l.MessageMax {
		errs = append(errs, fmt.Errorf("message length bounds %d..%d are invalid", l.MessageMin, l.MessageMax))
	}

	switch c.Ledger.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_BACKEND %q", c.Ledger.Backend))
	}

	if c.Mail.To == "" {
		errs = append(errs, errors.New("MAIL_TO is required"))
	}
	if c.Mail.From == "" {
		errs = append(errs, errors.New("MAIL_FROM must not be empty"))
	}
	switch c.Mail.Provider {
	case ProviderResend:
		if c.Mail.Resend.APIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY is required for the resend provider"))
		}
	case ProviderSMTP:
		if c.Mail.SMTP.Host == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider))
	}

	return errors.Join(errs...)
}
