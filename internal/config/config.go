package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	AdminToken      string
	PublicURL       string
	LogLevel        string
	LogPretty       bool
	DeadlineGrace   time.Duration
	MaxMessageBytes int64
	EventsPerSecond float64
	EventBurst      int
	SendBuffer      int
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		DeadlineGrace:   50 * time.Millisecond,
		MaxMessageBytes: 16 * 1024,
		EventsPerSecond: 20,
		EventBurst:      40,
		SendBuffer:      64,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if c.DeadlineGrace < 0 {
		return fmt.Errorf("deadline-grace must not be negative: %s", c.DeadlineGrace)
	}
	if c.MaxMessageBytes < 512 {
		return fmt.Errorf("max-message-bytes must be at least 512: %d", c.MaxMessageBytes)
	}
	if c.EventsPerSecond <= 0 || c.EventBurst <= 0 {
		return errors.New("events-per-second and event-burst must be positive")
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send-buffer must be positive: %d", c.SendBuffer)
	}
	return nil
}

// AdminEnabled reports whether the admin API is reachable.
func (c Config) AdminEnabled() bool {
	return strings.TrimSpace(c.AdminToken) != ""
}

// AddFlags registers every setting on fs, defaulting to the values already in
// cfg. Each flag also reads the upper-cased environment variable with dashes
// replaced by underscores, e.g. --database-url and DATABASE_URL.
func AddFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "address to listen on (env: ADDR)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "postgres connection string; empty keeps the catalog in memory (env: DATABASE_URL)")
	fs.StringVar(&cfg.AdminToken, "admin-token", cfg.AdminToken, "shared secret for the admin API; empty disables it (env: ADMIN_TOKEN)")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "external base URL used in join links (env: PUBLIC_URL)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error (env: LOG_LEVEL)")
	fs.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "human readable console logs (env: LOG_PRETTY)")
	fs.DurationVar(&cfg.DeadlineGrace, "deadline-grace", cfg.DeadlineGrace, "delay after a question deadline before it auto-finishes (env: DEADLINE_GRACE)")
	fs.Int64Var(&cfg.MaxMessageBytes, "max-message-bytes", cfg.MaxMessageBytes, "largest accepted websocket frame (env: MAX_MESSAGE_BYTES)")
	fs.Float64Var(&cfg.EventsPerSecond, "events-per-second", cfg.EventsPerSecond, "sustained inbound events per connection (env: EVENTS_PER_SECOND)")
	fs.IntVar(&cfg.EventBurst, "event-burst", cfg.EventBurst, "inbound event burst per connection (env: EVENT_BURST)")
	fs.IntVar(&cfg.SendBuffer, "send-buffer", cfg.SendBuffer, "queued outbound frames before a slow connection is dropped (env: SEND_BUFFER)")
}

// ApplyEnv fills every flag not set on the command line from the
// environment.
func ApplyEnv(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}

// Load returns the defaults overlaid with environment variables.
func Load() (Config, error) {
	cfg := Default()
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	AddFlags(fs, &cfg)
	if err := ApplyEnv(fs); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}
