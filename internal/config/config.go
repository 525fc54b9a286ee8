package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultPath = "./config/local.yaml"

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"prod"`
	ErrorLog    string `yaml:"error_log" env:"ERROR_LOG" env-default:"errors.log"`
	FrontendDir string `yaml:"frontend_dir" env:"FRONTEND_DIR"`
	HTTPServer  `yaml:"http_server"`
	Database    `yaml:"database"`
	Reporting   `yaml:"reporting"`
	Alerts      `yaml:"alerts"`
	SMTP        `yaml:"smtp"`
	Cache       `yaml:"cache"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout        time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"5s"`
	ExportTimeout  time.Duration `yaml:"export_timeout" env:"HTTP_EXPORT_TIMEOUT" env-default:"30s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

type Database struct {
	User            string        `yaml:"user" env:"DB_USER" env-required:"true"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"3306"`
	Name            string        `yaml:"name" env:"DB_NAME" env-required:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	SlowQuery       time.Duration `yaml:"slow_query" env:"DB_SLOW_QUERY" env-default:"2s"`
	OrderPrefix     string        `yaml:"order_prefix" env:"DB_ORDER_PREFIX" env-default:"F"`
}

type Reporting struct {
	Location            string `yaml:"location" env:"REPORT_LOCATION" env-default:"Local"`
	NearTermWindowDays  int    `yaml:"near_term_window_days" env:"REPORT_NEAR_TERM_WINDOW_DAYS" env-default:"5"`
	ChargePeriodDays    int    `yaml:"charge_period_days" env:"REPORT_CHARGE_PERIOD_DAYS" env-default:"5"`
	HistoryLookbackDays int    `yaml:"history_lookback_days" env:"REPORT_HISTORY_LOOKBACK_DAYS" env-default:"365"`
	TopN                int    `yaml:"top_n" env:"REPORT_TOP_N" env-default:"10"`
}

type Alerts struct {
	Enabled          bool          `yaml:"enabled" env:"ALERTS_ENABLED" env-default:"false"`
	Interval         time.Duration `yaml:"interval" env:"ALERTS_INTERVAL" env-default:"12h"`
	RunWindow        time.Duration `yaml:"run_window" env:"ALERTS_RUN_WINDOW" env-default:"24h"`
	Retention        time.Duration `yaml:"retention" env:"ALERTS_RETENTION" env-default:"168h"`
	UrgentWindowDays int           `yaml:"urgent_window_days" env:"ALERTS_URGENT_WINDOW_DAYS" env-default:"2"`
	UrgentProgress   float64       `yaml:"urgent_progress" env:"ALERTS_URGENT_PROGRESS" env-default:"0.7"`
	Completions      bool          `yaml:"completions" env:"ALERTS_COMPLETIONS" env-default:"false"`
	DailySummary     bool          `yaml:"daily_summary" env:"ALERTS_DAILY_SUMMARY" env-default:"false"`
	Recipients       []string      `yaml:"recipients" env:"ALERTS_RECIPIENTS" env-separator:","`
}

type SMTP struct {
	Host     string        `yaml:"host" env:"SMTP_HOST"`
	Port     int           `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string        `yaml:"user" env:"SMTP_USER"`
	Password string        `yaml:"password" env:"SMTP_PASSWORD"`
	From     string        `yaml:"from" env:"SMTP_FROM"`
	Timeout  time.Duration `yaml:"timeout" env:"SMTP_TIMEOUT" env-default:"15s"`
}

type Cache struct {
	Driver   string        `yaml:"driver" env:"CACHE_DRIVER" env-default:"noop"`
	Addr     string        `yaml:"addr" env:"CACHE_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"CACHE_PASSWORD"`
	DB       int           `yaml:"db" env:"CACHE_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"10m"`
}

// Load reads .env, then the yaml file when it exists, then environment overrides.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: load .env: %w", op, err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultPath
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", op, path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: read env: %w", op, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Alerts.Enabled && c.Alerts.Interval <= 0:
		return errors.New("alerts.interval must be positive")
	case c.Alerts.RunWindow <= 0:
		return errors.New("alerts.run_window must be positive")
	case c.Reporting.NearTermWindowDays < 0:
		return errors.New("reporting.near_term_window_days must not be negative")
	case c.Reporting.ChargePeriodDays <= 0:
		return errors.New("reporting.charge_period_days must be positive")
	case c.Cache.Driver != "noop" && c.Cache.Driver != "redis":
		return fmt.Errorf("cache.driver %q is not supported", c.Cache.Driver)
	}

	if _, err := c.Reporting.TimeLocation(); err != nil {
		return err
	}

	return nil
}

func (r Reporting) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Location)
	if err != nil {
		return nil, fmt.Errorf("reporting.location: %w", err)
	}
	return loc, nil
}

// MailEnabled is true when an SMTP relay and at least one recipient are set.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != "" && len(c.Alerts.Recipients) > 0
}
