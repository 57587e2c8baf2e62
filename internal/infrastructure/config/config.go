package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of all runtime configuration.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Supplier  SupplierConfig
	Webhook   WebhookConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// SupplierConfig identifies the supplier account the backend acts as.
type SupplierConfig struct {
	Email   string
	APIKey  string
	Tier    string // FREE, PLUS, PRO, ENTERPRISE
	BaseURL string // empty = production API
}

type WebhookConfig struct {
	// Enabled controls registration of the callback with the supplier.
	Enabled bool
	// CallbackURL is the public URL registered with the supplier.
	CallbackURL string
	// DedupTTL is how long delivered message ids are remembered.
	DedupTTL time.Duration
}

type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration

	CatalogSyncInterval    time.Duration
	StockSyncInterval      time.Duration
	ReviewSyncInterval     time.Duration
	ReconciliationInterval time.Duration
}

// Load reads config.toml and the environment and returns a validated
// Config. Environment variables carry the DROPSHIP_ prefix and override
// the file; anything unset falls back to built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("DROPSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Supplier: SupplierConfig{
			Email:   v.GetString("supplier.email"),
			APIKey:  v.GetString("supplier.api_key"),
			Tier:    v.GetString("supplier.tier"),
			BaseURL: v.GetString("supplier.base_url"),
		},
		Webhook: WebhookConfig{
			Enabled:     v.GetBool("webhook.enabled"),
			CallbackURL: v.GetString("webhook.callback_url"),
			DedupTTL:    v.GetDuration("webhook.dedup_ttl"),
		},
		Scheduler: SchedulerConfig{
			Enabled:                v.GetBool("scheduler.enabled"),
			MaxConcurrentJobs:      v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:             v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:          v.GetInt("scheduler.retry_attempts"),
			RetryDelay:             v.GetDuration("scheduler.retry_delay"),
			CatalogSyncInterval:    v.GetDuration("scheduler.catalog_sync_interval"),
			StockSyncInterval:      v.GetDuration("scheduler.stock_sync_interval"),
			ReviewSyncInterval:     v.GetDuration("scheduler.review_sync_interval"),
			ReconciliationInterval: v.GetDuration("scheduler.reconciliation_interval"),
		},
	}
}

func (c *Config) applyDefaults() {
	setString(&c.App.Name, "dropship-backend")
	setString(&c.App.Env, "development")
	setString(&c.App.Port, "8080")

	setString(&c.Database.Host, "localhost")
	setInt(&c.Database.Port, 5432)
	setString(&c.Database.User, "postgres")
	setString(&c.Database.DBName, "dropship")
	setString(&c.Database.SSLMode, "disable")
	setInt(&c.Database.MaxOpenConns, 25)
	setInt(&c.Database.MaxIdleConns, 5)
	setInt(&c.Database.ConnMaxLifetime, 60)
	setInt(&c.Database.ConnMaxIdleTime, 30)

	setString(&c.Redis.Host, "localhost")
	setInt(&c.Redis.Port, 6379)

	setString(&c.Log.Level, "info")
	setString(&c.Log.Format, "console")
	setString(&c.Log.Output, "stdout")

	setDuration(&c.HTTP.ReadTimeout, 15*time.Second)
	setDuration(&c.HTTP.WriteTimeout, 15*time.Second)
	setDuration(&c.HTTP.IdleTimeout, 60*time.Second)
	setInt(&c.HTTP.MaxHeaderBytes, 1<<20)
	if c.HTTP.MaxBodySize == 0 {
		c.HTTP.MaxBodySize = 10 << 20
	}

	setString(&c.Supplier.Tier, "FREE")
	setDuration(&c.Webhook.DedupTTL, 24*time.Hour)

	setInt(&c.Scheduler.MaxConcurrentJobs, 2)
	setDuration(&c.Scheduler.JobTimeout, 30*time.Minute)
	setInt(&c.Scheduler.RetryAttempts, 3)
	setDuration(&c.Scheduler.RetryDelay, time.Minute)
	setDuration(&c.Scheduler.CatalogSyncInterval, 24*time.Hour)
	setDuration(&c.Scheduler.StockSyncInterval, time.Hour)
	setDuration(&c.Scheduler.ReviewSyncInterval, 12*time.Hour)
	setDuration(&c.Scheduler.ReconciliationInterval, 6*time.Hour)
}

func setString(field *string, def string) {
	if *field == "" {
		*field = def
	}
}

func setInt(field *int, def int) {
	if *field == 0 {
		*field = def
	}
}

func setDuration(field *time.Duration, def time.Duration) {
	if *field == 0 {
		*field = def
	}
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Supplier.Tier {
	case "FREE", "PLUS", "PRO", "ENTERPRISE":
	default:
		return fmt.Errorf("supplier.tier must be one of FREE, PLUS, PRO, ENTERPRISE, got %q", c.Supplier.Tier)
	}

	if c.Webhook.Enabled && c.Webhook.CallbackURL == "" {
		return fmt.Errorf("webhook.callback_url is required when webhook.enabled is true")
	}

	if c.App.Env == "production" {
		if c.Supplier.Email == "" || c.Supplier.APIKey == "" {
			return fmt.Errorf("supplier.email and supplier.api_key are required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Webhook.Enabled && !strings.HasPrefix(c.Webhook.CallbackURL, "https://") {
			return fmt.Errorf("webhook.callback_url must use https in production")
		}
	}

	return nil
}

// DSN builds a postgres connection URL. Credentials go through
// url.UserPassword so special characters survive intact.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
