package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
		AppURL             string   `mapstructure:"app_url"`
		PublicURL          string   `mapstructure:"public_url"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	// Bootstrap admin, created at startup when the admins table is empty
	Admin struct {
		Username string `mapstructure:"username"`
		Email    string `mapstructure:"email"`
		Password string `mapstructure:"password"`
	} `mapstructure:"admin"`

	Email struct {
		Provider     string `mapstructure:"provider"` // resend or mock
		ResendAPIKey string `mapstructure:"resend_api_key"`
		APIURL       string `mapstructure:"api_url"`
		FromEmail    string `mapstructure:"from_email"`
		FromName     string `mapstructure:"from_name"`
	} `mapstructure:"email"`

	Outbox struct {
		Schedule         string        `mapstructure:"schedule"`
		CampaignSchedule string        `mapstructure:"campaign_schedule"`
		SweepSchedule    string        `mapstructure:"sweep_schedule"`
		BatchSize        int           `mapstructure:"batch_size"`
		MaxAttempts      int           `mapstructure:"max_attempts"`
		BaseBackoff      time.Duration `mapstructure:"base_backoff"`
		MaxBackoff       time.Duration `mapstructure:"max_backoff"`
	} `mapstructure:"outbox"`

	Storage struct {
		Driver    string `mapstructure:"driver"` // s3 or local
		LocalPath string `mapstructure:"local_path"`
		Bucket    string `mapstructure:"bucket"`
		Region    string `mapstructure:"region"`
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		PathStyle bool   `mapstructure:"path_style"`
	} `mapstructure:"storage"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Razorpay struct {
		KeyID         string `mapstructure:"key_id"`
		KeySecret     string `mapstructure:"key_secret"`
		WebhookSecret string `mapstructure:"webhook_secret"`
		Currency      string `mapstructure:"currency"`
	} `mapstructure:"razorpay"`

	Log struct {
		Level     string `mapstructure:"level"`
		Directory string `mapstructure:"directory"`
		Console   bool   `mapstructure:"console"`
	} `mapstructure:"log"`

	RateLimit struct {
		LoginAttempts int           `mapstructure:"login_attempts"`
		Window        time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`
}

// Load reads configs/config.yaml (optional), .env and the environment.
// A configuration error is fatal.
func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	cfg, err := LoadFrom("configs/config.yaml")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	return cfg
}

// LoadFrom builds a Config from the given yaml file, defaults and
// environment overrides. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	// Auto bind environment variables
	v.AutomaticEnv()
	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found at %s, using defaults", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("server.app_url", "http://localhost:8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "eukexpress")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "eukexpress-backend")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "admin@eukexpress.com")

	v.SetDefault("email.provider", "mock")
	v.SetDefault("email.api_url", "https://api.resend.com")
	v.SetDefault("email.from_email", "noreply@eukexpress.com")
	v.SetDefault("email.from_name", "EukExpress")

	v.SetDefault("outbox.schedule", "@every 10s")
	v.SetDefault("outbox.campaign_schedule", "@every 30s")
	v.SetDefault("outbox.sweep_schedule", "@every 5m")
	v.SetDefault("outbox.batch_size", 20)
	v.SetDefault("outbox.max_attempts", 5)
	v.SetDefault("outbox.base_backoff", "30s")
	v.SetDefault("outbox.max_backoff", "30m")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("storage.region", "auto")

	v.SetDefault("razorpay.currency", "INR")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.directory", "logs")
	v.SetDefault("log.console", true)

	v.SetDefault("rate_limit.login_attempts", 5)
	v.SetDefault("rate_limit.window", "15m")
}

func applyEnv(cfg *Config) {
	// Override database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if url := os.Getenv("APP_URL"); url != "" {
		cfg.Server.AppURL = url
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}

	if key := os.Getenv("RESEND_API_KEY"); key != "" {
		cfg.Email.ResendAPIKey = key
		if cfg.Email.Provider == "mock" {
			cfg.Email.Provider = "resend"
		}
	}
	if from := os.Getenv("FROM_EMAIL"); from != "" {
		cfg.Email.FromEmail = from
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if pass := os.Getenv("ADMIN_PASSWORD"); pass != "" {
		cfg.Admin.Password = pass
	}

	// Load Razorpay config from environment variables
	if keyID := os.Getenv("RAZORPAY_KEY_ID"); keyID != "" {
		cfg.Razorpay.KeyID = keyID
	}
	if keySecret := os.Getenv("RAZORPAY_KEY_SECRET"); keySecret != "" {
		cfg.Razorpay.KeySecret = keySecret
	}
	if webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET"); webhookSecret != "" {
		cfg.Razorpay.WebhookSecret = webhookSecret
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.Email.Provider {
	case "mock":
	case "resend":
		if c.Email.ResendAPIKey == "" {
			return fmt.Errorf("email provider resend needs RESEND_API_KEY")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage driver s3 needs a bucket")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Outbox.MaxAttempts < 1 {
		return fmt.Errorf("outbox.max_attempts must be at least 1")
	}
	return nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// TrackingURL is the public page for a tracking number.
func (c *Config) TrackingURL(tracking string) string {
	return fmt.Sprintf("%s/track?number=%s", c.Server.AppURL, tracking)
}
