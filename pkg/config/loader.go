package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads config.yaml (when present) and the environment into a Config.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadFile reads the given config file instead of searching for config.yaml.
// An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	return load(viper.New(), path)
}

// LoadWith loads configuration through the given viper instance.
func LoadWith(v *viper.Viper) (*Config, error) {
	return load(v, "")
}

func load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/app/configs")
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Variable names used by the existing deployment
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("database.user", "USER_NAME", "APP_DATABASE_USER")
	v.BindEnv("database.server", "SERVER_NAME", "APP_DATABASE_SERVER")
	v.BindEnv("database.name", "DB_NAME", "APP_DATABASE_NAME")
	v.BindEnv("database.password", "DB_PASS", "APP_DATABASE_PASSWORD")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("mail.from", "EMAIL", "APP_MAIL_FROM")
	v.BindEnv("mail.smtp_username", "EMAIL", "APP_MAIL_SMTP_USERNAME")
	v.BindEnv("mail.smtp_password", "MAIL_PASS", "APP_MAIL_SMTP_PASSWORD")
	v.BindEnv("mail.sendgrid_api_key", "SENDGRID_API_KEY", "APP_MAIL_SENDGRID_API_KEY")
	v.BindEnv("mail.admins", "ADMINS", "APP_MAIL_ADMINS")
	v.BindEnv("mail.support", "SUPPORT", "APP_MAIL_SUPPORT")
	v.BindEnv("security.passcode", "PASSCODE", "APP_SECURITY_PASSCODE")
	v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaultDriver(cfg.Database)
	}
	cfg.Mail.Admins = splitList(cfg.Mail.Admins)
	cfg.Mail.Support = splitList(cfg.Mail.Support)
	cfg.Logging.Output = splitList(cfg.Logging.Output)

	return &cfg, nil
}

// defaultDriver picks sqlserver when the host comes from the legacy
// SERVER_NAME variable, which only the SQL Server deployment sets.
func defaultDriver(d DatabaseConfig) string {
	if _, legacy := os.LookupEnv("SERVER_NAME"); legacy && d.URL == "" {
		return "sqlserver"
	}
	return "postgres"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "driver-completion")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 7007)
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 5*time.Minute)
	v.SetDefault("http.idle_timeout", 2*time.Minute)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.query_timeout", 30*time.Second)

	v.SetDefault("redis.dial_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", []string{"stdout"})

	v.SetDefault("mail.provider", "smtp")
	v.SetDefault("mail.from_name", "Driver Completion Report")
	v.SetDefault("mail.smtp_host", "smtp.office365.com")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.smtp_security", "starttls")

	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.window_days", 0)
	v.SetDefault("report.schedule", "59 8 * * *")
	v.SetDefault("report.schedule_enabled", true)
	v.SetDefault("report.timeout", 10*time.Minute)

	v.SetDefault("lock.enabled", false)
	v.SetDefault("lock.ttl", 30*time.Minute)

	v.SetDefault("vault.path", "secret/data/driver-completion")

	v.SetDefault("opentelemetry.enabled", false)
	v.SetDefault("opentelemetry.service_name", "driver-completion")
	v.SetDefault("opentelemetry.jaeger_endpoint", "http://jaeger:14268/api/traces")

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", time.Hour)
	v.SetDefault("circuit_breaker.timeout", 5*time.Minute)
	v.SetDefault("circuit_breaker.failure_threshold", 3)
}
