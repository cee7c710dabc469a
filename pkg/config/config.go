package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Mail           MailConfig           `mapstructure:"mail"`
	Report         ReportConfig         `mapstructure:"report"`
	Region         RegionConfig         `mapstructure:"region"`
	Security       SecurityConfig       `mapstructure:"security"`
	Lock           LockConfig           `mapstructure:"lock"`
	Events         EventsConfig         `mapstructure:"events"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig describes the order database. Either URL or the individual
// parts (the legacy USER_NAME/SERVER_NAME/DB_NAME/DB_PASS variables) are used.
// Driver defaults to sqlserver when SERVER_NAME is set and to postgres otherwise.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Server          string        `mapstructure:"server"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	switch d.Driver {
	case "sqlserver":
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(d.User, d.Password),
			Host:     d.Server,
			RawQuery: url.Values{"database": {d.Name}}.Encode(),
		}
		return u.String()
	default:
		u := &url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     d.Server,
			Path:     "/" + d.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	}
}

type RedisConfig struct {
	URL         string        `mapstructure:"url"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type LoggingConfig struct {
	Level  string   `mapstructure:"level"`
	Format string   `mapstructure:"format"`
	Output []string `mapstructure:"output"`
}

type MailConfig struct {
	Provider       string   `mapstructure:"provider"`
	From           string   `mapstructure:"from"`
	FromName       string   `mapstructure:"from_name"`
	SendGridAPIKey string   `mapstructure:"sendgrid_api_key"`
	SMTPHost       string   `mapstructure:"smtp_host"`
	SMTPPort       int      `mapstructure:"smtp_port"`
	SMTPUsername   string   `mapstructure:"smtp_username"`
	SMTPPassword   string   `mapstructure:"smtp_password"`
	SMTPSecurity   string   `mapstructure:"smtp_security"`
	Admins         []string `mapstructure:"admins"`
	Support        []string `mapstructure:"support"`
}

type ReportConfig struct {
	OutputDir       string        `mapstructure:"output_dir"`
	WindowDays      int           `mapstructure:"window_days"`
	Schedule        string        `mapstructure:"schedule"`
	ScheduleEnabled bool          `mapstructure:"schedule_enabled"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type RegionConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone, falling back to local time.
func (r RegionConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

type SecurityConfig struct {
	Passcode     string `mapstructure:"passcode"`
	PasscodeHash string `mapstructure:"passcode_hash"`
}

type LockConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type EventsConfig struct {
	Provider string `mapstructure:"provider"`
	URL      string `mapstructure:"url"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Path    string `mapstructure:"path"`
}

type OpenTelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// Validate checks the settings the report pipeline cannot run without.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlserver":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlserver, got %q", c.Database.Driver))
	}
	if c.Database.URL == "" && c.Database.Server == "" {
		errs = append(errs, errors.New("database.url or database.server is required"))
	}

	switch c.Mail.Provider {
	case "smtp":
		if c.Mail.SMTPHost == "" {
			errs = append(errs, errors.New("mail.smtp_host is required for the smtp provider"))
		}
		switch c.Mail.SMTPSecurity {
		case "none", "starttls", "tls":
		default:
			errs = append(errs, fmt.Errorf("mail.smtp_security must be none, starttls or tls, got %q", c.Mail.SMTPSecurity))
		}
	case "sendgrid":
		if c.Mail.SendGridAPIKey == "" {
			errs = append(errs, errors.New("mail.sendgrid_api_key is required for the sendgrid provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mail.provider %q", c.Mail.Provider))
	}
	if c.Mail.From == "" {
		errs = append(errs, errors.New("mail.from is required"))
	}
	if len(c.Mail.Admins) == 0 {
		errs = append(errs, errors.New("mail.admins needs at least one recipient"))
	}
	if len(c.Mail.Support) == 0 {
		errs = append(errs, errors.New("mail.support needs at least one recipient"))
	}

	if c.Report.WindowDays < 0 {
		errs = append(errs, fmt.Errorf("report.window_days must not be negative, got %d", c.Report.WindowDays))
	}
	if _, err := c.Region.Location(); err != nil {
		errs = append(errs, err)
	}

	switch c.Events.Provider {
	case "", "nats", "rabbitmq":
	default:
		errs = append(errs, fmt.Errorf("unknown events.provider %q", c.Events.Provider))
	}

	return errors.Join(errs...)
}

// splitList flattens comma separated entries, trimming blanks.
func splitList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
