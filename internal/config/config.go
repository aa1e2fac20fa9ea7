package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Logger   LoggerConfig   `yaml:"logger"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Instance InstanceConfig `yaml:"instance"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`

	// ConnectTimeout bounds a single connection attempt or ping.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// QueryTimeout bounds every data-access call.
	QueryTimeout time.Duration `yaml:"query_timeout"`
	// RetryInitialInterval and RetryMaxInterval shape the reconnect backoff.
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `yaml:"retry_max_interval"`
	// HealthCheckInterval is how often a connected pool is pinged.
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type TracingConfig struct {
	// Endpoint is the OTLP gRPC collector address; tracing export is off when empty.
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// InstanceConfig is static identity reported by the /arch endpoint.
type InstanceConfig struct {
	Role     string `yaml:"role"`
	NodeName string `yaml:"node_name"`
	PodName  string `yaml:"pod_name"`
}

func Default() *AppConfig {
	return &AppConfig{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:                 "localhost",
			Port:                 5432,
			Name:                 "shopdb",
			User:                 "shop",
			SSLMode:              "disable",
			MaxConns:             10,
			ConnectTimeout:       5 * time.Second,
			QueryTimeout:         5 * time.Second,
			RetryInitialInterval: 500 * time.Millisecond,
			RetryMaxInterval:     30 * time.Second,
			HealthCheckInterval:  10 * time.Second,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Filename: "ecart.log",
		},
		Tracing: TracingConfig{
			ServiceName: "ecart",
		},
		Instance: InstanceConfig{
			Role:     "E-Cart Application Server",
			NodeName: "unknown",
			PodName:  "unknown",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and finally the process environment.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("os.ReadFile: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("cfg.applyEnv: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cfg.Validate: %w", err)
	}

	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *AppConfig) applyEnv(lookup lookupFunc) error {
	var errs []error

	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
			}
		}
	}
	integer := func(dst *int, key string) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := cast.ToIntE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := cast.ToDurationE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(dst *bool, key string) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := cast.ToBoolE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str(&c.HTTP.Addr, "HTTP_ADDR")
	if port, ok := lookup("PORT"); ok && port != "" {
		c.HTTP.Addr = ":" + port
	}
	duration(&c.HTTP.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT")

	str(&c.Database.Host, "DB_HOST")
	integer(&c.Database.Port, "DB_PORT")
	str(&c.Database.Name, "DB_NAME")
	str(&c.Database.User, "DB_USER")
	str(&c.Database.Password, "DB_PASSWORD")
	str(&c.Database.SSLMode, "DB_SSLMODE")
	maxConns := int(c.Database.MaxConns)
	integer(&maxConns, "DB_MAX_CONNS")
	if maxConns < 0 || maxConns > math.MaxInt32 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS: %d is out of range", maxConns))
	} else {
		c.Database.MaxConns = int32(maxConns)
	}
	duration(&c.Database.ConnectTimeout, "DB_CONNECT_TIMEOUT")
	duration(&c.Database.QueryTimeout, "DB_QUERY_TIMEOUT")
	duration(&c.Database.RetryInitialInterval, "DB_RETRY_INITIAL_INTERVAL")
	duration(&c.Database.RetryMaxInterval, "DB_RETRY_MAX_INTERVAL")
	duration(&c.Database.HealthCheckInterval, "DB_HEALTH_CHECK_INTERVAL")

	str(&c.Logger.Level, "LOG_LEVEL")
	if name, ok := lookup("LOG_FILE"); ok && name != "" {
		c.Logger.FileEnable = true
		c.Logger.Filename = name
	}
	boolean(&c.Logger.FileEnable, "LOG_FILE_ENABLE")

	str(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	str(&c.Tracing.ServiceName, "OTEL_SERVICE_NAME")

	str(&c.Instance.Role, "INSTANCE_ROLE")
	str(&c.Instance.NodeName, "NODE_NAME")
	str(&c.Instance.PodName, "POD_NAME")

	return errors.Join(errs...)
}

func (c *AppConfig) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is empty"))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is empty"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Errorf("database.port %d is out of range", c.Database.Port))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is empty"))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, fmt.Errorf("database.max_conns %d must be positive", c.Database.MaxConns))
	}
	for name, d := range map[string]time.Duration{
		"database.connect_timeout":        c.Database.ConnectTimeout,
		"database.query_timeout":          c.Database.QueryTimeout,
		"database.retry_initial_interval": c.Database.RetryInitialInterval,
		"database.retry_max_interval":     c.Database.RetryMaxInterval,
		"database.health_check_interval":  c.Database.HealthCheckInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Database.RetryMaxInterval < c.Database.RetryInitialInterval {
		errs = append(errs, errors.New("database.retry_max_interval is below retry_initial_interval"))
	}
	if c.Logger.FileEnable && c.Logger.Filename == "" {
		errs = append(errs, errors.New("logger.filename is empty"))
	}

	return errors.Join(errs...)
}

// DSN renders the connection string in URL form.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}

	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Address is host:port of the database server.
func (d DatabaseConfig) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}
