package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/trainmining/delaystats/delaystats"
)

// ErrInvalidConfig is joined with every configuration value that cannot be parsed or fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment keys.
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvPort           = "PORT"
	EnvDBHost         = "DBHOST"
	EnvDBUser         = "DBUSER"
	EnvDBPass         = "DBPASS"
	EnvDBName         = "DBNAME"
	EnvDBPort         = "DB_PORT"
	EnvDBSSLMode      = "DB_SSLMODE"
	EnvDBAdapter      = "DB_ADAPTER"
	EnvDBMaxConns     = "DB_MAX_CONNS"
	EnvAcquireTimeout = "DB_ACQUIRE_TIMEOUT"
	EnvQueryTimeout   = "DB_QUERY_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvOTELEnabled    = "OTEL_ENABLED"
	EnvOTELLogs       = "OTEL_LOGS"
	EnvServiceName    = "OTEL_SERVICE_NAME"
)

// Adapter names accepted by DB_ADAPTER.
const (
	AdapterPGX   = "pgx"
	AdapterSQLDB = "sqldb"
	AdapterSQLX  = "sqlx"
)

const (
	defaultPort           = 3000
	defaultDBPort         = 5432
	defaultSSLMode        = "disable"
	defaultMaxConns       = 8
	defaultAcquireTimeout = 5 * time.Second
	defaultQueryTimeout   = 10 * time.Second
	defaultLogLevel       = "info"
	defaultServiceName    = "delaystats-api"
)

// Config is the complete, validated process configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// Addr returns the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// DatabaseConfig configures the PostgreSQL connection and the lease pool on top of it.
type DatabaseConfig struct {
	Host           string        `yaml:"host" validate:"required"`
	Port           int           `yaml:"port" validate:"gt=0,lte=65535"`
	User           string        `yaml:"user" validate:"required"`
	Password       string        `yaml:"password" validate:"required"`
	Name           string        `yaml:"name" validate:"required"`
	SSLMode        string        `yaml:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	Adapter        string        `yaml:"adapter" validate:"oneof=pgx sqldb sqlx"`
	MaxConns       int           `yaml:"max_conns" validate:"gt=0,lte=1000"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout" validate:"gt=0"`
	QueryTimeout   time.Duration `yaml:"query_timeout" validate:"gte=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// SlogLevel maps Level to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TelemetryConfig switches the OpenTelemetry export on.
// Exporter endpoints are taken from the standard OTEL_EXPORTER_OTLP_* variables.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Logs        bool   `yaml:"logs"`
	ServiceName string `yaml:"service_name" validate:"required"`
}

// Default returns the configuration used for every key that neither the file nor the environment sets.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: defaultPort},
		Database: DatabaseConfig{
			Port:           defaultDBPort,
			SSLMode:        defaultSSLMode,
			Adapter:        AdapterPGX,
			MaxConns:       defaultMaxConns,
			AcquireTimeout: defaultAcquireTimeout,
			QueryTimeout:   defaultQueryTimeout,
		},
		Log:       LogConfig{Level: defaultLogLevel},
		Telemetry: TelemetryConfig{ServiceName: defaultServiceName},
	}
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds the configuration from defaults, the YAML file named by CONFIG_FILE, and lookup, in that order.
// Empty environment values count as unset.
func LoadFrom(lookup func(key string) (string, bool)) (Config, error) {
	env := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)

		return value, ok && value != ""
	}

	cfg := Default()

	if path, ok := env(EnvConfigFile); ok {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := mergeEnv(&cfg, env); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports missing required keys first, then every other rule violation.
func (c Config) Validate() error {
	if missing := c.missingKeys(); len(missing) > 0 {
		return &delaystats.MissingConfigError{Keys: missing}
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

func (c Config) missingKeys() []string {
	var missing []string

	for _, required := range []struct {
		key   string
		value string
	}{
		{EnvDBHost, c.Database.Host},
		{EnvDBUser, c.Database.User},
		{EnvDBPass, c.Database.Password},
		{EnvDBName, c.Database.Name},
	} {
		if required.value == "" {
			missing = append(missing, required.key)
		}
	}

	return missing
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("reading %s: %w", path, err))
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("parsing %s: %w", path, err))
	}

	return nil
}

func mergeEnv(cfg *Config, env func(string) (string, bool)) error {
	var errs []error

	setString := func(key string, target *string) {
		if value, ok := env(key); ok {
			*target = value
		}
	}

	setInt := func(key string, target *int) {
		value, ok := env(key)
		if !ok {
			return
		}

		parsed, err := strconv.Atoi(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, value))
			return
		}

		*target = parsed
	}

	setDuration := func(key string, target *time.Duration) {
		value, ok := env(key)
		if !ok {
			return
		}

		parsed, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a duration", key, value))
			return
		}

		*target = parsed
	}

	setBool := func(key string, target *bool) {
		value, ok := env(key)
		if !ok {
			return
		}

		parsed, err := strconv.ParseBool(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a boolean", key, value))
			return
		}

		*target = parsed
	}

	setInt(EnvPort, &cfg.Server.Port)
	setString(EnvDBHost, &cfg.Database.Host)
	setString(EnvDBUser, &cfg.Database.User)
	setString(EnvDBPass, &cfg.Database.Password)
	setString(EnvDBName, &cfg.Database.Name)
	setInt(EnvDBPort, &cfg.Database.Port)
	setString(EnvDBSSLMode, &cfg.Database.SSLMode)
	setString(EnvDBAdapter, &cfg.Database.Adapter)
	setInt(EnvDBMaxConns, &cfg.Database.MaxConns)
	setDuration(EnvAcquireTimeout, &cfg.Database.AcquireTimeout)
	setDuration(EnvQueryTimeout, &cfg.Database.QueryTimeout)
	setString(EnvLogLevel, &cfg.Log.Level)
	setBool(EnvOTELEnabled, &cfg.Telemetry.Enabled)
	setBool(EnvOTELLogs, &cfg.Telemetry.Logs)
	setString(EnvServiceName, &cfg.Telemetry.ServiceName)

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	return nil
}
