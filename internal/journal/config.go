package journal

import (
	"fmt"
	"net/url"
	"time"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains journal backend settings.
type Config struct {
	Driver           string `toml:"driver" mapstructure:"driver"`
	ConnectionString string `toml:"connection_string" mapstructure:"connection_string"`

	// SQLite
	Path string `toml:"path" mapstructure:"path"`

	// PostgreSQL
	Host     string `toml:"host" mapstructure:"host"`
	Port     int    `toml:"port" mapstructure:"port"`
	Database string `toml:"database" mapstructure:"database"`
	Username string `toml:"username" mapstructure:"username"`
	Password string `toml:"password" mapstructure:"password"`
	SSLMode  string `toml:"ssl_mode" mapstructure:"ssl_mode"`

	MaxOpenConns   int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	DefaultTimeout time.Duration `toml:"default_timeout" mapstructure:"default_timeout"`

	// Buffered events per live subscriber before it is dropped.
	SubscriberBuffer int `toml:"subscriber_buffer" mapstructure:"subscriber_buffer"`
}

// NewConfig returns an in-memory configuration with defaults.
func NewConfig() *Config {
	return &Config{
		Driver:           DriverMemory,
		Host:             "localhost",
		Port:             5432,
		Database:         "poolgov",
		Username:         "poolgov",
		SSLMode:          "prefer",
		MaxOpenConns:     10,
		DefaultTimeout:   30 * time.Second,
		SubscriberBuffer: 64,
	}
}

// SQLiteConfig returns a configuration for a SQLite file.
func SQLiteConfig(path string) *Config {
	c := NewConfig()
	c.Driver = DriverSQLite
	c.Path = path
	c.MaxOpenConns = 1
	return c
}

// Validate checks the configuration and normalizes driver aliases.
func (c *Config) Validate() error {
	switch c.Driver {
	case "", DriverMemory:
		c.Driver = DriverMemory
	case DriverSQLite, "sqlite3":
		c.Driver = DriverSQLite
		if c.Path == "" && c.ConnectionString == "" {
			return ErrMissingDatabase
		}
	case DriverPostgres, "postgresql":
		c.Driver = DriverPostgres
		if c.ConnectionString == "" {
			if c.Host == "" {
				return ErrMissingHost
			}
			if c.Port <= 0 || c.Port > 65535 {
				return ErrInvalidPort
			}
			if c.Database == "" {
				return ErrMissingDatabase
			}
			if c.Username == "" {
				return ErrMissingUsername
			}
			switch c.SSLMode {
			case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
			default:
				return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}

	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.SubscriberBuffer <= 0 {
		return ErrInvalidSubscriberSize
	}
	return nil
}

// BuildConnectionString returns the DSN for the SQL drivers.
func (c *Config) BuildConnectionString() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}

	switch c.Driver {
	case DriverPostgres:
		u := &url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:   "/" + c.Database,
		}
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		q.Set("connect_timeout", fmt.Sprintf("%d", int(c.DefaultTimeout.Seconds())))
		q.Set("application_name", "poolgovd")
		u.RawQuery = q.Encode()
		return u.String()
	case DriverSQLite:
		q := url.Values{}
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
		q.Add("_pragma", "busy_timeout(5000)")
		if c.Path == ":memory:" {
			return c.Path
		}
		return "file:" + c.Path + "?" + q.Encode()
	}
	return ""
}
