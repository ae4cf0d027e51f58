// Package config loads server settings from defaults, an optional config
// file, OPREMA_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/oprema/internal/lock"
)

// Lock backends.
const (
	LockBackendSQLite = "sqlite"
	LockBackendRedis  = "redis"
)

// ErrHelp is returned by Load when -h or --help was given.
var ErrHelp = pflag.ErrHelp

// Config is the full server configuration.
type Config struct {
	DB           string          `mapstructure:"db"`
	Addr         string          `mapstructure:"addr"`
	User         string          `mapstructure:"user"`
	Log          string          `mapstructure:"log"`
	Organization string          `mapstructure:"organization"`
	Lock         LockConfig      `mapstructure:"lock"`
	Redis        RedisConfig     `mapstructure:"redis"`
	Documents    DocumentsConfig `mapstructure:"documents"`
}

// LockConfig selects and tunes the organization lock.
type LockConfig struct {
	Backend  string        `mapstructure:"backend"`
	TTL      time.Duration `mapstructure:"ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMin time.Duration `mapstructure:"retry_min"`
	RetryMax time.Duration `mapstructure:"retry_max"`
}

// Options converts the settings for lock.NewManager.
func (c LockConfig) Options() lock.Options {
	return lock.Options{
		TTL:      c.TTL,
		Timeout:  c.Timeout,
		RetryMin: c.RetryMin,
		RetryMax: c.RetryMax,
	}
}

// RedisConfig is used when the lock backend is redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DocumentsConfig says where approval documents are written.
type DocumentsConfig struct {
	Dir string `mapstructure:"dir"`
}

const usage = `Usage: oprema [flags]

Flags:
  -d, --db <path>              SQLite database path (default: oprema.sqlite3)
  -a, --addr <host:port>       listen address (default: :8080)
  -u, --user <name>            admin username on first run (default: Admin)
  -o, --organization <id>      organization of the first-run admin (default: default)
  -l, --log <path>             log file path (default: stdout/stderr only)
  -c, --config <path>          TOML or YAML config file
      --lock.backend <name>    sqlite or redis (default: sqlite)
      --lock.ttl <dur>         lease lifetime (default: 30s)
      --lock.timeout <dur>     how long to wait for a lease (default: 10s)
      --lock.retry_min <dur>   first retry delay (default: 20ms)
      --lock.retry_max <dur>   longest retry delay (default: 500ms)
      --redis.addr <host:port> redis address (default: localhost:6379)
      --redis.password <pw>    redis password
      --redis.db <n>           redis database (default: 0)
      --documents.dir <path>   approval document directory (default: documents)
  -h, --help                   show this help and exit

Every setting can also be given as an environment variable, e.g.
OPREMA_LOCK_BACKEND=redis or OPREMA_REDIS_ADDR=cache:6379.
`

func newFlagSet() *pflag.FlagSet {
	def := lock.DefaultOptions()

	fs := pflag.NewFlagSet("oprema", pflag.ContinueOnError)
	fs.StringP("db", "d", "oprema.sqlite3", "")
	fs.StringP("addr", "a", ":8080", "")
	fs.StringP("user", "u", "Admin", "")
	fs.StringP("organization", "o", "default", "")
	fs.StringP("log", "l", "", "")
	fs.StringP("config", "c", "", "")
	fs.String("lock.backend", LockBackendSQLite, "")
	fs.Duration("lock.ttl", def.TTL, "")
	fs.Duration("lock.timeout", def.Timeout, "")
	fs.Duration("lock.retry_min", def.RetryMin, "")
	fs.Duration("lock.retry_max", def.RetryMax, "")
	fs.String("redis.addr", "localhost:6379", "")
	fs.String("redis.password", "", "")
	fs.Int("redis.db", 0, "")
	fs.String("documents.dir", "documents", "")
	return fs
}

// Usage returns the help text.
func Usage() string { return usage }

// Load builds the configuration from args (without the program name), the
// environment and the config file named by --config.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	fs.Usage = func() {}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	v := viper.New()
	v.SetEnvPrefix("OPREMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db: required"))
	}
	if c.Organization == "" {
		errs = append(errs, errors.New("organization: required"))
	}

	switch c.Lock.Backend {
	case LockBackendSQLite:
	case LockBackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr: required for the redis lock backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("lock.backend: unknown backend %q", c.Lock.Backend))
	}

	for name, d := range map[string]time.Duration{
		"lock.ttl":       c.Lock.TTL,
		"lock.timeout":   c.Lock.Timeout,
		"lock.retry_min": c.Lock.RetryMin,
		"lock.retry_max": c.Lock.RetryMax,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", name, d))
		}
	}
	if c.Lock.RetryMin > c.Lock.RetryMax {
		errs = append(errs, fmt.Errorf("lock.retry_min (%s) exceeds lock.retry_max (%s)", c.Lock.RetryMin, c.Lock.RetryMax))
	}

	return errors.Join(errs...)
}
