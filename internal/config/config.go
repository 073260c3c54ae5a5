package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Brownie44l1/rawhttp/internal/server"
)

// Config is the on-disk server configuration.
type Config struct {
	Addr            string        `yaml:"addr"`
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	MaxRequestBytes int           `yaml:"max_request_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimitConfig limits requests per client IP. Zero Requests disables it.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// CORSConfig enables CORS headers when AllowedOrigins is not empty.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() Config {
	def := server.DefaultConfig()
	return Config{
		Addr:            def.Addr,
		ReadBufferSize:  def.ReadBufferSize,
		MaxRequestBytes: def.MaxRequestBytes,
		ShutdownTimeout: 30 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
		},
	}
}

// Load reads a YAML config from path on top of Default. A missing file yields
// the defaults. Invalid values are replaced by their default and reported in
// the returned warnings; only unreadable or malformed files return an error.
func Load(path string) (Config, []string, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, []string{fmt.Sprintf("no config file at %s, using defaults", path)}, nil
		}
		return Default(), nil, errors.Wrapf(err, "read config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), nil, errors.Wrapf(err, "parse config %s", path)
	}

	return cfg, cfg.sanitize(), nil
}

func (c *Config) sanitize() []string {
	def := Default()
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		warn("addr is empty, falling back to %q", def.Addr)
		c.Addr = def.Addr
	}
	if c.ReadBufferSize <= 0 {
		warn("read_buffer_size=%d is invalid, falling back to %d", c.ReadBufferSize, def.ReadBufferSize)
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.MaxRequestBytes <= 0 {
		warn("max_request_bytes=%d is invalid, falling back to %d", c.MaxRequestBytes, def.MaxRequestBytes)
		c.MaxRequestBytes = def.MaxRequestBytes
	}
	if c.MaxRequestBytes < c.ReadBufferSize {
		warn("max_request_bytes=%d is below read_buffer_size, raising it to %d", c.MaxRequestBytes, c.ReadBufferSize)
		c.MaxRequestBytes = c.ReadBufferSize
	}
	if c.ReadTimeout < 0 {
		warn("read_timeout=%s is negative, disabling it", c.ReadTimeout)
		c.ReadTimeout = 0
	}
	if c.WriteTimeout < 0 {
		warn("write_timeout=%s is negative, disabling it", c.WriteTimeout)
		c.WriteTimeout = 0
	}
	if c.ShutdownTimeout <= 0 {
		warn("shutdown_timeout=%s is invalid, falling back to %s", c.ShutdownTimeout, def.ShutdownTimeout)
		c.ShutdownTimeout = def.ShutdownTimeout
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		warn("log.format=%q is unknown, falling back to %q", c.Log.Format, def.Log.Format)
		c.Log.Format = def.Log.Format
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}

	if c.RateLimit.Requests < 0 {
		warn("rate_limit.requests=%d is negative, disabling rate limiting", c.RateLimit.Requests)
		c.RateLimit.Requests = 0
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		warn("rate_limit.window=%s is invalid, falling back to %s", c.RateLimit.Window, def.RateLimit.Window)
		c.RateLimit.Window = def.RateLimit.Window
	}

	return warnings
}

// ServerConfig returns the settings the server core understands.
func (c Config) ServerConfig() server.Config {
	return server.Config{
		Addr:            c.Addr,
		ReadBufferSize:  c.ReadBufferSize,
		MaxRequestBytes: c.MaxRequestBytes,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
	}
}

// Watch reloads path whenever it is written or replaced and hands the result
// to onChange, or the load error to onErr. It returns once the watch is in
// place; reloading continues in the background until ctx is done.
//
// The parent directory is watched so editors that save by rename are seen.
func Watch(ctx context.Context, path string, onChange func(Config, []string), onErr func(error)) error {
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return errors.Wrapf(err, "watch %s", filepath.Dir(path))
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				cfg, warnings, err := Load(path)
				if err != nil {
					if onErr != nil {
						onErr(err)
					}
					continue
				}
				onChange(cfg, warnings)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if onErr != nil {
					onErr(errors.Wrap(err, "watch"))
				}
			}
		}
	}()
	return nil
}
