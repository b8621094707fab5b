// Package config загружает настройки клиента и сервера из YAML файла
// и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Переменные окружения для секретов
const (
	EnvToken     = "ITEMSYNC_TOKEN"
	EnvJWTSecret = "ITEMSYNC_JWT_SECRET"
)

// Config корневая конфигурация
type Config struct {
	Client     ClientConfig     `yaml:"client"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Connection ConnectionConfig `yaml:"connection"`
	Sync       SyncConfig       `yaml:"sync"`
}

// ClientConfig параметры клиента
type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
	// WSURL пустой: выводится из ServerURL
	WSURL  string `yaml:"ws_url"`
	DBPath string `yaml:"db_path"`
	// Token берется из ITEMSYNC_TOKEN, в файл не пишется
	Token string `yaml:"-"`
}

// ConnectionConfig параметры соединения и переподключения
type ConnectionConfig struct {
	Heartbeat        time.Duration `yaml:"heartbeat"`
	BaseDelay        time.Duration `yaml:"base_delay"`
	MaxDelay         time.Duration `yaml:"max_delay"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	Factor           float64       `yaml:"factor"`
	MaxAttempts      int           `yaml:"max_attempts"`
}

// SyncConfig параметры оркестратора
type SyncConfig struct {
	Staleness        time.Duration `yaml:"staleness"`
	ProbeInterval    time.Duration `yaml:"probe_interval"`
	PageSize         int           `yaml:"page_size"`
	DrainMaxAttempts int           `yaml:"drain_max_attempts"`
}

// ServerConfig параметры эталонного сервера
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	DBPath          string        `yaml:"db_path"`
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	PresenceTimeout time.Duration `yaml:"presence_timeout"`
	RateLimit       int           `yaml:"rate_limit"` // запросов в минуту с одного IP, 0 отключает
}

// LogConfig параметры логирования
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig адрес для /metrics; пустой адрес отключает отдельный listener
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			ServerURL: "http://localhost:8080",
			DBPath:    "itemsync-client.db",
		},
		Connection: ConnectionConfig{
			Heartbeat:        30 * time.Second,
			BaseDelay:        2 * time.Second,
			MaxDelay:         60 * time.Second,
			Factor:           2,
			MaxAttempts:      10,
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     10 * time.Second,
		},
		Sync: SyncConfig{
			Staleness:        time.Hour,
			PageSize:         100,
			DrainMaxAttempts: 5,
			ProbeInterval:    15 * time.Second,
		},
		Server: ServerConfig{
			Listen:          ":8080",
			DBPath:          "itemsync-server.db",
			TokenTTL:        24 * time.Hour,
			PresenceTimeout: 15 * time.Second,
			RateLimit:       100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load читает файл поверх значений по умолчанию и применяет переменные окружения.
// Пустой путь или отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Client.Token = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Server.JWTSecret = v
	}
}

// WebSocketURL адрес websocket endpoint: ws_url либо server_url со схемой ws/wss
func (c *Config) WebSocketURL() (string, error) {
	if c.Client.WSURL != "" {
		return c.Client.WSURL, nil
	}

	u, err := url.Parse(c.Client.ServerURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/ws"
	return u.String(), nil
}

// Validate проверяет клиентскую часть конфигурации
func (c *Config) Validate() error {
	var errs []error

	if _, err := url.ParseRequestURI(c.Client.ServerURL); err != nil || c.Client.ServerURL == "" {
		errs = append(errs, fmt.Errorf("client.server_url %q is not a valid url", c.Client.ServerURL))
	}
	if c.Client.DBPath == "" {
		errs = append(errs, errors.New("client.db_path is required"))
	}

	cc := c.Connection
	if cc.Factor < 1 {
		errs = append(errs, fmt.Errorf("connection.factor must be >= 1, got %v", cc.Factor))
	}
	if cc.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("connection.max_attempts must be >= 1, got %d", cc.MaxAttempts))
	}
	if cc.BaseDelay <= 0 || cc.MaxDelay < cc.BaseDelay {
		errs = append(errs, fmt.Errorf("connection delays must satisfy 0 < base_delay <= max_delay, got %s and %s", cc.BaseDelay, cc.MaxDelay))
	}
	if cc.Heartbeat <= 0 {
		errs = append(errs, errors.New("connection.heartbeat must be positive"))
	}

	if c.Sync.PageSize < 1 {
		errs = append(errs, fmt.Errorf("sync.page_size must be >= 1, got %d", c.Sync.PageSize))
	}
	if c.Sync.DrainMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("sync.drain_max_attempts must be >= 1, got %d", c.Sync.DrainMaxAttempts))
	}

	if err := c.Log.validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ValidateServer проверяет серверную часть конфигурации
func (c *Config) ValidateServer() error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if c.Server.DBPath == "" {
		errs = append(errs, errors.New("server.db_path is required"))
	}
	if len(c.Server.JWTSecret) < 16 {
		errs = append(errs, fmt.Errorf("server.jwt_secret must be at least 16 bytes (set %s)", EnvJWTSecret))
	}
	if c.Server.PresenceTimeout < 0 {
		errs = append(errs, errors.New("server.presence_timeout must not be negative"))
	}
	if c.Server.TokenTTL <= 0 {
		errs = append(errs, errors.New("server.token_ttl must be positive"))
	}
	if err := c.Log.validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (l LogConfig) validate() error {
	if _, err := l.SlogLevel(); err != nil {
		return err
	}
	switch l.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("log.format must be text or json, got %q", l.Format)
	}
}

// SlogLevel уровень логирования для slog
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger создает логгер согласно настройкам
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
