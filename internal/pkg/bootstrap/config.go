// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是网关的全部运行时配置
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Backends   BackendsConfig   `yaml:"backends"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendsConfig 保存四个下游服务的基础地址
type BackendsConfig struct {
	Inclusion string `yaml:"inclusion"`
	Fetch     string `yaml:"fetch"`
	Delete    string `yaml:"delete"`
	Update    string `yaml:"update"`
}

type HTTPClientConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
}

type TracingConfig struct {
	Enabled        bool   `yaml:"enabled"`
	JaegerEndpoint string `yaml:"jaeger_endpoint"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig 返回与旧版硬编码地址一致的默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
		},
		Backends: BackendsConfig{
			Inclusion: "http://localhost:8001",
			Fetch:     "http://localhost:8002",
			Delete:    "http://localhost:8003",
			Update:    "http://localhost:8004",
		},
		HTTPClient: HTTPClientConfig{
			Timeout:             10 * time.Second,
			MaxIdleConnsPerHost: 100,
		},
		Tracing: TracingConfig{
			Enabled:        false,
			JaegerEndpoint: "http://localhost:14268/api/traces",
		},
		Log: LogConfig{Level: "info"},
	}
}

var (
	currentConfig *Config
	configOnce    sync.Once
)

// Init 加载配置: 默认值 -> CONFIG_FILE 指定的 YAML -> 环境变量
func Init() {
	configOnce.Do(func() {
		cfg, err := LoadConfig(os.Getenv("CONFIG_FILE"))
		if err != nil {
			panic(err)
		}
		currentConfig = cfg
	})
}

// GetCurrentConfig 返回 Init 加载的配置
func GetCurrentConfig() *Config {
	if currentConfig == nil {
		Init()
	}
	return currentConfig
}

// LoadConfig 从可选的 YAML 文件和环境变量构建配置。path 为空时跳过文件。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Backends.Inclusion = getEnv("INCLUSION_SERVICE_URL", cfg.Backends.Inclusion)
	cfg.Backends.Fetch = getEnv("FETCH_SERVICE_URL", cfg.Backends.Fetch)
	cfg.Backends.Delete = getEnv("DELETE_SERVICE_URL", cfg.Backends.Delete)
	cfg.Backends.Update = getEnv("UPDATE_SERVICE_URL", cfg.Backends.Update)
	cfg.Tracing.JaegerEndpoint = getEnv("JAEGER_ENDPOINT", cfg.Tracing.JaegerEndpoint)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	if v, ok := os.LookupEnv("GATEWAY_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid GATEWAY_PORT %q", v)
		}
		cfg.Server.Port = port
	}
	if v, ok := os.LookupEnv("HTTP_CLIENT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid HTTP_CLIENT_TIMEOUT %q", v)
		}
		cfg.HTTPClient.Timeout = d
	}
	if v, ok := os.LookupEnv("TRACING_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid TRACING_ENABLED %q", v)
		}
		cfg.Tracing.Enabled = enabled
	}
	return nil
}

// Validate 检查配置是否可用于启动
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.HTTPClient.Timeout <= 0 {
		return errors.New("http_client.timeout must be positive")
	}
	backends := map[string]string{
		"inclusion": c.Backends.Inclusion,
		"fetch":     c.Backends.Fetch,
		"delete":    c.Backends.Delete,
		"update":    c.Backends.Update,
	}
	for name, raw := range backends {
		u, err := url.Parse(raw)
		if err != nil {
			return errors.Wrapf(err, "backend %s", name)
		}
		if !u.IsAbs() || u.Host == "" {
			return errors.Errorf("backend %s: %q is not an absolute URL", name, raw)
		}
	}
	return nil
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
