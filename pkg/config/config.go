// 文件: pkg/config/config.go
// 服务配置
//
// 加载顺序: 默认值 -> YAML 配置文件 -> RYM_ 前缀环境变量，后者覆盖前者
// (如 RYM_REDIS_ADDR 覆盖 redis.addr)

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths 配置文件搜索路径，取第一个存在的
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rym/config.yaml",
}

// ConfigPathEnvVar 覆盖配置文件路径的环境变量
const ConfigPathEnvVar = "RYM_CONFIG_PATH"

// envPrefix 环境变量前缀
const envPrefix = "RYM_"

// Config 服务配置
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	MySQL     MySQLConfig     `koanf:"mysql"`
	Redis     RedisConfig     `koanf:"redis"`
	Feed      FeedConfig      `koanf:"feed"`
	Session   SessionConfig   `koanf:"session"`
	Events    EventsConfig    `koanf:"events"`
	Snowflake SnowflakeConfig `koanf:"snowflake"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type MySQLConfig struct {
	DSN         string        `koanf:"dsn"`
	MaxOpen     int           `koanf:"max_open"`
	MaxIdle     int           `koanf:"max_idle"`
	MaxLifetime time.Duration `koanf:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type FeedConfig struct {
	PageSize int `koanf:"page_size"`
}

type SessionConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// EventsConfig 浏览事件管道
// Transport: "" = 直写模式 (不发事件), "kafka" 或 "nats" = 管道模式
type EventsConfig struct {
	Transport string   `koanf:"transport"`
	Brokers   []string `koanf:"brokers"`
	NatsURL   string   `koanf:"nats_url"`
	RunWriter bool     `koanf:"run_writer"` // 本进程是否兼任写入器
}

type SnowflakeConfig struct {
	NodeID int64 `koanf:"node_id"`
}

// defaultConfig 默认值
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":5001",
		},
		MySQL: MySQLConfig{
			DSN:         "root:root@tcp(localhost:3306)/rym?charset=utf8mb4&parseTime=True&loc=Local",
			MaxOpen:     5,
			MaxIdle:     2,
			MaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Feed: FeedConfig{
			PageSize: 40,
		},
		Session: SessionConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Events: EventsConfig{
			Transport: "",
			Brokers:   []string{"localhost:9092"},
			NatsURL:   "nats://localhost:4222",
			RunWriter: false,
		},
		Snowflake: SnowflakeConfig{
			NodeID: 0,
		},
	}
}

// Load 加载配置
func Load() (*Config, error) {
	k := koanf.New(".")

	// 1. 默认值
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	// 2. 配置文件 (可选)
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	// 3. 环境变量: RYM_REDIS_ADDR -> redis.addr
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
