package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	MySQL       MySQLConfig       `mapstructure:"mysql"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Janitor     JanitorConfig     `mapstructure:"janitor"`
	Instance    InstanceConfig    `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type StorageConfig struct {
	// Backend is "mysql" or "memory". The memory backend keeps everything
	// in process and is meant for development.
	Backend string `mapstructure:"backend"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MarketplaceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	AppSlug string        `mapstructure:"app_slug"`
	Timeout time.Duration `mapstructure:"timeout"`
	// UseStub swaps the HTTP client for the in-process stub.
	UseStub bool `mapstructure:"use_stub"`
}

type JanitorConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	LeaderTTL time.Duration `mapstructure:"leader_ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("storage.backend", "mysql")
	viper.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("marketplace.base_url", "https://api.divar.ir")
	viper.SetDefault("marketplace.api_key", "")
	viper.SetDefault("marketplace.app_slug", "auction-addon")
	viper.SetDefault("marketplace.timeout", 10*time.Second)
	viper.SetDefault("marketplace.use_stub", false)
	viper.SetDefault("janitor.enabled", true)
	viper.SetDefault("janitor.interval", time.Minute)
	viper.SetDefault("janitor.leader_ttl", 30*time.Second)
	viper.SetDefault("instance.id", "auction-service-1")

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/marketplace-auction/")

	// Environment variable support
	viper.AutomaticEnv()

	// Environment variable mappings
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("storage.backend", "STORAGE_BACKEND")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("marketplace.base_url", "MARKETPLACE_BASE_URL")
	viper.BindEnv("marketplace.api_key", "MARKETPLACE_API_KEY")
	viper.BindEnv("marketplace.app_slug", "MARKETPLACE_APP_SLUG")
	viper.BindEnv("marketplace.timeout", "MARKETPLACE_TIMEOUT")
	viper.BindEnv("marketplace.use_stub", "MARKETPLACE_USE_STUB")
	viper.BindEnv("janitor.enabled", "JANITOR_ENABLED")
	viper.BindEnv("janitor.interval", "JANITOR_INTERVAL")
	viper.BindEnv("janitor.leader_ttl", "JANITOR_LEADER_TTL")
	viper.BindEnv("instance.id", "INSTANCE_ID")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Storage: %s, Redis: %s, Marketplace: %s, Instance: %s",
		c.Server.Host,
		c.Server.Port,
		c.Storage.Backend,
		c.Redis.Address,
		c.Marketplace.BaseURL,
		c.Instance.ID,
	)
}
