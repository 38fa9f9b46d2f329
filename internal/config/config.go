package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Broadcast ServerConfig   `mapstructure:"broadcast"`
	Redis     RedisConfig    `mapstructure:"redis"`
	MySQL     MySQLConfig    `mapstructure:"mysql"`
	Storage   StorageConfig  `mapstructure:"storage"`
	Lock      LockConfig     `mapstructure:"lock"`
	Notify    NotifyConfig   `mapstructure:"notify"`
	Auth      AuthConfig     `mapstructure:"auth"`
	Audit     AuditConfig    `mapstructure:"audit"`
	Leader    LeaderConfig   `mapstructure:"leader"`
	Instance  InstanceConfig `mapstructure:"instance"`
	Log       LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig picks the ledger backend: "mysql" or "memory".
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// LockConfig picks the lot lock backend: "redis" or "memory".
type LockConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Renew   bool          `mapstructure:"renew"`
}

// NotifyConfig picks the broadcast backend: "redis" or "websocket".
type NotifyConfig struct {
	Backend string        `mapstructure:"backend"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type AuditConfig struct {
	Schedule string `mapstructure:"schedule"`
	Repair   bool   `mapstructure:"repair"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var envBindings = map[string]string{
	"server.port":             "SERVER_PORT",
	"server.host":             "SERVER_HOST",
	"broadcast.port":          "BROADCAST_PORT",
	"broadcast.host":          "BROADCAST_HOST",
	"redis.address":           "REDIS_ADDRESS",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"mysql.dsn":               "MYSQL_DSN",
	"mysql.max_open_conns":    "MYSQL_MAX_OPEN_CONNS",
	"mysql.max_idle_conns":    "MYSQL_MAX_IDLE_CONNS",
	"mysql.conn_max_lifetime": "MYSQL_CONN_MAX_LIFETIME",
	"storage.backend":         "STORAGE_BACKEND",
	"lock.backend":            "LOCK_BACKEND",
	"lock.ttl":                "LOCK_TTL",
	"lock.renew":              "LOCK_RENEW",
	"notify.backend":          "NOTIFY_BACKEND",
	"notify.timeout":          "NOTIFY_TIMEOUT",
	"auth.jwt_secret":         "JWT_SECRET",
	"audit.schedule":          "AUDIT_SCHEDULE",
	"audit.repair":            "AUDIT_REPAIR",
	"leader.ttl":              "LEADER_TTL",
	"instance.id":             "INSTANCE_ID",
	"log.level":               "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("broadcast.port", 8081)
	v.SetDefault("broadcast.host", "0.0.0.0")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("storage.backend", "mysql")
	v.SetDefault("lock.backend", "redis")
	v.SetDefault("lock.ttl", 5*time.Second)
	v.SetDefault("lock.renew", true)
	v.SetDefault("notify.backend", "redis")
	v.SetDefault("notify.timeout", 2*time.Second)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("audit.schedule", "@every 1m")
	v.SetDefault("audit.repair", false)
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("instance.id", "bidding-service-1")
	v.SetDefault("log.level", "info")
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lot-bidding/")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path on top of the defaults.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "mysql", "memory":
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Lock.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("config: unknown lock backend %q", c.Lock.Backend)
	}
	switch c.Notify.Backend {
	case "redis", "websocket":
	default:
		return fmt.Errorf("config: unknown notify backend %q", c.Notify.Backend)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("config: lock ttl must be positive, got %s", c.Lock.TTL)
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("config: notify timeout must be positive, got %s", c.Notify.Timeout)
	}
	if c.Leader.TTL <= 0 {
		return fmt.Errorf("config: leader ttl must be positive, got %s", c.Leader.TTL)
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, Storage: %s, Lock: %s (ttl %s), Notify: %s, Instance: %s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Storage.Backend,
		c.Lock.Backend,
		c.Lock.TTL,
		c.Notify.Backend,
		c.Instance.ID,
	)
}
