// Package config loads stockctl settings from an optional YAML file and
// STOCK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rl1809/stock-transfer/internal/core/command"
)

const envPrefix = "STOCK"

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	JournalNone   = "none"
	JournalSQLite = "sqlite"
	JournalMySQL  = "mysql"
	JournalKafka  = "kafka"
)

var (
	ErrInvalidCapacity    = errors.New("config: capacity must be positive")
	ErrInvalidMaxDistinct = errors.New("config: shop.max_distinct must be positive")
	ErrUnknownBackend     = errors.New("config: unknown backend")
	ErrMissingRedisAddr   = errors.New("config: redis.addr is required for the redis backend")
	ErrUnknownJournal     = errors.New("config: unknown journal driver")
	ErrMissingJournalDSN  = errors.New("config: journal.dsn is required")
	ErrMissingBrokers     = errors.New("config: journal.brokers is required for kafka")
	ErrInvalidSeed        = errors.New("config: invalid warehouse seed")
)

type SeedItem struct {
	Product  string `mapstructure:"product"`
	Quantity int    `mapstructure:"quantity"`
}

type WarehouseConfig struct {
	Capacity int        `mapstructure:"capacity"`
	Seed     []SeedItem `mapstructure:"seed"`
}

type ShopConfig struct {
	Capacity    int `mapstructure:"capacity"`
	MaxDistinct int `mapstructure:"max_distinct"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
}

type JournalConfig struct {
	Driver  string   `mapstructure:"driver"`
	DSN     string   `mapstructure:"dsn"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type Config struct {
	Language  string          `mapstructure:"language"`
	Backend   string          `mapstructure:"backend"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Shop      ShopConfig      `mapstructure:"shop"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Journal   JournalConfig   `mapstructure:"journal"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// DefaultSeed is the warehouse stock a fresh process starts with.
func DefaultSeed() []SeedItem {
	return []SeedItem{
		{Product: "cookies", Quantity: 3},
		{Product: "puppies", Quantity: 1},
		{Product: "boxes", Quantity: 10},
		{Product: "trees", Quantity: 30},
		{Product: "cacti", Quantity: 13},
		{Product: "wafers", Quantity: 24},
	}
}

func setDefaults(v *viper.Viper) {
	seed := make([]map[string]any, 0, len(DefaultSeed()))
	for _, s := range DefaultSeed() {
		seed = append(seed, map[string]any{"product": s.Product, "quantity": s.Quantity})
	}

	v.SetDefault("language", command.English.Language)
	v.SetDefault("backend", BackendMemory)
	v.SetDefault("warehouse.capacity", 100)
	v.SetDefault("warehouse.seed", seed)
	v.SetDefault("shop.capacity", 25)
	v.SetDefault("shop.max_distinct", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.namespace", "")
	v.SetDefault("journal.driver", JournalNone)
	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.brokers", []string{})
	v.SetDefault("journal.topic", "stock-transfers")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":50051")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
}

// Load reads path (if non-empty) and applies STOCK_* overrides, e.g.
// STOCK_SHOP_MAX_DISTINCT=3. A missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("stockctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := command.VocabularyFor(c.Language); err != nil {
		return err
	}
	if c.Warehouse.Capacity <= 0 || c.Shop.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if c.Shop.MaxDistinct <= 0 {
		return ErrInvalidMaxDistinct
	}

	switch c.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return ErrMissingRedisAddr
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}

	switch c.Journal.Driver {
	case JournalNone:
	case JournalSQLite, JournalMySQL:
		if c.Journal.DSN == "" {
			return ErrMissingJournalDSN
		}
	case JournalKafka:
		if len(c.Journal.Brokers) == 0 {
			return ErrMissingBrokers
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJournal, c.Journal.Driver)
	}

	return c.validateSeed()
}

// validateSeed replays the seed against the add rule: each add needs strictly
// more free space than the quantity being added.
func (c *Config) validateSeed() error {
	free := c.Warehouse.Capacity
	for _, s := range c.Warehouse.Seed {
		if s.Product == "" || s.Quantity <= 0 {
			return fmt.Errorf("%w: %q x %d", ErrInvalidSeed, s.Product, s.Quantity)
		}
		if free <= s.Quantity {
			return fmt.Errorf("%w: %q x %d does not fit, %d free", ErrInvalidSeed, s.Product, s.Quantity, free)
		}
		free -= s.Quantity
	}
	return nil
}
