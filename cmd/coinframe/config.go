package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dailyyoga/coinframe/cache"
	"github.com/dailyyoga/coinframe/ch"
	"github.com/dailyyoga/coinframe/coingecko"
	"github.com/dailyyoga/coinframe/cron"
	"github.com/dailyyoga/coinframe/db"
	"github.com/dailyyoga/coinframe/kafka"
	"github.com/dailyyoga/coinframe/kvstore"
	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/refresh"
	"github.com/dailyyoga/coinframe/render"
	"github.com/dailyyoga/coinframe/server"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "COINFRAME"

// Config is the process configuration. The clickhouse, kafka and mysql
// sections are optional; a missing section disables that sink.
type Config struct {
	Logger     *logger.Config        `mapstructure:"logger"`
	Store      *kvstore.Config       `mapstructure:"store"`
	CoinGecko  *coingecko.Config     `mapstructure:"coingecko"`
	Pool       *cache.SyncableConfig `mapstructure:"pool"`
	Render     *render.Config        `mapstructure:"render"`
	Refresh    *refresh.Config       `mapstructure:"refresh"`
	Server     *server.Config        `mapstructure:"server"`
	Warm       *cron.WarmConfig      `mapstructure:"warm"`
	ClickHouse *ch.Config            `mapstructure:"clickhouse"`
	Kafka      *kafka.ProducerConfig `mapstructure:"kafka"`
	MySQL      *db.Config            `mapstructure:"mysql"`
}

// envKeys are bound explicitly so COINFRAME_* variables reach Unmarshal
// without a config file
var envKeys = []string{
	"logger.level",
	"logger.encoding",
	"store.driver",
	"store.redis.url",
	"store.redis.addr",
	"store.redis.password",
	"coingecko.base_url",
	"coingecko.api_key",
	"coingecko.api_key_type",
	"refresh.key_prefix",
	"refresh.cache_ttl",
	"refresh.lock_ttl",
	"refresh.retry_delay",
	"refresh.retry_budget",
	"refresh.backoff",
	"server.addr",
	"server.base_url",
	"server.selector.mode",
	"server.selector.coin_id",
	"server.selector.category",
	"server.selector.days",
	"warm.enabled",
	"warm.warm_spec",
	"clickhouse.hosts",
	"clickhouse.database",
	"clickhouse.username",
	"clickhouse.password",
	"kafka.brokers",
	"kafka.topic",
	"mysql.host",
	"mysql.user",
	"mysql.password",
	"mysql.database",
}

// legacyEnv maps the environment names the hosted deployment already sets
var legacyEnv = map[string]string{
	"NEXT_PUBLIC_BASE_URL": "server.base_url",
	"REDIS_URL":            "store.redis.url",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("coinframe", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a YAML config file")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("addr", "", "HTTP listen address")
	return fs
}

// loadConfig layers defaults, the optional config file, environment and
// flags, in increasing precedence
func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	for env, key := range legacyEnv {
		if value, ok := os.LookupEnv(env); ok && value != "" && !v.IsSet(key) {
			v.Set(key, value)
		}
	}

	if err := v.BindPFlag("logger.level", fs.Lookup("log-level")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("server.addr", fs.Lookup("addr")); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	applyCoinGeckoEnv(cfg.CoinGecko)
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = logger.DefaultConfig()
	}
	if c.Store == nil {
		c.Store = kvstore.DefaultConfig()
	}
	if c.CoinGecko == nil {
		c.CoinGecko = &coingecko.Config{}
	}
	if c.Pool == nil {
		c.Pool = cache.DefaultSyncableConfig()
	}
	if c.Render == nil {
		c.Render = render.DefaultConfig()
	}
	if c.Refresh == nil {
		c.Refresh = refresh.DefaultConfig()
	}
	if c.Server == nil {
		c.Server = server.DefaultConfig()
	}
	if c.Warm == nil {
		c.Warm = cron.DefaultWarmConfig()
	}
}

// applyCoinGeckoEnv reads the legacy key variables when no key is
// configured. A demo key wins over COINGECKO_API_KEY, which is a pro key.
func applyCoinGeckoEnv(cfg *coingecko.Config) {
	if cfg.APIKey != "" {
		return
	}
	if key := os.Getenv("COINGECKO_DEMO_API_KEY"); key != "" {
		cfg.APIKey = key
		if cfg.APIKeyType == "" {
			cfg.APIKeyType = coingecko.KeyTypeDemo
		}
		return
	}
	if key := os.Getenv("COINGECKO_API_KEY"); key != "" {
		cfg.APIKey = key
		if cfg.APIKeyType == "" {
			cfg.APIKeyType = coingecko.KeyTypePro
		}
	}
}
