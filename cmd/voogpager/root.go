package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/voog-pager/pkg/cache"
	"github.com/Sternrassler/voog-pager/pkg/client"
	"github.com/Sternrassler/voog-pager/pkg/logging"
	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// appConfig is the CLI configuration. Environment variables provide the
// defaults, flags override them.
type appConfig struct {
	BaseURL  string
	Token    string
	RedisURL string
	Port     string
	LogLevel string
	Pretty   bool
	Timeout  time.Duration

	// SettingsFile is a YAML settings layer, Data a data-pagination JSON blob.
	SettingsFile string
	Data         string
}

func loadConfig() *appConfig {
	return &appConfig{
		BaseURL:  getEnv("VOOG_BASE_URL", ""),
		Token:    getEnv("VOOG_API_TOKEN", ""),
		RedisURL: getEnv("REDIS_URL", ""),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", string(logging.LevelInfo)),
		Timeout:  30 * time.Second,
	}
}

func newRootCommand(cfg *appConfig) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voogpager",
		Short: "Paginate Voog articles, elements and comments",
		Long: `voogpager drives the Voog pagination widget outside the browser.

It fetches pages from the Voog admin API, renders items and page navigation
and keeps an address (page URL) in sync, exactly like the in-page widget.

Configuration comes from the environment (a .env file is loaded if present):
  VOOG_BASE_URL    site URL, e.g. https://example.voog.com
  VOOG_API_TOKEN   admin API token (optional for public listings)
  REDIS_URL        page cache for serve (host:port or redis:// URL)
  LOG_LEVEL        debug, info, warn, error or disabled
  PORT             listen port for serve`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logging.Setup(logging.Config{
				Level:  level,
				Pretty: cfg.Pretty,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Voog site URL (overrides VOOG_BASE_URL)")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "Voog API token (overrides VOOG_API_TOKEN)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "human-readable logs instead of JSON")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flags.StringVar(&cfg.SettingsFile, "settings", "", "YAML settings file")
	flags.StringVar(&cfg.Data, "data", "", `data-pagination JSON, e.g. '{"itemType":"element","perPage":6}'`)

	rootCmd.AddCommand(
		newPageCommand(cfg),
		newBrowseCommand(cfg),
		newServeCommand(cfg),
		newExportCommand(cfg),
	)

	return rootCmd
}

// resolveOptions layers defaults < settings file < data attribute < overrides.
func (c *appConfig) resolveOptions(overrides options.Layer) (options.Options, error) {
	var settings options.Layer
	if c.SettingsFile != "" {
		layer, err := options.LoadFile(c.SettingsFile)
		if err != nil {
			return options.Options{}, err
		}
		settings = layer
	}

	data, err := options.ParseDataAttribute(c.Data)
	if err != nil {
		return options.Options{}, err
	}

	return options.Resolve(settings, data, overrides)
}

// newClient builds the Voog client. A nil store disables caching.
func (c *appConfig) newClient(store cache.Store) (*client.Client, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("base url not set: use --base-url or VOOG_BASE_URL")
	}

	clientCfg := client.DefaultConfig(c.BaseURL)
	clientCfg.Token = c.Token
	clientCfg.Timeout = c.Timeout
	if store != nil {
		clientCfg.Cache = store
	}
	return client.New(clientCfg)
}

// newStore returns a Redis page cache when REDIS_URL is set and an
// in-process one otherwise. The returned close function is never nil.
func (c *appConfig) newStore(ctx context.Context) (cache.Store, func(), error) {
	if c.RedisURL == "" {
		return cache.NewMemoryStore(cache.DefaultRetention), func() {}, nil
	}

	redisOpts := &redis.Options{Addr: c.RedisURL}
	if strings.Contains(c.RedisURL, "://") {
		parsed, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		redisOpts = parsed
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", c.RedisURL, err)
	}

	return cache.NewRedisStore(redisClient, cache.DefaultRetention), func() { redisClient.Close() }, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
