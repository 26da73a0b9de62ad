package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-storefront/internal/config"
	"github.com/Sternrassler/catalog-storefront/pkg/client"
	"github.com/Sternrassler/catalog-storefront/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// rootOptions is shared by every subcommand. cfg is set before RunE.
type rootOptions struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Catalog storefront backed by the catalog API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			logging.Setup(logging.Config{
				Level:   logging.LogLevel(cfg.Log.Level),
				Pretty:  cfg.Log.Pretty,
				Output:  cmd.ErrOrStderr(),
				Service: "storefront",
			})
			opts.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./storefront.yaml)")
	flags.String("api-url", "", "catalog API origin (default http://localhost:3000)")
	flags.String("user-agent", "", "User-Agent sent to the catalog API")
	flags.Duration("timeout", 0, "catalog API request timeout (default 30s)")
	flags.Int("max-attempts", 0, "attempts per catalog API request, 1 disables retries")
	flags.String("redis-addr", "", "Redis address for the revalidation store (disabled when empty)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("log-pretty", false, "human readable console logs")

	root.AddCommand(newServeCmd(opts), newExportCmd(opts))
	return root
}

// newCatalogClient builds the API client, connecting to Redis when one is
// configured. The returned cleanup releases both.
func newCatalogClient(ctx context.Context, cfg *config.Config) (*client.Client, func(), error) {
	logger := logging.NewLogger("main")

	ccfg := client.DefaultConfig(cfg.API.BaseURL, cfg.API.UserAgent)
	ccfg.Timeout = cfg.API.Timeout
	ccfg.MaxAttempts = cfg.API.MaxAttempts
	ccfg.InitialBackoff = cfg.API.InitialBackoff

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(cfg.Redis.Options())

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		ccfg.Redis = rdb
	}

	c, err := client.New(ccfg)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, fmt.Errorf("create catalog client: %w", err)
	}

	cleanup := func() {
		_ = c.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return c, cleanup, nil
}
