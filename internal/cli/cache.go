package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelres/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the index, metadata and graph cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached entry of the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case config.BackendMemory, config.BackendNone:
				printWarning("The %s cache lives only as long as one process; nothing to clear", cfg.Cache.Backend)
				return nil
			}
			store, err := cfg.OpenCache(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %s cache", cfg.Cache.Backend)
			switch cfg.Cache.Backend {
			case config.BackendFile:
				dir, err := cacheDir(cfg)
				if err == nil {
					printDetail("Directory: %s", dir)
				}
			case config.BackendRedis:
				printDetail("Redis: %s (prefix %q)", cfg.Cache.RedisAddr, cfg.Cache.Prefix)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return printCachePath(cmd.OutOrStdout(), cfg)
		},
	}
}

func printCachePath(w io.Writer, cfg config.Config) error {
	dir, err := cacheDir(cfg)
	if err != nil {
		return fmt.Errorf("get cache dir: %w", err)
	}
	fmt.Fprintln(w, dir)
	return nil
}

// cacheDir returns the configured file cache directory or the default one.
func cacheDir(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return config.DefaultCacheDir()
}
