// Package cli implements the wheelres command-line interface.
package cli

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelres/pkg/buildinfo"
	"github.com/matzehuels/wheelres/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "wheelres"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Wheelres resolves Python requirements into pinned wheel graphs",
		Long:          `Wheelres resolves Python requirements for a target environment using only built wheels, producing a pinned dependency graph with provenance for every chosen file.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/wheelres/config.toml)")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the --config file, or the default config file when it
// exists. Without any file the CLI keeps a file cache in DefaultCacheDir.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.configPath != "" {
		return config.Load(c.configPath)
	}
	if path, err := config.DefaultConfigPath(); err == nil {
		if _, err := os.Stat(path); err == nil {
			c.Logger.Debug("using config", "path", path)
			return config.Load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, err
		}
	}
	return config.Config{Cache: config.CacheConfig{Backend: config.BackendFile}}.WithDefaults(), nil
}
