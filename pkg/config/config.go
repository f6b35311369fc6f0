// Package config loads wheelres settings from TOML.
//
// A configuration names the index to query, the environments to resolve
// for, the resolution policy, the strategy plan and the cache backend.
// Every section is optional; [Config.WithDefaults] fills what is missing:
//
//	[index]
//	base = "https://pypi.org/simple"
//	release_api = "https://pypi.org/pypi"
//
//	[resolve]
//	fast_fail = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[[environment]]
//	name = "linux-311"
//	python = "3.11"
//	sys_platform = "linux"
//	machine = "x86_64"
//	platforms = ["manylinux_2_17_x86_64", "linux_x86_64"]
//
//	[[strategy]]
//	strategy = "release_json"
//	criticality = "disabled"
package config

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/strategy"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Defaults for unset fields.
const (
	DefaultIndexBase   = "https://pypi.org/simple"
	DefaultConcurrency = 8
	DefaultRedisPrefix = "wheelres:"
	DefaultEnvironment = "cp312-manylinux-x86_64"
)

// Config is the root of a configuration file.
type Config struct {
	Index        IndexConfig         `toml:"index" json:"index"`
	Resolve      ResolveConfig       `toml:"resolve" json:"resolve"`
	Cache        CacheConfig         `toml:"cache" json:"cache"`
	Policy       PolicyConfig        `toml:"policy" json:"policy"`
	Environments []EnvironmentConfig `toml:"environment" json:"environments"`
	Strategies   []strategy.Config   `toml:"strategy" json:"strategies,omitempty"`
}

// IndexConfig selects the package index.
type IndexConfig struct {
	Base string `toml:"base" json:"base"`
	// ReleaseAPI enables the release_json metadata strategy when set.
	ReleaseAPI string            `toml:"release_api" json:"release_api,omitempty"`
	Headers    map[string]string `toml:"headers" json:"-"`
}

// ResolveConfig holds solver and scheduling knobs.
type ResolveConfig struct {
	FastFail     bool `toml:"fast_fail" json:"fast_fail"`
	PreferDirect bool `toml:"prefer_direct" json:"prefer_direct"`
	MaxRounds    int  `toml:"max_rounds" json:"max_rounds"`
	Concurrency  int  `toml:"concurrency" json:"concurrency"`
}

// CacheConfig selects and configures the cache store.
type CacheConfig struct {
	Backend string `toml:"backend" json:"backend"`
	Dir     string `toml:"dir" json:"dir,omitempty"` // file backend; empty means DefaultCacheDir

	RedisAddr     string        `toml:"redis_addr" json:"redis_addr,omitempty"`
	RedisPassword string        `toml:"redis_password" json:"-"`
	RedisDB       int           `toml:"redis_db" json:"redis_db,omitempty"`
	Prefix        string        `toml:"prefix" json:"prefix,omitempty"` // namespaces every cache key
	TTL           time.Duration `toml:"ttl" json:"ttl,omitempty"`
	DisableGraphs bool          `toml:"disable_graphs" json:"disable_graphs,omitempty"`
}

// PolicyConfig mirrors model.Policy with TOML names. Empty fields keep the
// model defaults.
type PolicyConfig struct {
	Yanked              string   `toml:"yanked" json:"yanked,omitempty"`
	PreRelease          string   `toml:"prerelease" json:"prerelease,omitempty"`
	RequiresDistURL     string   `toml:"requires_dist_url" json:"requires_dist_url,omitempty"`
	AllowedURLSchemes   []string `toml:"allowed_url_schemes" json:"allowed_url_schemes,omitempty"`
	InvalidRequiresDist string   `toml:"invalid_requires_dist" json:"invalid_requires_dist,omitempty"`
}

// EnvironmentConfig describes one target. Either Tags is set, listing the
// accepted tags most preferred first, or Python is set and tags are
// derived for CPython on Platforms.
type EnvironmentConfig struct {
	Name        string            `toml:"name" json:"name"`
	Tags        []string          `toml:"tags" json:"tags,omitempty"`
	Python      string            `toml:"python" json:"python,omitempty"`
	SysPlatform string            `toml:"sys_platform" json:"sys_platform,omitempty"`
	Machine     string            `toml:"machine" json:"machine,omitempty"`
	Platforms   []string          `toml:"platforms" json:"platforms,omitempty"`
	Markers     map[string]string `toml:"markers" json:"markers,omitempty"`
	// Policy overrides the top-level policy field by field.
	Policy *PolicyConfig `toml:"policy" json:"policy,omitempty"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{}.WithDefaults()
}

// DefaultEnvironmentConfig is a CPython 3.12 manylinux x86_64 target.
func DefaultEnvironmentConfig() EnvironmentConfig {
	return EnvironmentConfig{
		Name:        DefaultEnvironment,
		Python:      "3.12",
		SysPlatform: "linux",
		Machine:     "x86_64",
		Platforms: []string{
			"manylinux_2_28_x86_64",
			"manylinux_2_17_x86_64",
			"manylinux2014_x86_64",
			"linux_x86_64",
		},
	}
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Index.Base == "" {
		c.Index.Base = DefaultIndexBase
	}
	if c.Resolve.Concurrency <= 0 {
		c.Resolve.Concurrency = DefaultConcurrency
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendMemory
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Prefix == "" {
		c.Cache.Prefix = DefaultRedisPrefix
	}
	if len(c.Environments) == 0 {
		c.Environments = []EnvironmentConfig{DefaultEnvironmentConfig()}
	}
	return c
}

// Validate checks the configuration for errors that would otherwise only
// surface during resolution.
func (c Config) Validate() error {
	if err := perrors.ValidateURL(c.Index.Base); err != nil {
		return err
	}
	if c.Index.ReleaseAPI != "" {
		if err := perrors.ValidateURL(c.Index.ReleaseAPI); err != nil {
			return err
		}
	}
	if c.Resolve.MaxRounds < 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "max_rounds must not be negative")
	}

	switch c.Cache.Backend {
	case BackendMemory, BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return perrors.New(perrors.ErrCodeInvalidConfig, "redis cache needs redis_addr")
		}
	default:
		return perrors.New(perrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}

	seen := make(map[string]bool, len(c.Environments))
	for i, env := range c.Environments {
		if env.Name == "" {
			return perrors.New(perrors.ErrCodeInvalidConfig, "environment %d has no name", i)
		}
		if seen[env.Name] {
			return perrors.New(perrors.ErrCodeInvalidConfig, "duplicate environment %q", env.Name)
		}
		seen[env.Name] = true
		if len(env.Tags) == 0 && env.Python == "" {
			return perrors.New(perrors.ErrCodeInvalidConfig, "environment %q needs tags or python", env.Name)
		}
	}
	return nil
}

// Load reads and parses a TOML file. The result has defaults applied and
// is validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "read config")
	}
	return Parse(data)
}

// Parse decodes TOML. Unknown keys are rejected so that typos do not
// silently fall back to defaults.
func Parse(data []byte) (Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return Config{}, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, perrors.New(perrors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// EnvironmentNames returns the configured environment names in file order.
func (c Config) EnvironmentNames() []string {
	names := make([]string, len(c.Environments))
	for i, e := range c.Environments {
		names[i] = e.Name
	}
	return names
}
