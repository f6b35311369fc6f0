package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/strategy"
)

const sample = `
[index]
base = "https://mirror.example.com/simple"
release_api = "https://mirror.example.com/pypi"

[index.headers]
Authorization = "Bearer token"

[resolve]
fast_fail = true
concurrency = 4

[cache]
backend = "memory"
ttl = "2h"

[policy]
yanked = "allow"
prerelease = "disallow"

[[environment]]
name = "linux"
python = "3.11"
sys_platform = "linux"
machine = "x86_64"
platforms = ["manylinux_2_17_x86_64", "linux_x86_64"]

[[environment]]
name = "pure"
tags = ["py3-none-any"]
markers = { python_version = "3.10", sys_platform = "darwin" }
policy = { prerelease = "allow" }

[[strategy]]
strategy = "release_json"
criticality = "disabled"
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Index.Base != "https://mirror.example.com/simple" {
		t.Errorf("Index.Base = %q", c.Index.Base)
	}
	if c.Index.Headers["Authorization"] != "Bearer token" {
		t.Errorf("Index.Headers = %v", c.Index.Headers)
	}
	if !c.Resolve.FastFail || c.Resolve.Concurrency != 4 {
		t.Errorf("Resolve = %+v, want fast_fail and concurrency 4", c.Resolve)
	}
	if c.Cache.TTL != 2*time.Hour {
		t.Errorf("Cache.TTL = %v, want 2h", c.Cache.TTL)
	}
	if got := c.EnvironmentNames(); len(got) != 2 || got[0] != "linux" || got[1] != "pure" {
		t.Errorf("EnvironmentNames() = %v, want [linux pure]", got)
	}
	if len(c.Strategies) != 1 || c.Strategies[0].Criticality != "disabled" {
		t.Errorf("Strategies = %+v", c.Strategies)
	}

	opts := c.Options()
	if opts.IndexBase != c.Index.Base || !opts.FastFail || opts.Concurrency != 4 {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"Syntax", "[index"},
		{"UnknownKey", "[index]\nbsae = \"https://x\"\n"},
		{"BadBase", "[index]\nbase = \"ftp://x\"\n"},
		{"UnknownBackend", "[cache]\nbackend = \"mongo\"\n"},
		{"RedisWithoutAddr", "[cache]\nbackend = \"redis\"\n"},
		{"NegativeRounds", "[resolve]\nmax_rounds = -1\n"},
		{"UnnamedEnvironment", "[[environment]]\npython = \"3.11\"\n"},
		{"DuplicateEnvironment", "[[environment]]\nname = \"a\"\npython = \"3.11\"\n[[environment]]\nname = \"a\"\npython = \"3.12\"\n"},
		{"EmptyEnvironment", "[[environment]]\nname = \"a\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want %s (%v)", perrors.GetCode(err), perrors.ErrCodeInvalidConfig, err)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	c := Defaults()
	if c.Index.Base != DefaultIndexBase {
		t.Errorf("Index.Base = %q, want %q", c.Index.Base, DefaultIndexBase)
	}
	if c.Cache.Backend != BackendMemory {
		t.Errorf("Cache.Backend = %q, want %q", c.Cache.Backend, BackendMemory)
	}
	if c.Resolve.Concurrency != DefaultConcurrency {
		t.Errorf("Resolve.Concurrency = %d, want %d", c.Resolve.Concurrency, DefaultConcurrency)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	env, err := c.Environment("")
	if err != nil {
		t.Fatal(err)
	}
	if env.ID() != DefaultEnvironment {
		t.Errorf("env.ID() = %q, want %q", env.ID(), DefaultEnvironment)
	}
	if got := env.Markers()["python_version"]; got != "3.12" {
		t.Errorf("python_version = %q, want 3.12", got)
	}
}

func TestWithDefaultsKeepsValues(t *testing.T) {
	c := Config{
		Index:   IndexConfig{Base: "https://example.com/simple"},
		Resolve: ResolveConfig{Concurrency: 2},
		Cache:   CacheConfig{Backend: BackendRedis, RedisAddr: "localhost:6379"},
	}.WithDefaults()
	if c.Index.Base != "https://example.com/simple" || c.Resolve.Concurrency != 2 {
		t.Errorf("WithDefaults overwrote values: %+v", c)
	}
	if c.Cache.Prefix != DefaultRedisPrefix {
		t.Errorf("Cache.Prefix = %q, want %q", c.Cache.Prefix, DefaultRedisPrefix)
	}
}

func TestEnvironment(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	linux, err := c.Environment("linux")
	if err != nil {
		t.Fatal(err)
	}
	if linux.Markers()["sys_platform"] != "linux" {
		t.Errorf("linux sys_platform = %q", linux.Markers()["sys_platform"])
	}
	if tags := linux.Tags(); len(tags) == 0 || tags[0].String() != "cp311-cp311-manylinux_2_17_x86_64" {
		t.Errorf("linux first tag = %v, want cp311-cp311-manylinux_2_17_x86_64", tags)
	}
	if got := linux.Policy(); got.Yanked != model.YankedAllow || got.PreRelease != model.PreReleaseDisallow {
		t.Errorf("linux policy = %+v", got)
	}

	pure, err := c.Environment("pure")
	if err != nil {
		t.Fatal(err)
	}
	if tags := pure.Tags(); len(tags) != 1 || tags[0].String() != "py3-none-any" {
		t.Errorf("pure tags = %v", tags)
	}
	if got := pure.Policy(); got.Yanked != model.YankedAllow || got.PreRelease != model.PreReleaseAllow {
		t.Errorf("pure policy = %+v, want yanked allow and prerelease allow", got)
	}

	if _, err := c.Environment("windows"); !perrors.Is(err, perrors.ErrCodeInvalidEnvironment) {
		t.Errorf("Environment(windows) = %v, want %s", err, perrors.ErrCodeInvalidEnvironment)
	}

	all, err := c.BuildEnvironments()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("BuildEnvironments() = %d environments, want 2", len(all))
	}
}

func TestPlanStrategies(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	set, err := c.PlanStrategies()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(set.Fingerprint(), strategy.NameReleaseJSON) {
		t.Errorf("Fingerprint() = %q, release_json should be disabled", set.Fingerprint())
	}
}

func TestOpenCache(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  CacheConfig
	}{
		{"Memory", CacheConfig{Backend: BackendMemory}},
		{"None", CacheConfig{Backend: BackendNone}},
		{"File", CacheConfig{Backend: BackendFile, Dir: t.TempDir()}},
		{"Redis", CacheConfig{Backend: BackendRedis, RedisAddr: mr.Addr(), Prefix: "test:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{Cache: tt.cfg}.WithDefaults()
			store, err := c.OpenCache(context.Background())
			if err != nil {
				t.Fatalf("OpenCache: %v", err)
			}
			defer store.Close()
			if err := store.Indexes().Put(context.Background(), "k", []byte("v")); err != nil {
				t.Errorf("Put: %v", err)
			}
		})
	}
}

func TestOpenCachePrefix(t *testing.T) {
	tests := []struct {
		name string
		cfg  CacheConfig
		want string
	}{
		{"File", CacheConfig{Backend: BackendFile, Dir: t.TempDir(), Prefix: "mirror-a:"}, "mirror-a:index:https://i:x"},
		{"FileNoPrefix", CacheConfig{Backend: BackendFile, Dir: t.TempDir()}, "index:https://i:x"},
		{"Memory", CacheConfig{Backend: BackendMemory, Prefix: "mirror-a:"}, "mirror-a:index:https://i:x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Config{Cache: tt.cfg}.WithDefaults().OpenCache(context.Background())
			if err != nil {
				t.Fatalf("OpenCache: %v", err)
			}
			defer store.Close()
			if got := store.Keyer().IndexKey("https://i", "x"); got != tt.want {
				t.Errorf("IndexKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenCacheFilePrefixSeparatesEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	open := func(prefix string) (key string, data []byte, hit bool) {
		store, err := Config{Cache: CacheConfig{Backend: BackendFile, Dir: dir, Prefix: prefix}}.WithDefaults().OpenCache(ctx)
		if err != nil {
			t.Fatalf("OpenCache: %v", err)
		}
		defer store.Close()
		key = store.Keyer().IndexKey("https://i", "x")
		data, hit, _ = store.Indexes().Get(ctx, key)
		if !hit {
			_ = store.Indexes().Put(ctx, key, []byte(prefix))
		}
		return key, data, hit
	}

	open("a:")
	keyB, _, hit := open("b:")
	if hit {
		t.Errorf("prefix b: saw the entry stored under a: (key %s)", keyB)
	}
	if _, data, hit := open("a:"); !hit || string(data) != "a:" {
		t.Errorf("prefix a: Get = %q, %v, want a:, true", data, hit)
	}
}

func TestOpenCacheRedisUnreachable(t *testing.T) {
	c := Config{Cache: CacheConfig{Backend: BackendRedis, RedisAddr: "127.0.0.1:1"}}.WithDefaults()
	if _, err := c.OpenCache(context.Background()); !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
		t.Errorf("OpenCache() = %v, want %s", err, perrors.ErrCodeInvalidConfig)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Environments) != 2 {
		t.Errorf("len(Environments) = %d, want 2", len(c.Environments))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) = %v, want %s", err, perrors.ErrCodeInvalidConfig)
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg", "wheelres"); dir != want {
		t.Errorf("DefaultCacheDir() = %q, want %q", dir, want)
	}
}

func TestNewEngine(t *testing.T) {
	engine, store, err := Defaults().NewEngine(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if engine.Cache() != store {
		t.Error("engine does not use the opened cache")
	}
}
