package cache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/wheelres/pkg/trace"
)

// Mapping names, used in trace events and metrics labels.
const (
	MappingIndex    = "index"
	MappingMetadata = "metadata"
	MappingGraph    = "graph"
)

// Options configures a Cache.
type Options struct {
	Keyer Keyer
	// TTL applied to every write. Zero keeps entries until the store drops them.
	TTL time.Duration
	// DisableGraphs turns off whole-graph caching while keeping the
	// index and metadata mappings.
	DisableGraphs bool
}

// Cache groups the three mappings over one store. Safe for concurrent use;
// one Cache is meant to be shared by every resolution in a process.
type Cache struct {
	store    Store
	keyer    Keyer
	indexes  *Mapping
	metadata *Mapping
	graphs   *Mapping
}

// New creates a cache on store. A nil store means NewMemoryStore().
func New(store Store, opts Options) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	if opts.Keyer == nil {
		opts.Keyer = NewDefaultKeyer()
	}
	c := &Cache{
		store:    store,
		keyer:    opts.Keyer,
		indexes:  newMapping(MappingIndex, store, opts.TTL),
		metadata: newMapping(MappingMetadata, store, opts.TTL),
		graphs:   newMapping(MappingGraph, store, opts.TTL),
	}
	if opts.DisableGraphs {
		c.graphs = newMapping(MappingGraph, NullStore{}, 0)
	}
	return c
}

// NewMemory returns a cache on a fresh MemoryStore.
func NewMemory() *Cache { return New(NewMemoryStore(), Options{}) }

// Indexes returns the project listing mapping.
func (c *Cache) Indexes() *Mapping { return c.indexes }

// Metadata returns the core metadata mapping.
func (c *Cache) Metadata() *Mapping { return c.metadata }

// Graphs returns the resolved graph mapping.
func (c *Cache) Graphs() *Mapping { return c.graphs }

// Keyer returns the keyer used to build keys for the mappings.
func (c *Cache) Keyer() Keyer { return c.keyer }

// Store returns the underlying store.
func (c *Cache) Store() Store { return c.store }

// Clear drops every entry when the store supports it.
func (c *Cache) Clear(ctx context.Context) error {
	if cl, ok := c.store.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}

// Close closes the underlying store.
func (c *Cache) Close() error { return c.store.Close() }

// Mapping is one named key space of a Cache.
type Mapping struct {
	name  string
	store Store
	ttl   time.Duration
	group singleflight.Group
}

func newMapping(name string, store Store, ttl time.Duration) *Mapping {
	return &Mapping{name: name, store: store, ttl: ttl}
}

// Name returns the mapping name.
func (m *Mapping) Name() string { return m.name }

// Get returns the stored value for key.
func (m *Mapping) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return m.store.Get(ctx, m.name+"/"+key)
}

// Put stores data under key. The value is visible to every later Get.
func (m *Mapping) Put(ctx context.Context, key string, data []byte) error {
	return m.store.Set(ctx, m.name+"/"+key, data, m.ttl)
}

// Load returns the value for key, calling fetch on a miss and storing its
// result. Concurrent Loads of the same key share one fetch. Errors from
// fetch are returned to every waiting caller and are not stored.
func (m *Mapping) Load(ctx context.Context, sink trace.Sink, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if sink == nil {
		sink = trace.Nop{}
	}
	if data, ok, err := m.Get(ctx, key); err == nil && ok {
		sink.Emit(ctx, trace.EventCacheHit, trace.Fields{"mapping": m.name, "key": key})
		return data, nil
	}
	sink.Emit(ctx, trace.EventCacheMiss, trace.Fields{"mapping": m.name, "key": key})

	for {
		ch := m.group.DoChan(key, func() (any, error) {
			// Another caller may have stored the value between our miss and now.
			if data, ok, err := m.Get(ctx, key); err == nil && ok {
				return data, nil
			}
			data, err := fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil, errLeaderCancelled
				}
				return nil, err
			}
			if err := m.Put(ctx, key, data); err != nil {
				return nil, err
			}
			return data, nil
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Shared {
				sink.Emit(ctx, trace.EventCacheShared, trace.Fields{"mapping": m.name, "key": key})
			}
			if res.Err != nil {
				if errors.Is(res.Err, errLeaderCancelled) {
					if err := ctx.Err(); err != nil {
						return nil, err
					}
					// The leader gave up while we are still live: fetch again.
					m.group.Forget(key)
					continue
				}
				return nil, res.Err
			}
			return res.Val.([]byte), nil
		}
	}
}

// errLeaderCancelled marks a shared fetch abandoned because the context of
// the caller running it ended.
var errLeaderCancelled = errors.New("cache: fetch abandoned by cancelled caller")
