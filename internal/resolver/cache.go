package resolver

import "github.com/muonlang/mbi/internal/obj"

// CacheKey identifies one prior successful lookup (spec.md section 4.9's
// CheckCache state: "(name, static-mode, machine)").
type CacheKey struct {
	Name    string
	Static  bool
	Machine obj.MachineKind
}

// Cache holds successful dependency lookups for one project, consulted
// before TryMethods runs again for the same key.
type Cache struct {
	entries map[CacheKey]*obj.Dependency
}

func NewCache() *Cache {
	return &Cache{entries: make(map[CacheKey]*obj.Dependency)}
}

func (c *Cache) Get(k CacheKey) (*obj.Dependency, bool) {
	d, ok := c.entries[k]
	return d, ok
}

// Put records a successful resolution. Spec.md section 4.9: "cache
// entries are written only on success paths that are not themselves
// reads from the cache" — callers must not call Put after a Get hit.
func (c *Cache) Put(k CacheKey, d *obj.Dependency) {
	c.entries[k] = d
}
