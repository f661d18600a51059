package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muonlang/mbi/internal/obj"
)

type fakePkgConfig struct {
	versions map[string]string
}

func (f *fakePkgConfig) Query(name string, static bool) (string, []string, []string, bool) {
	v, ok := f.versions[name]
	if !ok {
		return "", nil, nil, false
	}
	return v, []string{"-I/usr/include/" + name}, []string{"-l" + name}, true
}

func TestResolveBuiltin(t *testing.T) {
	r := New(&fakePkgConfig{})
	dep, err := r.Resolve(Request{Names: []string{"threads"}}, nil, false, nil)
	require.NoError(t, err)
	require.NotNil(t, dep)
	assert.Equal(t, obj.DepThreads, dep.Type)
	assert.Contains(t, dep.LinkArgs, "-pthread")
}

func TestResolvePkgConfigAndCache(t *testing.T) {
	pc := &fakePkgConfig{versions: map[string]string{"zlib": "1.2.11"}}
	r := New(pc)
	req := Request{Names: []string{"zlib"}, Constraints: []string{">=1.2.0"}}

	dep, err := r.Resolve(req, nil, false, nil)
	require.NoError(t, err)
	require.NotNil(t, dep)
	assert.Equal(t, obj.DepPkgconf, dep.Type)

	key := CacheKey{Name: "zlib"}
	cached, ok := r.Cache.Get(key)
	require.True(t, ok)
	assert.Same(t, dep, cached)
}

func TestResolveVersionMismatchFallsThrough(t *testing.T) {
	pc := &fakePkgConfig{versions: map[string]string{"zlib": "1.0.0"}}
	r := New(pc)
	req := Request{Names: []string{"zlib"}, Constraints: []string{">=1.2.0"}}

	dep, err := r.Resolve(req, nil, false, nil)
	require.NoError(t, err)
	assert.Nil(t, dep, "a version that fails its constraint must not resolve")
}

func TestResolveOverrideWins(t *testing.T) {
	r := New(&fakePkgConfig{versions: map[string]string{"zlib": "1.2.11"}})
	override := &obj.Dependency{Name: "zlib", Type: obj.DepInternal, Found: true, Version: "9.9.9"}
	lookup := func(name string, static bool) (*obj.Dependency, bool) {
		if name == "zlib" {
			return override, true
		}
		return nil, false
	}

	dep, err := r.Resolve(Request{Names: []string{"zlib"}}, lookup, false, nil)
	require.NoError(t, err)
	assert.Same(t, override, dep)
}

func TestResolveFallback(t *testing.T) {
	r := New(&fakePkgConfig{})
	fallbackDep := &obj.Dependency{Name: "cjson", Type: obj.DepInternal, Found: true, Version: "1.0"}
	fallback := func(name string, req Request) (*obj.Dependency, bool, error) {
		return fallbackDep, true, nil
	}

	dep, err := r.Resolve(Request{Names: []string{"cjson"}}, nil, false, fallback)
	require.NoError(t, err)
	assert.Same(t, fallbackDep, dep)
}

func TestResolveNotFound(t *testing.T) {
	r := New(&fakePkgConfig{})
	dep, err := r.Resolve(Request{Names: []string{"nonexistent"}}, nil, false, nil)
	require.NoError(t, err)
	assert.Nil(t, dep)
}
