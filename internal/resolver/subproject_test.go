package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerDetectsCircular(t *testing.T) {
	tr := NewTracker()

	_, circular := tr.Enter("a")
	require.False(t, circular)
	_, circular = tr.Enter("b")
	require.False(t, circular)

	chain, circular := tr.Enter("a")
	require.True(t, circular)
	assert.Equal(t, []string{"a", "b", "a"}, chain)
}

func TestTrackerLeaveUnwinds(t *testing.T) {
	tr := NewTracker()
	tr.Enter("a")
	tr.Leave()

	_, circular := tr.Enter("a")
	assert.False(t, circular, "leaving a subproject must free it for re-entry elsewhere in the tree")
}

func TestParseWrap(t *testing.T) {
	data := []byte(`[wrap-file]
directory = zlib-1.2.11
source_url = https://example.invalid/zlib-1.2.11.tar.gz
source_filename = zlib-1.2.11.tar.gz
source_hash = deadbeef

[provide]
dependency_names = zlib, z
`)
	w, err := ParseWrap(data)
	require.NoError(t, err)
	assert.Equal(t, "zlib-1.2.11", w.Directory)
	assert.Equal(t, "https://example.invalid/zlib-1.2.11.tar.gz", w.SourceURL)
	assert.True(t, w.Provides("zlib"))
	assert.True(t, w.Provides("z"))
	assert.False(t, w.Provides("bz2"))
}
