package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.4", -1},
		{"1.10.0", "1.9.0", 1},
		{"1.2", "1.2.0", -1},
		{"1.2.0", "1.2", 1},
		{"1.0.0-alpha", "1.0.0-beta", -1},
		{"1.0.0-alpha", "1.0.0", 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Compare(c.a, c.b), "Compare(%q, %q)", c.a, c.b)
	}
}

func TestSatisfiesConstraint(t *testing.T) {
	assert.True(t, SatisfiesConstraint("1.2.3", ">=1.2.0"))
	assert.True(t, SatisfiesConstraint("1.2.3", "1.2.3"))
	assert.False(t, SatisfiesConstraint("1.2.3", "<1.2.0"))
	assert.False(t, SatisfiesConstraint("1.2.3", "!=1.2.3"))
	assert.True(t, SatisfiesConstraint("1.2.3", "!=1.2.4"))
}

func TestSatisfiesAll(t *testing.T) {
	assert.True(t, SatisfiesAll("1.5.0", []string{">=1.0.0", "<2.0.0"}))
	assert.False(t, SatisfiesAll("1.5.0", []string{">=1.0.0", "<1.5.0"}))
	assert.True(t, SatisfiesAll("1.5.0", nil))
}
