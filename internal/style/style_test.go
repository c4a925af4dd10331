package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foss-geo/tileindex/api"
)

func TestParseBuildersDedupesPreservingOrder(t *testing.T) {
	assert.Equal(t, []string{"terrain", "trees"}, ParseBuilders("terrain, trees, terrain"))
	assert.Nil(t, ParseBuilders(""))
}

func TestStaticProviderFallback(t *testing.T) {
	p := NewStaticProvider("s0", map[api.ElementKind]Declaration{
		api.KindWay: {Include: true, Builders: []string{"roads"}},
	}, Declaration{})

	d, ok := p.Resolve(&api.Element{Kind: api.KindWay}, 5)
	require.True(t, ok)
	assert.Equal(t, []string{"roads"}, d.Builders)

	_, ok = p.Resolve(&api.Element{Kind: api.KindNode}, 5)
	assert.False(t, ok)
}

func TestCacheGetOrParseReturnsSameProviderForSamePath(t *testing.T) {
	c := NewCache()
	calls := 0
	parse := func(path, tag string) (Provider, error) {
		calls++
		return NewStaticProvider(tag, nil, Declaration{}), nil
	}

	p1, err := c.GetOrParse("a.mapcss", parse)
	require.NoError(t, err)
	p2, err := c.GetOrParse("a.mapcss", parse)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, calls)

	p3, err := c.GetOrParse("b.mapcss", parse)
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)
	assert.Equal(t, 2, calls)
}
