package cbor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselfabric/vessels/codec/cbor"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	c, err := cbor.New()
	require.NoError(t, err)

	raw, err := c.Marshal([]int{1, 2, 3})
	require.NoError(t, err)

	var out []int
	require.NoError(t, c.Unmarshal(raw, &out))
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestCanonicalEncodingIsDeterministic(t *testing.T) {
	c, err := cbor.New()
	require.NoError(t, err)

	a, err := c.Marshal(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	b, err := c.Marshal(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
