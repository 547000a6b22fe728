package fork_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselfabric/vessels/fork"
)

func pairOf[T any]() fork.TypePair {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return fork.TypePair{ConstructType: t, DeconstructType: t}
}

func TestContextCreateIsSequentialWhenNoneReleased(t *testing.T) {
	ctx := fork.NewContext()

	h1 := ctx.Create(pairOf[int]())
	h2 := ctx.Create(pairOf[string]())

	assert.NotEqual(t, h1, h2)
	assert.Equal(t, fork.RootHandle+1, h1)
	assert.Equal(t, fork.RootHandle+2, h2)
}

func TestContextReleaseRecyclesLIFO(t *testing.T) {
	ctx := fork.NewContext()

	h1 := ctx.Create(pairOf[int]())
	h2 := ctx.Create(pairOf[int]())
	ctx.Release(h1)
	ctx.Release(h2)

	h3 := ctx.Create(pairOf[int]())
	assert.Equal(t, h2, h3, "most recently released handle is reused first")

	h4 := ctx.Create(pairOf[int]())
	assert.Equal(t, h1, h4)
}

func TestContextRootHandleIsNeverReleased(t *testing.T) {
	ctx := fork.NewContextFor(pairOf[int]())
	require.Equal(t, 1, ctx.Len())

	ctx.Release(fork.RootHandle)
	assert.Equal(t, 1, ctx.Len(), "releasing the root handle is a no-op")

	_, ok := ctx.Lookup(fork.RootHandle)
	assert.True(t, ok)
}

func TestContextLookupMissing(t *testing.T) {
	ctx := fork.NewContext()
	_, ok := ctx.Lookup(fork.Handle(999))
	assert.False(t, ok)
}

func TestContextLenTracksLiveForks(t *testing.T) {
	ctx := fork.NewContext()
	require.Equal(t, 0, ctx.Len())

	h := ctx.Create(pairOf[int]())
	assert.Equal(t, 1, ctx.Len())

	ctx.Release(h)
	assert.Equal(t, 0, ctx.Len())
}

func TestContextAddRecordsPeerAllocatedHandle(t *testing.T) {
	ctx := fork.NewContext()
	pair := pairOf[string]()

	ctx.Add(fork.Handle(42), pair)

	got, ok := ctx.Lookup(fork.Handle(42))
	require.True(t, ok)
	assert.Equal(t, pair, got)
}
