package idchannel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselfabric/vessels/codec"
	"github.com/vesselfabric/vessels/fork"
	"github.com/vesselfabric/vessels/idchannel"
	"github.com/vesselfabric/vessels/kind/derived"
	"github.com/vesselfabric/vessels/kind/errkind"
	"github.com/vesselfabric/vessels/kind/future"
	"github.com/vesselfabric/vessels/kind/iterator"
	"github.com/vesselfabric/vessels/kind/option"
	"github.com/vesselfabric/vessels/kind/primitive"
	"github.com/vesselfabric/vessels/kind/sink"
	"github.com/vesselfabric/vessels/kind/tuple"
	"github.com/vesselfabric/vessels/transport/local"
)

func init() {
	primitive.Register[int]()
	primitive.Register[string]()
}

func TestPrimitiveRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	chA, err := idchannel.NewWith[primitive.Primitive[string], string, string](ctx, a, opts, primitive.Primitive[string]{Value: "hello"})
	require.NoError(t, err)
	defer chA.Close()

	got, chB, err := idchannel.Complete[primitive.Primitive[string], string, string](ctx, b, opts, primitive.Construct[string])
	require.NoError(t, err)
	defer chB.Close()

	assert.Equal(t, "hello", got.Value)
}

func TestOptionSomeRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	prim := primitive.Primitive[int]{Value: 7}
	opt := option.Option[primitive.Primitive[int], int, int]{Value: &prim}

	chA, err := idchannel.NewWith[option.Option[primitive.Primitive[int], int, int], option.VOption, option.VOption](ctx, a, opts, opt)
	require.NoError(t, err)
	defer chA.Close()

	construct := func(ctx context.Context, ep *fork.Endpoint[option.VOption, option.VOption]) (option.Option[primitive.Primitive[int], int, int], error) {
		return option.Construct[primitive.Primitive[int], int, int](ctx, ep, primitive.Construct[int])
	}

	got, chB, err := idchannel.Complete[option.Option[primitive.Primitive[int], int, int], option.VOption, option.VOption](ctx, b, opts, construct)
	require.NoError(t, err)
	defer chB.Close()

	require.NotNil(t, got.Value)
	assert.Equal(t, 7, got.Value.Value)
}

func TestOptionNoneRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	opt := option.Option[primitive.Primitive[int], int, int]{Value: nil}

	chA, err := idchannel.NewWith[option.Option[primitive.Primitive[int], int, int], option.VOption, option.VOption](ctx, a, opts, opt)
	require.NoError(t, err)
	defer chA.Close()

	construct := func(ctx context.Context, ep *fork.Endpoint[option.VOption, option.VOption]) (option.Option[primitive.Primitive[int], int, int], error) {
		return option.Construct[primitive.Primitive[int], int, int](ctx, ep, primitive.Construct[int])
	}

	got, chB, err := idchannel.Complete[option.Option[primitive.Primitive[int], int, int], option.VOption, option.VOption](ctx, b, opts, construct)
	require.NoError(t, err)
	defer chB.Close()

	assert.Nil(t, got.Value)
}

func TestIteratorRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	items := iterator.Iterator[primitive.Primitive[int], int, int]{
		Items: []primitive.Primitive[int]{{Value: 1}, {Value: 2}, {Value: 3}},
	}

	chA, err := idchannel.NewWith[iterator.Iterator[primitive.Primitive[int], int, int], []fork.Handle, []fork.Handle](ctx, a, opts, items)
	require.NoError(t, err)
	defer chA.Close()

	construct := func(ctx context.Context, ep *fork.Endpoint[[]fork.Handle, []fork.Handle]) (iterator.Iterator[primitive.Primitive[int], int, int], error) {
		return iterator.Construct[primitive.Primitive[int], int, int](ctx, ep, primitive.Construct[int])
	}

	got, chB, err := idchannel.Complete[iterator.Iterator[primitive.Primitive[int], int, int], []fork.Handle, []fork.Handle](ctx, b, opts, construct)
	require.NoError(t, err)
	defer chB.Close()

	require.Len(t, got.Items, 3)
	assert.Equal(t, 1, got.Items[0].Value)
	assert.Equal(t, 2, got.Items[1].Value)
	assert.Equal(t, 3, got.Items[2].Value)
}

func TestErrorKindRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	wrapped := errkind.ErrorKind{Err: errors.New("boom")}

	chA, err := idchannel.NewWith[errkind.ErrorKind, fork.Handle, fork.Handle](ctx, a, opts, wrapped)
	require.NoError(t, err)
	defer chA.Close()

	got, chB, err := idchannel.Complete[errkind.ErrorKind, fork.Handle, fork.Handle](ctx, b, opts, errkind.Construct)
	require.NoError(t, err)
	defer chB.Close()

	require.Error(t, got.Err)
	assert.Equal(t, "boom", got.Err.Error())
}

func TestTuple2RoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	pair := tuple.Tuple2[primitive.Primitive[int], int, int, primitive.Primitive[string], string, string]{
		First:  primitive.Primitive[int]{Value: 5},
		Second: primitive.Primitive[string]{Value: "five"},
	}

	chA, err := idchannel.NewWith[
		tuple.Tuple2[primitive.Primitive[int], int, int, primitive.Primitive[string], string, string],
		[2]fork.Handle, [2]fork.Handle,
	](ctx, a, opts, pair)
	require.NoError(t, err)
	defer chA.Close()

	construct := func(ctx context.Context, ep *fork.Endpoint[[2]fork.Handle, [2]fork.Handle]) (tuple.Tuple2[primitive.Primitive[int], int, int, primitive.Primitive[string], string, string], error) {
		return tuple.Construct2[primitive.Primitive[int], int, int, primitive.Primitive[string], string, string](ctx, ep, primitive.Construct[int], primitive.Construct[string])
	}

	got, chB, err := idchannel.Complete[
		tuple.Tuple2[primitive.Primitive[int], int, int, primitive.Primitive[string], string, string],
		[2]fork.Handle, [2]fork.Handle,
	](ctx, b, opts, construct)
	require.NoError(t, err)
	defer chB.Close()

	assert.Equal(t, 5, got.First.Value)
	assert.Equal(t, "five", got.Second.Value)
}

func TestFutureRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	f := future.Future[primitive.Primitive[int], int, int]{
		Resolve: func(context.Context) (primitive.Primitive[int], error) {
			return primitive.Primitive[int]{Value: 42}, nil
		},
	}

	chA, err := idchannel.NewWith[future.Future[primitive.Primitive[int], int, int], future.Frame, future.Frame](ctx, a, opts, f)
	require.NoError(t, err)
	defer chA.Close()

	construct := func(ctx context.Context, ep *fork.Endpoint[future.Frame, future.Frame]) (future.Future[primitive.Primitive[int], int, int], error) {
		return future.Construct[primitive.Primitive[int], int, int](ctx, ep, primitive.Construct[int])
	}

	got, chB, err := idchannel.Complete[future.Future[primitive.Primitive[int], int, int], future.Frame, future.Frame](ctx, b, opts, construct)
	require.NoError(t, err)
	defer chB.Close()

	value, err := got.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, value.Value)
}

func TestFutureRoundTripPropagatesResolveError(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	f := future.Future[primitive.Primitive[int], int, int]{
		Resolve: func(context.Context) (primitive.Primitive[int], error) {
			return primitive.Primitive[int]{}, errors.New("resolve failed")
		},
	}

	chA, err := idchannel.NewWith[future.Future[primitive.Primitive[int], int, int], future.Frame, future.Frame](ctx, a, opts, f)
	require.NoError(t, err)
	defer chA.Close()

	construct := func(ctx context.Context, ep *fork.Endpoint[future.Frame, future.Frame]) (future.Future[primitive.Primitive[int], int, int], error) {
		return future.Construct[primitive.Primitive[int], int, int](ctx, ep, primitive.Construct[int])
	}

	_, chB, err := idchannel.Complete[future.Future[primitive.Primitive[int], int, int], future.Frame, future.Frame](ctx, b, opts, construct)
	require.Error(t, err)
	assert.Equal(t, "resolve failed", err.Error())
	chB.Close()
}

func TestSinkRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	items := make(chan primitive.Primitive[int], 2)
	items <- primitive.Primitive[int]{Value: 1}
	items <- primitive.Primitive[int]{Value: 2}
	close(items)

	stream := sink.Sink[primitive.Primitive[int], int, int]{Items: items}

	chA, err := idchannel.NewWith[sink.Sink[primitive.Primitive[int], int, int], sink.Frame, sink.Frame](ctx, a, opts, stream)
	require.NoError(t, err)
	defer chA.Close()

	construct := func(ctx context.Context, ep *fork.Endpoint[sink.Frame, sink.Frame]) (sink.Sink[primitive.Primitive[int], int, int], error) {
		return sink.Construct[primitive.Primitive[int], int, int](ctx, ep, primitive.Construct[int])
	}

	got, chB, err := idchannel.Complete[sink.Sink[primitive.Primitive[int], int, int], sink.Frame, sink.Frame](ctx, b, opts, construct)
	require.NoError(t, err)
	defer chB.Close()

	var received []int
	for v := range got.Items {
		received = append(received, v.Value)
	}
	assert.Equal(t, []int{1, 2}, received)
}

type derivedFixture struct {
	Count derived.Field
	Name  derived.Field
}

func TestDerivedRoundTrip(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	fixture := derivedFixture{
		Count: derived.Box[primitive.Primitive[int], int, int](primitive.Primitive[int]{Value: 9}),
		Name:  derived.Box[primitive.Primitive[string], string, string](primitive.Primitive[string]{Value: "gizmo"}),
	}

	chA, err := idchannel.NewWith[derived.Derived, map[string]fork.Handle, map[string]fork.Handle](ctx, a, opts, derived.Derived{Value: fixture})
	require.NoError(t, err)
	defer chA.Close()

	construct := func(ctx context.Context, ep *fork.Endpoint[map[string]fork.Handle, map[string]fork.Handle]) (map[string]any, error) {
		return derived.Construct(ctx, ep, map[string]derived.FieldConstructor{
			"Count": derived.ConstructField[primitive.Primitive[int], int, int](primitive.Construct[int]),
			"Name":  derived.ConstructField[primitive.Primitive[string], string, string](primitive.Construct[string]),
		})
	}

	got, chB, err := idchannel.Complete[map[string]any, map[string]fork.Handle, map[string]fork.Handle](ctx, b, opts, construct)
	require.NoError(t, err)
	defer chB.Close()

	require.IsType(t, primitive.Primitive[int]{}, got["Count"])
	assert.Equal(t, 9, got["Count"].(primitive.Primitive[int]).Value)
	require.IsType(t, primitive.Primitive[string]{}, got["Name"])
	assert.Equal(t, "gizmo", got["Name"].(primitive.Primitive[string]).Value)
}

func TestForkRejectsBeyondMaxForks(t *testing.T) {
	a, b := local.NewPair()
	defer b.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()
	opts.MaxForks = 1

	chA, err := idchannel.NewWith[primitive.Primitive[string], string, string](ctx, a, opts, primitive.Primitive[string]{Value: "root"})
	require.NoError(t, err)
	defer chA.Close()

	_, err = idchannel.Fork[primitive.Primitive[int], int, int](ctx, chA, primitive.Primitive[int]{Value: 1})
	require.Error(t, err)

	var quotaErr *idchannel.MaxForksExceeded
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 1, quotaErr.Max)
}

func TestChannelFlushAndCloseAreIndependent(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	chA, err := idchannel.NewWith[primitive.Primitive[string], string, string](ctx, a, opts, primitive.Primitive[string]{Value: "x"})
	require.NoError(t, err)

	_, chB, err := idchannel.Complete[primitive.Primitive[string], string, string](ctx, b, opts, primitive.Construct[string])
	require.NoError(t, err)

	require.NoError(t, chA.Flush(ctx))
	require.NoError(t, chA.Close())
	require.NoError(t, chB.Close())

	// Close after Close must not hang or error.
	require.NoError(t, chA.Close())
}

// TestUnknownForkFrameDroppedChannelStaysLive exercises spec.md §8's
// scenario S6: a frame naming a fork id neither side ever allocated is
// dropped, but the Channel keeps routing legitimate frames afterward.
func TestUnknownForkFrameDroppedChannelStaysLive(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	chA, err := idchannel.NewWith[primitive.Primitive[string], string, string](ctx, a, opts, primitive.Primitive[string]{Value: "hello"})
	require.NoError(t, err)
	defer chA.Close()

	got, chB, err := idchannel.Complete[primitive.Primitive[string], string, string](ctx, b, opts, primitive.Construct[string])
	require.NoError(t, err)
	defer chB.Close()
	assert.Equal(t, "hello", got.Value)

	// Inject a frame for a fork id that was never created by either
	// side, directly on the raw transport so it bypasses Publish/Fork
	// entirely.
	junk, err := opts.Codec.Marshal("junk")
	require.NoError(t, err)
	bogus, err := opts.Codec.Marshal(codec.Envelope{Handle: 999, Payload: junk})
	require.NoError(t, err)
	require.NoError(t, a.Send(ctx, bogus))

	// The Channel must still be live: a subsequent, legitimate fork
	// round-trips normally.
	h, err := idchannel.Fork[primitive.Primitive[int], int, int](ctx, chA, primitive.Primitive[int]{Value: 42})
	require.NoError(t, err)

	child, err := idchannel.GetFork[primitive.Primitive[int], int, int](ctx, chB, h, primitive.Construct[int])
	require.NoError(t, err)
	assert.Equal(t, 42, child.Value)
}

// TestForkRoundTripReleasesHandle exercises spec.md §8's "no leaks"
// testable property end to end through a Channel: after a forked value's
// deconstruct completes and its constructing-side Endpoint is released,
// both sides' Context sizes return to their pre-fork baseline.
func TestForkRoundTripReleasesHandle(t *testing.T) {
	a, b := local.NewPair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts := idchannel.DefaultOptions()

	chA, err := idchannel.NewWith[primitive.Primitive[string], string, string](ctx, a, opts, primitive.Primitive[string]{Value: "root"})
	require.NoError(t, err)
	defer chA.Close()

	_, chB, err := idchannel.Complete[primitive.Primitive[string], string, string](ctx, b, opts, primitive.Construct[string])
	require.NoError(t, err)
	defer chB.Close()

	baselineA, baselineB := chA.Context().Len(), chB.Context().Len()

	h, err := idchannel.Fork[primitive.Primitive[int], int, int](ctx, chA, primitive.Primitive[int]{Value: 7})
	require.NoError(t, err)

	got, err := idchannel.GetFork[primitive.Primitive[int], int, int](ctx, chB, h, primitive.Construct[int])
	require.NoError(t, err)
	assert.Equal(t, 7, got.Value)

	// idchannel.Fork's own background deconstruct driver calls
	// Endpoint.Close as soon as Deconstruct completes, releasing the
	// deconstructing side's handle without further action here.
	require.Eventually(t, func() bool {
		return chA.Context().Len() == baselineA
	}, time.Second, 10*time.Millisecond)

	// GetFork hands back only the reconstructed value, not the Endpoint
	// it built internally, so a caller that wants to release the
	// constructing side's handle does what Endpoint.Close would: drop
	// the routing entry and return the handle to the free list.
	chB.Unregister(h)
	chB.Context().Release(h)
	assert.Equal(t, baselineB, chB.Context().Len())
}
