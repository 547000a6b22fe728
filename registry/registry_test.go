package registry_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselfabric/vessels/codec/tagvalue"
	"github.com/vesselfabric/vessels/registry"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestAddIsIdempotent(t *testing.T) {
	r := registry.New()
	registry.Add[widget](r)
	registry.Add[widget](r)

	assert.True(t, r.Has(reflect.TypeOf(widget{})))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := registry.New()
	registry.Add[widget](r)
	c := tagvalue.New()

	raw, err := r.Encode(c, widget{Name: "gear", Count: 3})
	require.NoError(t, err)

	decoded, err := r.Decode(c, reflect.TypeOf(widget{}), raw)
	require.NoError(t, err)
	assert.Equal(t, widget{Name: "gear", Count: 3}, decoded)
}

func TestDecodeUnregisteredTypeFails(t *testing.T) {
	r := registry.New()
	c := tagvalue.New()

	_, err := r.Decode(c, reflect.TypeOf(widget{}), []byte(`{}`))
	require.Error(t, err)

	var unregistered *registry.ErrUnregistered
	assert.ErrorAs(t, err, &unregistered)
}

func TestEncodeUnregisteredTypeFails(t *testing.T) {
	r := registry.New()
	c := tagvalue.New()

	_, err := r.Encode(c, widget{})
	require.Error(t, err)
}

func TestAddConstructAndAddDeconstructAreIndependent(t *testing.T) {
	r := registry.New()
	c := tagvalue.New()

	registry.AddConstruct[widget](r)

	_, err := r.Decode(c, reflect.TypeOf(widget{}), []byte(`{"name":"gear","count":3}`))
	require.NoError(t, err)

	_, err = r.Encode(c, widget{Name: "gear", Count: 3})
	require.Error(t, err, "AddConstruct alone must not also register an encoder")

	registry.AddDeconstruct[widget](r)

	_, err = r.Encode(c, widget{Name: "gear", Count: 3})
	require.NoError(t, err)
}
