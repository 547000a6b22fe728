package idchannel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vesselfabric/vessels/idchannel"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	in := idchannel.Config{BufferSize: 32, MuxBufferSize: 128, MaxForks: 10}

	raw, err := yaml.Marshal(in)
	require.NoError(t, err)

	out, err := idchannel.FromYAML(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConfigApplyToOnlyOverridesNonZeroFields(t *testing.T) {
	opts := idchannel.DefaultOptions()
	cfg := idchannel.Config{MaxForks: 5}

	merged := cfg.ApplyTo(opts)

	assert.Equal(t, opts.BufferSize, merged.BufferSize)
	assert.Equal(t, opts.MuxBufferSize, merged.MuxBufferSize)
	assert.Equal(t, 5, merged.MaxForks)
}
