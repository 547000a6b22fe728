package idchannel

import (
	"github.com/sirupsen/logrus"

	"github.com/vesselfabric/vessels/codec"
	"github.com/vesselfabric/vessels/codec/tagvalue"
	"github.com/vesselfabric/vessels/executor"
	"github.com/vesselfabric/vessels/registry"
	"github.com/vesselfabric/vessels/vlog"
)

// Options configures a Channel. The zero value is not meant to be used
// directly; call DefaultOptions and override fields, mirroring the
// teacher repo's Option-with-merge convention (options.go) rather than a
// long constructor argument list.
type Options struct {
	// BufferSize is the inbound queue depth given to the Channel's root
	// Endpoint. Child forks created by Fork or GetFork do not use it; they
	// always get a queue of defaultForkBuffer (16).
	BufferSize int

	// MuxBufferSize is the depth of the Channel's internal outgoing
	// queue, the one place the fabric applies configurable back-pressure
	// before a slow Transport's own back-pressure takes over.
	MuxBufferSize int

	// MaxForks caps the number of live forks a Channel will allocate via
	// Fork or accept via GetFork. Zero means unlimited.
	MaxForks int

	Codec    codec.Codec
	Registry *registry.Registry
	Executor executor.Executor
	Logger   *logrus.Logger
}

// DefaultOptions returns an Options populated with the fabric's
// defaults: a 16-deep root-fork buffer, a 64-deep outgoing queue, the
// tag/value JSON codec, the process-wide registry, a goroutine-per-task
// executor, and logrus's standard logger.
func DefaultOptions() Options {
	return Options{
		BufferSize:    16,
		MuxBufferSize: 64,
		Codec:         tagvalue.New(),
		Registry:      registry.Global,
		Executor:      executor.Goroutine{},
		Logger:        vlog.Default(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BufferSize == 0 {
		o.BufferSize = d.BufferSize
	}
	if o.MuxBufferSize == 0 {
		o.MuxBufferSize = d.MuxBufferSize
	}
	if o.Codec == nil {
		o.Codec = d.Codec
	}
	if o.Registry == nil {
		o.Registry = d.Registry
	}
	if o.Executor == nil {
		o.Executor = d.Executor
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}
