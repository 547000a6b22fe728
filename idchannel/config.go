package idchannel

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the serializable subset of Options: buffer sizes and the
// fork quota, which can plausibly arrive from a config file or a loosely
// typed map. Codec, Registry, Executor, and Logger are capabilities
// injected in code, not data, and have no place in Config — mirroring
// the teacher's loader.serialization.go split between typed
// VertexSerialization fields and the runtime Options a builder actually
// wires up.
type Config struct {
	BufferSize    int `json:"bufferSize" yaml:"bufferSize"`
	MuxBufferSize int `json:"muxBufferSize" yaml:"muxBufferSize"`
	MaxForks      int `json:"maxForks" yaml:"maxForks"`
}

// ApplyTo overlays non-zero Config fields onto opts, returning the
// result. It never clears a field opts already had set.
func (c Config) ApplyTo(opts Options) Options {
	if c.BufferSize != 0 {
		opts.BufferSize = c.BufferSize
	}
	if c.MuxBufferSize != 0 {
		opts.MuxBufferSize = c.MuxBufferSize
	}
	if c.MaxForks != 0 {
		opts.MaxForks = c.MaxForks
	}
	return opts
}

// MarshalJSON implementation to marshal json.
func (c Config) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	c.toMap(m)
	return json.Marshal(m)
}

// UnmarshalJSON implementation to unmarshal json.
func (c *Config) UnmarshalJSON(b []byte) error {
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	return c.fromMap(m)
}

// MarshalYAML implementation to marshal yaml.
func (c Config) MarshalYAML() (any, error) {
	m := map[string]any{}
	c.toMap(m)
	return m, nil
}

// UnmarshalYAML implementation to unmarshal yaml.
func (c *Config) UnmarshalYAML(unmarshal func(any) error) error {
	m := map[string]any{}
	if err := unmarshal(&m); err != nil {
		return err
	}
	return c.fromMap(m)
}

func (c Config) toMap(m map[string]any) {
	m["bufferSize"] = c.BufferSize
	m["muxBufferSize"] = c.MuxBufferSize
	m["maxForks"] = c.MaxForks
}

// fromMap decodes a loosely typed map (as produced by yaml.v3 or a
// generic config loader) into c using mapstructure, the same tool the
// teacher's loader.serialization.go uses for its own options decode.
func (c *Config) fromMap(m map[string]any) error {
	if err := mapstructure.Decode(m, c); err != nil {
		return fmt.Errorf("idchannel: decode config: %w", err)
	}
	return nil
}

// FromYAML parses raw YAML bytes into a Config.
func FromYAML(raw []byte) (Config, error) {
	var c Config
	err := yaml.Unmarshal(raw, &c)
	return c, err
}
