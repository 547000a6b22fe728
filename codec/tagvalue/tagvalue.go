// Package tagvalue implements the reference wire codec: a self-describing
// tag+value encoding built on encoding/json, the same format the teacher
// repo's StreamSerialization/VertexSerialization types round-trip through
// (loader.serialization.go's MarshalJSON/UnmarshalJSON pair). It needs no
// third-party library because it is reference format for the format
// itself — see DESIGN.md for why this is the one place the fabric keeps
// a stdlib-only implementation.
package tagvalue

import "encoding/json"

// Codec is the zero-value-usable tagvalue.Codec.
type Codec struct{}

// New returns a ready-to-use tagvalue Codec.
func New() *Codec { return &Codec{} }

// Marshal encodes v as JSON.
func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON bytes into out.
func (Codec) Unmarshal(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
