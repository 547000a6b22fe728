// Package codec defines the pluggable wire encoding the fabric uses to
// turn typed payloads into the bytes carried by a Transport, per spec §6:
// "Payload encoding is pluggable ... any format agreed by both peers is
// admissible."
package codec

// Codec marshals and unmarshals Go values to and from the bytes carried
// on the wire. Both peers of a Channel must agree on a Codec.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, out any) error
}

// Envelope is the on-wire frame shape: a fork handle and the still-encoded
// payload bytes for whatever type that fork's Context says is expected.
// The Envelope itself is always marshaled with the Channel's Codec, same
// as every other payload, so a single Codec round-trips the whole wire
// protocol.
type Envelope struct {
	Handle  uint32 `json:"h" yaml:"h" cbor:"1,keyasint"`
	Payload []byte `json:"p" yaml:"p" cbor:"2,keyasint"`
}
