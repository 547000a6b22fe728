// Package cbor provides a compact wire codec for the fabric built on
// github.com/fxamacker/cbor/v2, the real ecosystem codec wired in per
// SPEC_FULL.md's domain stack: a production deployment of vessels wants a
// denser encoding than the reference tagvalue/JSON format.
package cbor

import "github.com/fxamacker/cbor/v2"

// Codec adapts fxamacker/cbor's EncMode/DecMode pair to codec.Codec.
type Codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// New returns a Codec configured with canonical CBOR encoding, so two
// peers encoding the same value always produce identical bytes — useful
// for the fabric's round-trip identity tests.
func New() (*Codec, error) {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}

	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}

	return &Codec{enc: enc, dec: dec}, nil
}

// Marshal encodes v as canonical CBOR.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

// Unmarshal decodes CBOR bytes into out.
func (c *Codec) Unmarshal(data []byte, out any) error {
	return c.dec.Unmarshal(data, out)
}
