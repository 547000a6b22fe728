// Package fork implements the fork identifier allocator, the per-channel
// Context, and the Fork Endpoint: the duplex handle that Kind
// implementations use to send and receive items on a single multiplexed
// sub-channel.
package fork

import "fmt"

// Handle is a 32-bit identifier for one live fork within a Context.
// It is opaque to peers and meaningful only within the Context that
// allocated it. Handle zero is reserved for the root fork bound during
// the Target/Shim handshake.
type Handle uint32

// RootHandle is the fork carrying the top-level value of a Channel.
const RootHandle Handle = 0

func (h Handle) String() string {
	return fmt.Sprintf("fork(%d)", uint32(h))
}
