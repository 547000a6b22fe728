package idchannel

import (
	"fmt"

	"github.com/vesselfabric/vessels/fork"
)

// Stage identifies which aggregate sink operation a ChannelError was
// produced by, per spec §4.4/§7's "Channel(stage, fork-id, cause)".
type Stage string

const (
	StageReady Stage = "ready"
	StageSend  Stage = "send"
	StageFlush Stage = "flush"
	StageClose Stage = "close"
)

// ChannelError wraps a failure encountered by a Channel's mux loop, or
// by Close: a transport error, a codec error, or a registry
// lookup miss, annotated with the Stage it occurred in and the fork
// Handle it affects (zero when the failure isn't fork-specific, e.g. a
// Close-time transport error). It always carries the underlying cause.
// Callers that need to branch on error kind should use errors.As against
// *ChannelError rather than string-matching Error().
type ChannelError struct {
	Stage  Stage
	Handle fork.Handle
	Err    error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("idchannel: %s: fork %s: %v", e.Stage, e.Handle, e.Err)
}
func (e *ChannelError) Unwrap() error { return e.Err }

// InvalidHandle reports that an inbound frame named a fork Handle with no
// recorded type pair, or with a type pair but no live routing entry —
// either the peer is misbehaving or the fork was already closed locally while a frame for it
// was in flight. Per spec §7 this is not fatal to the Channel: the frame
// is dropped, logged, and also pushed onto the Channel's Errors() surface
// for callers that want to observe it.
type InvalidHandle struct {
	Handle fork.Handle
}

func (e *InvalidHandle) Error() string {
	return fmt.Sprintf("idchannel: no live fork for %s", e.Handle)
}

// ErrChannelClosed is returned by Publish and Flush once Close has run.
type ErrChannelClosed struct{}

func (e *ErrChannelClosed) Error() string { return "idchannel: channel closed" }

// MaxForksExceeded is returned by Fork/GetFork when a Channel's
// configured fork quota (Options.MaxForks) would be exceeded.
type MaxForksExceeded struct {
	Max int
}

func (e *MaxForksExceeded) Error() string {
	return fmt.Sprintf("idchannel: fork quota of %d exceeded", e.Max)
}
