// Package player describes the embedded video player the study engine drives.
package player

import "context"

// State is a playback state transition pushed by the player.
type State string

const (
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateBuffering State = "buffering"
	StateErrored   State = "error"
)

// Player is the capability surface of an external video player.
type Player interface {
	CurrentTime(ctx context.Context) (float64, error)
	Seek(ctx context.Context, to float64, allowSeekAhead bool) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SetPlaybackRate(ctx context.Context, rate float64) error

	// TimeUpdates pushes the current position while playing.
	TimeUpdates() <-chan float64
	// StateChanges pushes playback state transitions.
	StateChanges() <-chan State
}
