package events

import "time"

// BuildStart is emitted when a schema build begins.
type BuildStart struct {
	Structures int
	Operations int
}

// BuildFinish is emitted when a schema build ends, successfully or not.
type BuildFinish struct {
	Structures int
	Operations int
	Err        error
	Duration   time.Duration
}
