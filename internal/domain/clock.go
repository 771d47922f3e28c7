package domain

import "github.com/jonboulle/clockwork"

// clock stamps artifact manifests. Tests freeze it via SetClock so manifests
// are reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the manifest time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
