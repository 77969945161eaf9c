package domain

import "github.com/jonboulle/clockwork"

// clock stamps GeneratedAt on every dashboard. Tests and the render CLI
// freeze it via SetClock so output is reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by Build. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
