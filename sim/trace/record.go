// Package trace provides dispatch-trace recording for facility runs.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// StepRecord captures a single dispatch step: the actor whose scheduled
// completion fired and the event it emitted, if any.
type StepRecord struct {
	Step    int
	Clock   float64
	Actor   string
	Emitted string // event kind; empty when the actor emitted nothing
}

// BroadcastRecord captures one event delivered to every actor.
type BroadcastRecord struct {
	Step        int
	Clock       float64
	Event       string
	Workstation string // source or target workstation; empty for SimulationStarted
	Derived     int    // events emitted by responders to this broadcast
}
