// Defines the Component struct that models one inspected part.
// Tracks the inspection window and the time the part entered a workstation buffer.

package sim

import "fmt"

// ComponentKind identifies one of the three component types.
type ComponentKind int

const (
	C1 ComponentKind = iota + 1
	C2
	C3
)

func (k ComponentKind) String() string {
	switch k {
	case C1:
		return "C1"
	case C2:
		return "C2"
	case C3:
		return "C3"
	}
	return fmt.Sprintf("ComponentKind(%d)", int(k))
}

// ComponentState is the lifecycle state of a Component.
type ComponentState string

const (
	StateUnstarted  ComponentState = "unstarted"
	StateInspecting ComponentState = "inspecting"
	StateFinished   ComponentState = "finished"
	StateEnqueued   ComponentState = "enqueued"
)

// allowedTransitions lists the only legal next state for each state.
var allowedTransitions = map[ComponentState]ComponentState{
	StateUnstarted:  StateInspecting,
	StateInspecting: StateFinished,
	StateFinished:   StateEnqueued,
}

// Component is a unit of work with a fixed inspection duration.
// Lifecycle: unstarted → inspecting → finished → enqueued.
// Each timestamp is set exactly once by the matching transition.
type Component struct {
	Kind     ComponentKind
	Duration Duration

	state           ComponentState
	inspectionStart TimeStamp
	inspectionEnd   TimeStamp
	enqueueTime     TimeStamp
}

// NewComponent returns an unstarted component of the given kind.
func NewComponent(kind ComponentKind, d Duration) *Component {
	return &Component{Kind: kind, Duration: d, state: StateUnstarted}
}

// State returns the current lifecycle state.
func (c *Component) State() ComponentState { return c.state }

// IsFinished reports whether inspection has completed (finished or enqueued).
func (c *Component) IsFinished() bool {
	return c.state == StateFinished || c.state == StateEnqueued
}

func (c *Component) transition(to ComponentState) {
	if allowedTransitions[c.state] != to {
		violate(c.Kind.String(), "illegal transition %s -> %s", c.state, to)
	}
	c.state = to
}

// StartInspection stamps the inspection start time.
func (c *Component) StartInspection(now TimeStamp) {
	c.transition(StateInspecting)
	c.inspectionStart = now
}

// FinishInspection stamps the inspection end time. now must equal
// start + duration within tolerance.
func (c *Component) FinishInspection(now TimeStamp) {
	if expected := c.inspectionStart.Add(c.Duration); !sameInstant(expected, now) {
		violate(c.Kind.String(), "inspection finished at %v, expected %v", now, expected)
	}
	c.transition(StateFinished)
	c.inspectionEnd = now
}

// MarkEnqueued stamps the time the component entered a workstation buffer.
func (c *Component) MarkEnqueued(now TimeStamp) {
	c.transition(StateEnqueued)
	c.enqueueTime = now
}

// InspectionStart returns the inspection start time. Panics if unstarted.
func (c *Component) InspectionStart() TimeStamp {
	if c.state == StateUnstarted {
		violate(c.Kind.String(), "inspection start requested on unstarted component")
	}
	return c.inspectionStart
}

// InspectionEnd returns the inspection end time. Panics if unfinished.
func (c *Component) InspectionEnd() TimeStamp {
	if !c.IsFinished() {
		violate(c.Kind.String(), "inspection end requested on unfinished component")
	}
	return c.inspectionEnd
}

// EnqueueTime returns the buffer entry time. Panics if never enqueued.
func (c *Component) EnqueueTime() TimeStamp {
	if c.state != StateEnqueued {
		violate(c.Kind.String(), "enqueue time requested on component in state %s", c.state)
	}
	return c.enqueueTime
}

func (c *Component) String() string {
	return fmt.Sprintf("%s(%s, %v)", c.Kind, c.state, c.Duration)
}
