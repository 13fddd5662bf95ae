// Implements the DurationSupply, the pre-generated queue of service times
// an actor consumes one value at a time.

package sim

import (
	"fmt"
	"strings"
)

// DurationSupply is a FIFO queue of pre-drawn durations. Each inspection
// or assembly pops exactly one value.
type DurationSupply struct {
	queue []Duration
}

// NewDurationSupply copies ds into a new supply.
func NewDurationSupply(ds []Duration) *DurationSupply {
	return &DurationSupply{queue: append([]Duration(nil), ds...)}
}

// Len returns the number of durations remaining.
func (s *DurationSupply) Len() int {
	return len(s.queue)
}

// Pop removes and returns the next duration.
// Returns false if the supply is exhausted.
func (s *DurationSupply) Pop() (Duration, bool) {
	if len(s.queue) == 0 {
		return None, false
	}
	d := s.queue[0]
	s.queue = s.queue[1:]
	return d, true
}

func (s *DurationSupply) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, d := range s.queue {
		sb.WriteString(fmt.Sprint(d))
		if i < len(s.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
