package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalSteps        int
	TotalBroadcasts   int
	LastClock         float64
	StepsPerActor     map[string]int // actor name → number of steps it fired
	EventDistribution map[string]int // event kind → number of broadcasts
	MaxDerived        int            // largest number of events derived from one broadcast
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		StepsPerActor:     make(map[string]int),
		EventDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalSteps = len(st.Steps)
	for _, s := range st.Steps {
		summary.StepsPerActor[s.Actor]++
		if s.Clock > summary.LastClock {
			summary.LastClock = s.Clock
		}
	}

	summary.TotalBroadcasts = len(st.Broadcasts)
	for _, b := range st.Broadcasts {
		summary.EventDistribution[b.Event]++
		if b.Derived > summary.MaxDerived {
			summary.MaxDerived = b.Derived
		}
	}

	return summary
}
