package trace

// TraceLevel controls the verbosity of dispatch tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSteps captures one record per dispatch step.
	TraceLevelSteps TraceLevel = "steps"
	// TraceLevelEvents captures dispatch steps and every broadcast event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelSteps:  true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects dispatch records during a facility run.
type SimulationTrace struct {
	Config     TraceConfig
	Steps      []StepRecord
	Broadcasts []BroadcastRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Steps:      make([]StepRecord, 0),
		Broadcasts: make([]BroadcastRecord, 0),
	}
}

// RecordsSteps reports whether step records are kept at this level.
func (st *SimulationTrace) RecordsSteps() bool {
	return st != nil && (st.Config.Level == TraceLevelSteps || st.Config.Level == TraceLevelEvents)
}

// RecordsBroadcasts reports whether broadcast records are kept at this level.
func (st *SimulationTrace) RecordsBroadcasts() bool {
	return st != nil && st.Config.Level == TraceLevelEvents
}

// RecordStep appends a dispatch step record.
func (st *SimulationTrace) RecordStep(record StepRecord) {
	if !st.RecordsSteps() {
		return
	}
	st.Steps = append(st.Steps, record)
}

// RecordBroadcast appends a broadcast record.
func (st *SimulationTrace) RecordBroadcast(record BroadcastRecord) {
	if !st.RecordsBroadcasts() {
		return
	}
	st.Broadcasts = append(st.Broadcasts, record)
}
