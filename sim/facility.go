package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/facility-sim/facility-sim/sim/trace"
)

// actor is anything the facility schedules: it may own one pending
// completion and reacts to every broadcast event.
type actor interface {
	name() string
	// NextEventTime returns the actor's scheduled completion, if any.
	NextEventTime(now TimeStamp) (TimeStamp, bool)
	// fire handles the actor's own scheduled completion at now.
	fire(now TimeStamp) *FacilityEvent
	// respondTo handles an event emitted by any actor (including itself).
	respondTo(ev FacilityEvent, now TimeStamp) *FacilityEvent
}

// Supplies holds the pre-drawn durations of one replication.
type Supplies struct {
	Assembly   map[WorkstationID][]Duration
	Inspection map[ComponentKind][]Duration
}

// Option configures a Facility.
type Option func(*Facility)

// WithLogger injects the logger used by the facility and its actors.
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Facility) { f.log = log }
}

// WithTrace records every dispatch step (and broadcast, depending on the
// trace level) into st.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(f *Facility) { f.trace = st }
}

// WithDispatchPolicy selects how Inspector1 chooses a workstation.
func WithDispatchPolicy(p DispatchPolicy) Option {
	return func(f *Facility) { f.policy = p }
}

// Facility owns the workstations and inspectors of one replication and
// runs the shared-clock dispatch loop.
type Facility struct {
	workstations []*Workstation
	inspectors   []*Inspector
	actors       []actor // registration order: WS1, WS2, WS3, Inspector1, Inspector2

	clock  TimeStamp
	steps  int
	hasRun bool

	policy DispatchPolicy
	trace  *trace.SimulationTrace
	log    logrus.FieldLogger
}

// NewFacility wires three workstations and two inspectors from supplies.
// rng drives Inspector2's random choices.
func NewFacility(supplies Supplies, rng RandomSource, opts ...Option) *Facility {
	f := &Facility{policy: LeastLoaded}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = nopLogger()
	}

	for _, id := range AllWorkstations {
		ws := NewWorkstation(id, NewDurationSupply(supplies.Assembly[id]), f.log)
		f.workstations = append(f.workstations, ws)
		f.actors = append(f.actors, ws)
	}
	i1 := NewInspector1(NewDurationSupply(supplies.Inspection[C1]), f.workstations, f.policy, f.log)
	i2 := NewInspector2(NewDurationSupply(supplies.Inspection[C2]), NewDurationSupply(supplies.Inspection[C3]),
		f.workstations, rng, f.log)
	f.inspectors = []*Inspector{i1, i2}
	f.actors = append(f.actors, i1, i2)
	return f
}

// Run drives the simulation to completion and returns the elapsed
// simulated time. Panics with *InvariantViolation on a kernel defect.
func (f *Facility) Run() Duration {
	if f.hasRun {
		panic("Facility.Run() called more than once")
	}
	f.hasRun = true

	f.broadcast(simulationStarted(f.clock))

	for {
		next, earliest := f.nextActor()
		if next == -1 {
			break // every actor idle or blocked
		}
		if earliest < f.clock {
			violate("Facility", "clock went backwards: %v -> %v (%s)", f.clock, earliest, f.actors[next].name())
		}
		f.clock = earliest
		f.steps++

		a := f.actors[next]
		ev := a.fire(f.clock)
		f.recordStep(a, ev)
		if ev != nil {
			f.broadcast(*ev)
		}
	}

	f.log.Debugf("[%v] facility drained after %d steps", f.clock, f.steps)
	return f.clock.Sub(Start())
}

// nextActor returns the index of the actor with the earliest pending
// completion and that time, or -1 and clock+Never when every actor is idle.
// Ties: lowest registration index wins because we use strict < and iterate in order.
func (f *Facility) nextActor() (int, TimeStamp) {
	earliest := f.clock.Add(Never)
	next := -1
	for idx, a := range f.actors {
		if t, ok := a.NextEventTime(f.clock); ok && t < earliest {
			earliest = t
			next = idx
		}
	}
	return next, earliest
}

// broadcast delivers ev to every actor in registration order. Events the
// responders emit are queued and delivered, in emission order, before
// the step ends.
func (f *Facility) broadcast(ev FacilityEvent) {
	queue := []FacilityEvent{ev}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		derived := 0
		for _, a := range f.actors {
			if d := a.respondTo(e, f.clock); d != nil {
				queue = append(queue, *d)
				derived++
			}
		}
		f.recordBroadcast(e, derived)
	}
}

func (f *Facility) recordStep(a actor, ev *FacilityEvent) {
	emitted := ""
	if ev != nil {
		emitted = string(ev.Kind)
	}
	f.log.Debugf("[%v] step %d: %s fired %s", f.clock, f.steps, a.name(), emitted)
	f.trace.RecordStep(trace.StepRecord{
		Step:    f.steps,
		Clock:   f.clock.Minutes(),
		Actor:   a.name(),
		Emitted: emitted,
	})
}

func (f *Facility) recordBroadcast(ev FacilityEvent, derived int) {
	ws := ""
	if ev.Workstation != 0 {
		ws = ev.Workstation.String()
	}
	f.trace.RecordBroadcast(trace.BroadcastRecord{
		Step:        f.steps,
		Clock:       f.clock.Minutes(),
		Event:       string(ev.Kind),
		Workstation: ws,
		Derived:     derived,
	})
}

// Steps returns the number of dispatch steps executed.
func (f *Facility) Steps() int { return f.steps }

// Workstation returns the workstation with the given ID.
func (f *Facility) Workstation(id WorkstationID) *Workstation {
	return f.workstations[id.index()]
}

// Inspector returns the inspector with the given role.
func (f *Facility) Inspector(role Role) *Inspector {
	for _, i := range f.inspectors {
		if i.role == role {
			return i
		}
	}
	panic(fmt.Sprintf("Facility.Inspector: unknown role %v", role))
}

// Result collects the run's output. Panics if called before Run().
func (f *Facility) Result() *Result {
	if !f.hasRun {
		panic("Facility.Result() called before Run()")
	}
	res := &Result{
		Elapsed:     f.clock.Sub(Start()),
		Steps:       f.steps,
		Products:    make(map[WorkstationID][]Product, len(f.workstations)),
		Snapshots:   make(map[WorkstationID][]BufferSnapshot, len(f.workstations)),
		BufferKinds: make(map[WorkstationID][]ComponentKind, len(f.workstations)),
		Inspectors:  make(map[Role]InspectorLog, len(f.inspectors)),
	}
	for _, ws := range f.workstations {
		res.Products[ws.id] = ws.Products()
		res.Snapshots[ws.id] = ws.Snapshots()
		res.BufferKinds[ws.id] = ws.BufferKinds()
	}
	for _, i := range f.inspectors {
		log := InspectorLog{
			InspectionStarts: i.InspectionStarts(),
			BlockedIntervals: i.BlockedIntervals(),
			Inspected:        make(map[ComponentKind]int),
			Placed:           make(map[ComponentKind]int),
			Holding:          make(map[ComponentKind]bool),
		}
		for _, k := range i.Kinds() {
			log.Inspected[k] = i.Inspected(k)
			log.Placed[k] = i.Placed(k)
			log.Holding[k] = i.Held(k) != nil
		}
		res.Inspectors[i.role] = log
	}
	return res
}
