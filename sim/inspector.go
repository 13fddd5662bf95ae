package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Role selects an inspector's behaviour. The set of roles is closed.
type Role int

const (
	// Role1 inspects C1 and routes it to WS1, WS2 or WS3.
	Role1 Role = iota + 1
	// Role2 inspects C2 (for WS2) and C3 (for WS3), one at a time.
	Role2
)

func (r Role) String() string {
	switch r {
	case Role1:
		return "Inspector1"
	case Role2:
		return "Inspector2"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// BlockedInterval is one span during which an inspector could neither
// inspect nor place anything. Closed is false while the span is still open.
type BlockedInterval struct {
	Start  TimeStamp
	End    TimeStamp
	Closed bool
}

// PlacementOutcome reports the result of TryPlaceHeldComponent.
type PlacementOutcome struct {
	Placed bool
	// Event is the WorkstationStarted notification to broadcast, if the
	// placement made an idle workstation assemblable.
	Event *FacilityEvent
}

// lane is an inspector's state for one component kind: at most one held
// component, the remaining inspection durations, and legal target stations.
type lane struct {
	kind     ComponentKind
	supply   *DurationSupply
	held     *Component
	rejected bool // held is finished and its last placement attempt was rejected
	targets  []WorkstationID

	inspected int
	placed    int
}

// Inspector is an actor inspecting components and placing them into
// workstation buffers. Workstations are shared and referenced by ID
// through the facility registry.
type Inspector struct {
	role     Role
	lanes    []*lane
	stations []*Workstation // facility registry, indexed by WorkstationID.index()
	policy   DispatchPolicy
	rng      RandomSource

	active  *lane // lane whose component is under inspection
	blocked bool

	inspectionStarts []TimeStamp
	blockedIntervals []BlockedInterval
	log              logrus.FieldLogger
}

// NewInspector1 creates the Role1 inspector feeding C1 into all three workstations.
func NewInspector1(c1 *DurationSupply, stations []*Workstation, policy DispatchPolicy, log logrus.FieldLogger) *Inspector {
	if policy == "" {
		policy = LeastLoaded
	}
	if !IsValidDispatchPolicy(string(policy)) {
		panic(fmt.Sprintf("NewInspector1: unknown dispatch policy %q", policy))
	}
	return newInspector(Role1, stations, policy, nil, log,
		&lane{kind: C1, supply: c1, targets: []WorkstationID{WS1, WS2, WS3}})
}

// NewInspector2 creates the Role2 inspector feeding C2 into WS2 and C3 into WS3.
// rng drives the random choice between kinds.
func NewInspector2(c2, c3 *DurationSupply, stations []*Workstation, rng RandomSource, log logrus.FieldLogger) *Inspector {
	if rng == nil {
		panic("NewInspector2: rng must not be nil")
	}
	return newInspector(Role2, stations, "", rng, log,
		&lane{kind: C2, supply: c2, targets: []WorkstationID{WS2}},
		&lane{kind: C3, supply: c3, targets: []WorkstationID{WS3}})
}

func newInspector(role Role, stations []*Workstation, policy DispatchPolicy, rng RandomSource,
	log logrus.FieldLogger, lanes ...*lane) *Inspector {
	if len(stations) != len(AllWorkstations) {
		panic(fmt.Sprintf("%s: need %d workstations, got %d", role, len(AllWorkstations), len(stations)))
	}
	if log == nil {
		log = nopLogger()
	}
	return &Inspector{
		role:     role,
		lanes:    lanes,
		stations: stations,
		policy:   policy,
		rng:      rng,
		log:      log.WithField("actor", role.String()),
	}
}

// Role returns the inspector's role.
func (i *Inspector) Role() Role { return i.role }

func (i *Inspector) String() string {
	held := make([]string, 0, len(i.lanes))
	for _, l := range i.lanes {
		if l.held != nil {
			held = append(held, l.held.String())
		}
	}
	return fmt.Sprintf("%s blocked=%t holding=%v", i.role, i.blocked, held)
}

func (i *Inspector) laneFor(kind ComponentKind) *lane {
	for _, l := range i.lanes {
		if l.kind == kind {
			return l
		}
	}
	return nil
}

func (i *Inspector) station(id WorkstationID) *Workstation { return i.stations[id.index()] }

// Kinds returns the component kinds this inspector produces.
func (i *Inspector) Kinds() []ComponentKind {
	kinds := make([]ComponentKind, len(i.lanes))
	for idx, l := range i.lanes {
		kinds[idx] = l.kind
	}
	return kinds
}

// Blocked reports whether the inspector is stalled: nothing under
// inspection and unable to begin anything while work remains. For Role2
// this is not the per-kind property "holds a finished component its
// target rejected"; use BlockedOn for that.
func (i *Inspector) Blocked() bool { return i.blocked }

// BlockedOn reports whether the inspector holds a finished component of
// kind that its target rejected and that has not been placed since.
func (i *Inspector) BlockedOn(kind ComponentKind) bool {
	l := i.laneFor(kind)
	return l != nil && l.held != nil && l.rejected
}

// Held returns the component of kind currently held, or nil.
func (i *Inspector) Held(kind ComponentKind) *Component {
	if l := i.laneFor(kind); l != nil {
		return l.held
	}
	return nil
}

// Inspecting returns the component under inspection, or nil.
func (i *Inspector) Inspecting() *Component {
	if i.active == nil {
		return nil
	}
	return i.active.held
}

// Inspected returns how many components of kind were started.
func (i *Inspector) Inspected(kind ComponentKind) int {
	if l := i.laneFor(kind); l != nil {
		return l.inspected
	}
	return 0
}

// Placed returns how many components of kind were accepted by a workstation.
func (i *Inspector) Placed(kind ComponentKind) int {
	if l := i.laneFor(kind); l != nil {
		return l.placed
	}
	return 0
}

// InspectionStarts returns the start time of every inspection, in order.
func (i *Inspector) InspectionStarts() []TimeStamp {
	return append([]TimeStamp(nil), i.inspectionStarts...)
}

// BlockedIntervals returns the blocked spans, in order. The last one may be open.
func (i *Inspector) BlockedIntervals() []BlockedInterval {
	return append([]BlockedInterval(nil), i.blockedIntervals...)
}

// BeginNextInspection picks the next kind, pulls its duration, and starts
// inspecting. Returns nil when nothing can be inspected now.
func (i *Inspector) BeginNextInspection(now TimeStamp) *Component {
	if i.active != nil {
		violate(i.role.String(), "begin inspection while %s is still under inspection", i.active.kind)
	}
	kind, ok := i.decideNextKind()
	if !ok {
		return nil
	}
	l := i.laneFor(kind)
	if l.held != nil {
		violate(i.role.String(), "begin %s inspection while already holding one", kind)
	}
	d, ok := l.supply.Pop()
	if !ok {
		violate(i.role.String(), "chose %s with an exhausted duration supply", kind)
	}
	c := NewComponent(kind, d)
	c.StartInspection(now)
	l.held = c
	l.rejected = false
	l.inspected++
	i.active = l
	i.inspectionStarts = append(i.inspectionStarts, now)
	i.log.Debugf("[%v] inspecting %s until %v", now, kind, now.Add(d))
	return c
}

// FinishCurrentInspection stamps the end of the inspection in progress.
func (i *Inspector) FinishCurrentInspection(now TimeStamp) {
	if i.active == nil {
		violate(i.role.String(), "finish inspection at %v with nothing under inspection", now)
	}
	i.active.held.FinishInspection(now)
	i.active = nil
}

// TryPlaceHeldComponent offers every held finished component to its target
// and stops at the first acceptance. Afterwards the inspector begins its
// next inspection if it is idle, or becomes blocked if it cannot.
func (i *Inspector) TryPlaceHeldComponent(now TimeStamp) PlacementOutcome {
	var out PlacementOutcome
	for _, l := range i.lanes {
		if l.held == nil || !l.held.IsFinished() {
			continue
		}
		if placed, ev := i.tryPlace(l, now); placed {
			out = PlacementOutcome{Placed: true, Event: ev}
			break
		}
	}
	i.resume(now)
	return out
}

// OnDownstreamFreed reacts to a product assembled anywhere in the facility.
// Lanes holding a rejected component of a freed kind retry placement, and a
// blocked inspector re-evaluates whether it can inspect again.
func (i *Inspector) OnDownstreamFreed(p Product, now TimeStamp) *FacilityEvent {
	var ev *FacilityEvent
	freed := false
	for _, l := range i.lanes {
		if !p.Kind().Frees(l.kind) {
			continue
		}
		freed = true
		if l.held != nil && l.rejected {
			if placed, e := i.tryPlace(l, now); placed {
				ev = e
			}
		}
	}
	if freed {
		i.resume(now)
	}
	return ev
}

// tryPlace enqueues the lane's held component at the chosen target.
func (i *Inspector) tryPlace(l *lane, now TimeStamp) (bool, *FacilityEvent) {
	ws := i.station(i.chooseTarget(l))
	res := ws.Enqueue(l.held, now)
	if !res.Accepted {
		if !l.rejected {
			i.log.Debugf("[%v] %s rejected by %s", now, l.kind, ws.ID())
		}
		l.rejected = true
		return false, nil
	}
	l.held = nil
	l.rejected = false
	l.placed++
	if !res.WasRunning && ws.CanAssemble() {
		ev := workstationStarted(ws.ID(), now)
		return true, &ev
	}
	return true, nil
}

// resume begins a new inspection when idle and refreshes the blocked state.
func (i *Inspector) resume(now TimeStamp) {
	if i.active == nil {
		i.BeginNextInspection(now)
	}
	i.setBlocked(now, i.active == nil && i.hasPendingWork())
}

func (i *Inspector) hasPendingWork() bool {
	for _, l := range i.lanes {
		if l.held != nil || l.supply.Len() > 0 {
			return true
		}
	}
	return false
}

func (i *Inspector) setBlocked(now TimeStamp, blocked bool) {
	if blocked == i.blocked {
		return
	}
	i.blocked = blocked
	if blocked {
		i.blockedIntervals = append(i.blockedIntervals, BlockedInterval{Start: now})
		i.log.Debugf("[%v] blocked", now)
		return
	}
	last := &i.blockedIntervals[len(i.blockedIntervals)-1]
	last.End = now
	last.Closed = true
	i.log.Debugf("[%v] unblocked after %v", now, now.Sub(last.Start))
}

// === actor ===

func (i *Inspector) name() string { return i.role.String() }

// NextEventTime returns when the inspection in progress finishes.
// A blocked or idle inspector has no pending event.
func (i *Inspector) NextEventTime(_ TimeStamp) (TimeStamp, bool) {
	if i.active == nil {
		return 0, false
	}
	c := i.active.held
	return c.InspectionStart().Add(c.Duration), true
}

func (i *Inspector) fire(now TimeStamp) *FacilityEvent {
	if i.active == nil {
		violate(i.role.String(), "dispatched at %v while blocked", now)
	}
	i.FinishCurrentInspection(now)
	return i.TryPlaceHeldComponent(now).Event
}

func (i *Inspector) respondTo(ev FacilityEvent, now TimeStamp) *FacilityEvent {
	switch ev.Kind {
	case EventSimulationStarted:
		i.resume(now)
	case EventAssembled:
		return i.OnDownstreamFreed(*ev.Product, now)
	}
	return nil
}
