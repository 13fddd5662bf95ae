package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// WorkstationID identifies one of the three workstations. Values are 1-based.
type WorkstationID int

const (
	WS1 WorkstationID = iota + 1 // assembles P1 from C1
	WS2                          // assembles P2 from C1 + C2
	WS3                          // assembles P3 from C1 + C3
)

// AllWorkstations lists the workstations in registration order.
var AllWorkstations = []WorkstationID{WS1, WS2, WS3}

func (id WorkstationID) String() string { return fmt.Sprintf("WS%d", int(id)) }

// index returns the 0-based registry slot of the workstation.
func (id WorkstationID) index() int { return int(id) - 1 }

// requiredKinds returns the buffer kinds of the workstation, C1 first.
func (id WorkstationID) requiredKinds() []ComponentKind {
	switch id {
	case WS1:
		return []ComponentKind{C1}
	case WS2:
		return []ComponentKind{C1, C2}
	case WS3:
		return []ComponentKind{C1, C3}
	}
	panic(fmt.Sprintf("unknown workstation %d", int(id)))
}

// BufferCapacity is the number of slots per component kind in a workstation.
const BufferCapacity = 2

// buffer holds at most BufferCapacity components of one kind.
// slots[1] occupied implies slots[0] occupied.
type buffer struct {
	kind  ComponentKind
	slots [BufferCapacity]*Component
}

func (b *buffer) count() int {
	n := 0
	for _, c := range b.slots {
		if c != nil {
			n++
		}
	}
	return n
}

func (b *buffer) full() bool { return b.slots[BufferCapacity-1] != nil }

// put stores c in the first free slot. Returns false when full.
func (b *buffer) put(c *Component) bool {
	if b.full() {
		return false
	}
	if b.slots[0] == nil {
		b.slots[0] = c
	} else {
		b.slots[1] = c
	}
	return true
}

// take removes one component, preferring the slot filled second.
func (b *buffer) take() *Component {
	for i := BufferCapacity - 1; i >= 0; i-- {
		if c := b.slots[i]; c != nil {
			b.slots[i] = nil
			return c
		}
	}
	return nil
}

// assemblyJob is the assembly currently in flight.
type assemblyJob struct {
	start    TimeStamp
	duration Duration
}

func (j assemblyJob) end() TimeStamp { return j.start.Add(j.duration) }

// EnqueueResult reports the outcome of Workstation.Enqueue.
// Rejected (Accepted == false) is an expected domain outcome, not an error.
type EnqueueResult struct {
	Accepted bool
	// WasRunning reports whether an assembly was already in flight when the
	// component was accepted.
	WasRunning bool
}

// BufferSnapshot records the buffer occupancy of a workstation after a change.
type BufferSnapshot struct {
	Time   TimeStamp
	Counts []int // per buffer, in requiredKinds order
	Busy   bool  // an assembly is in flight
}

// Workstation owns one 2-slot buffer per required component kind and
// assembles products one at a time.
// State machine: idle ⇄ running.
type Workstation struct {
	id        WorkstationID
	buffers   []*buffer
	durations *DurationSupply
	running   *assemblyJob
	products  []Product
	snapshots []BufferSnapshot
	log       logrus.FieldLogger
}

// NewWorkstation creates an idle workstation with empty buffers.
func NewWorkstation(id WorkstationID, durations *DurationSupply, log logrus.FieldLogger) *Workstation {
	if log == nil {
		log = nopLogger()
	}
	ws := &Workstation{
		id:        id,
		durations: durations,
		log:       log.WithField("actor", id.String()),
	}
	for _, k := range id.requiredKinds() {
		ws.buffers = append(ws.buffers, &buffer{kind: k})
	}
	ws.snapshot(Start())
	return ws
}

// ID returns the workstation identifier.
func (ws *Workstation) ID() WorkstationID { return ws.id }

func (ws *Workstation) String() string {
	counts := make([]string, len(ws.buffers))
	for i, b := range ws.buffers {
		counts[i] = fmt.Sprintf("%s:%d", b.kind, b.count())
	}
	return fmt.Sprintf("%s %v running=%t", ws.id, counts, ws.running != nil)
}

func (ws *Workstation) bufferFor(kind ComponentKind) *buffer {
	for _, b := range ws.buffers {
		if b.kind == kind {
			return b
		}
	}
	return nil
}

// Accepts reports whether the workstation has a buffer for kind.
func (ws *Workstation) Accepts(kind ComponentKind) bool { return ws.bufferFor(kind) != nil }

// WaitingCount returns how many components of kind are buffered.
func (ws *Workstation) WaitingCount(kind ComponentKind) int {
	if b := ws.bufferFor(kind); b != nil {
		return b.count()
	}
	return 0
}

// IsFull reports whether the buffer for kind has both slots occupied.
func (ws *Workstation) IsFull(kind ComponentKind) bool {
	if b := ws.bufferFor(kind); b != nil {
		return b.full()
	}
	return false
}

// IsRunning reports whether an assembly is in flight.
func (ws *Workstation) IsRunning() bool { return ws.running != nil }

// CanAssemble reports whether every required buffer holds at least one component.
func (ws *Workstation) CanAssemble() bool {
	for _, b := range ws.buffers {
		if b.count() == 0 {
			return false
		}
	}
	return true
}

// Enqueue places a finished component into its buffer. Rejected iff the
// buffer's second slot is already occupied.
func (ws *Workstation) Enqueue(c *Component, now TimeStamp) EnqueueResult {
	b := ws.bufferFor(c.Kind)
	if b == nil {
		violate(ws.id.String(), "no buffer for %s", c.Kind)
	}
	if !c.IsFinished() {
		violate(ws.id.String(), "enqueue of %s before inspection finished", c.Kind)
	}
	if b.full() {
		return EnqueueResult{Accepted: false, WasRunning: ws.running != nil}
	}
	c.MarkEnqueued(now)
	b.put(c)
	ws.snapshot(now)
	ws.log.Debugf("[%v] enqueued %s (%d waiting)", now, c.Kind, b.count())
	return EnqueueResult{Accepted: true, WasRunning: ws.running != nil}
}

// StartAssembly starts the next assembly job at now.
func (ws *Workstation) StartAssembly(now TimeStamp) {
	if ws.running != nil {
		violate(ws.id.String(), "started while already assembling since %v", ws.running.start)
	}
	if !ws.CanAssemble() {
		violate(ws.id.String(), "started without material in every buffer")
	}
	d, ok := ws.durations.Pop()
	if !ok {
		violate(ws.id.String(), "assembly duration supply exhausted at %v", now)
	}
	ws.running = &assemblyJob{start: now, duration: d}
	ws.snapshot(now)
	ws.log.Debugf("[%v] assembly started, done at %v", now, ws.running.end())
}

// OnTimerFires completes the running assembly at now, restarts immediately
// if material remains, and returns the Assembled event.
func (ws *Workstation) OnTimerFires(now TimeStamp) FacilityEvent {
	if ws.running == nil {
		violate(ws.id.String(), "timer fired at %v with no assembly running", now)
	}
	if end := ws.running.end(); !sameInstant(end, now) {
		violate(ws.id.String(), "timer fired at %v, assembly ends at %v", now, end)
	}
	if !ws.CanAssemble() {
		violate(ws.id.String(), "assembly completing without material")
	}

	c1 := ws.buffers[0].take()
	var other *Component
	if len(ws.buffers) > 1 {
		other = ws.buffers[1].take()
	}
	p := NewProduct(now, c1, other)
	ws.products = append(ws.products, p)
	ws.running = nil
	ws.log.Debugf("[%v] assembled %s", now, p.Kind())

	if ws.CanAssemble() {
		ws.StartAssembly(now)
	} else {
		ws.snapshot(now)
	}
	return assembled(ws.id, p)
}

// NextEventTime returns when the running assembly completes.
func (ws *Workstation) NextEventTime(_ TimeStamp) (TimeStamp, bool) {
	if ws.running == nil {
		return 0, false
	}
	return ws.running.end(), true
}

// Products returns the products assembled so far, in order.
func (ws *Workstation) Products() []Product {
	return append([]Product(nil), ws.products...)
}

// Snapshots returns the buffer-state log, one entry per change.
func (ws *Workstation) Snapshots() []BufferSnapshot {
	return append([]BufferSnapshot(nil), ws.snapshots...)
}

// BufferKinds returns the kinds buffered by this workstation, C1 first.
func (ws *Workstation) BufferKinds() []ComponentKind { return ws.id.requiredKinds() }

func (ws *Workstation) snapshot(now TimeStamp) {
	counts := make([]int, len(ws.buffers))
	for i, b := range ws.buffers {
		counts[i] = b.count()
	}
	ws.snapshots = append(ws.snapshots, BufferSnapshot{Time: now, Counts: counts, Busy: ws.running != nil})
}

// === actor ===

func (ws *Workstation) name() string { return ws.id.String() }

func (ws *Workstation) fire(now TimeStamp) *FacilityEvent {
	ev := ws.OnTimerFires(now)
	return &ev
}

func (ws *Workstation) respondTo(ev FacilityEvent, now TimeStamp) *FacilityEvent {
	if ev.Kind != EventWorkstationStarted || ev.Workstation != ws.id {
		return nil
	}
	if ws.running != nil {
		// Two placements in the same step can both observe an idle workstation.
		ws.log.Debugf("[%v] duplicate start notification ignored", now)
		return nil
	}
	ws.StartAssembly(now)
	return nil
}
