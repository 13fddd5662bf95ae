package sim

import "fmt"

// EventKind names the facility-wide notifications broadcast to every actor.
type EventKind string

const (
	// EventSimulationStarted seeds every inspector at the start of a run.
	EventSimulationStarted EventKind = "simulation-started"
	// EventAssembled is emitted when a workstation finishes a product.
	// Inspectors blocked on the freed component kind retry placement.
	EventAssembled EventKind = "assembled"
	// EventWorkstationStarted asks an idle workstation to start assembling
	// after an inspector made its buffers assemblable.
	EventWorkstationStarted EventKind = "workstation-started"
)

// FacilityEvent is a derived event produced by one actor and broadcast to all.
type FacilityEvent struct {
	Kind        EventKind
	Time        TimeStamp
	Workstation WorkstationID // source of Assembled, target of WorkstationStarted
	Product     *Product      // set for Assembled only
}

func simulationStarted(now TimeStamp) FacilityEvent {
	return FacilityEvent{Kind: EventSimulationStarted, Time: now}
}

func assembled(ws WorkstationID, p Product) FacilityEvent {
	return FacilityEvent{Kind: EventAssembled, Time: p.Timestamp(), Workstation: ws, Product: &p}
}

func workstationStarted(ws WorkstationID, now TimeStamp) FacilityEvent {
	return FacilityEvent{Kind: EventWorkstationStarted, Time: now, Workstation: ws}
}

func (e FacilityEvent) String() string {
	switch e.Kind {
	case EventAssembled:
		return fmt.Sprintf("%s(%s, %v)", e.Kind, e.Workstation, e.Product)
	case EventWorkstationStarted:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Workstation)
	}
	return string(e.Kind)
}
