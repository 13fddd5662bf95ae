package sim

import "sort"

// DispatchPolicy selects the workstation Inspector1 places C1 into.
type DispatchPolicy string

const (
	// LeastLoaded picks the workstation with the fewest waiting C1.
	// Ties are broken by workstation order (WS1, WS2, WS3).
	LeastLoaded DispatchPolicy = "least-loaded"
	// MostLoaded picks the non-full workstation with the most waiting C1,
	// filling one station before spreading to the next. Ties are broken by
	// workstation order. When every buffer is full it targets WS1.
	MostLoaded DispatchPolicy = "most-loaded"
)

// validDispatchPolicies maps policy names to validity. Unexported to prevent mutation.
var validDispatchPolicies = map[string]bool{
	string(LeastLoaded): true,
	string(MostLoaded):  true,
}

// IsValidDispatchPolicy returns true if name is a recognized dispatch policy.
func IsValidDispatchPolicy(name string) bool { return validDispatchPolicies[name] }

// ValidDispatchPolicyNames returns the sorted dispatch policy names.
func ValidDispatchPolicyNames() []string {
	names := make([]string, 0, len(validDispatchPolicies))
	for name := range validDispatchPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decideNextKind returns the kind to inspect next. A kind whose lane still
// holds a component is never chosen.
func (i *Inspector) decideNextKind() (ComponentKind, bool) {
	switch i.role {
	case Role1:
		l := i.lanes[0]
		return l.kind, l.held == nil && l.supply.Len() > 0
	case Role2:
		return i.decideRole2()
	}
	violate(i.role.String(), "unknown role")
	return 0, false
}

// decideRole2 applies, in order:
//  1. only one kind has supply left: that kind, if its lane is free;
//  2. exactly one target buffer is full: the other kind, if its lane is free;
//  3. both target buffers are full: nothing;
//  4. otherwise a fair coin between the free lanes.
func (i *Inspector) decideRole2() (ComponentKind, bool) {
	c2, c3 := i.lanes[0], i.lanes[1]
	has2, has3 := c2.supply.Len() > 0, c3.supply.Len() > 0
	free2, free3 := c2.held == nil, c3.held == nil

	switch {
	case !has2 && !has3:
		return 0, false
	case has2 && !has3:
		return C2, free2
	case has3 && !has2:
		return C3, free3
	}

	full2 := i.station(c2.targets[0]).IsFull(C2)
	full3 := i.station(c3.targets[0]).IsFull(C3)
	switch {
	case full2 && full3:
		return 0, false
	case full2 && free3:
		return C3, true
	case full3 && free2:
		return C2, true
	}

	switch {
	case free2 && free3:
		if i.rng.Bool() {
			return C3, true
		}
		return C2, true
	case free2:
		return C2, true
	case free3:
		return C3, true
	}
	return 0, false
}

// chooseTarget returns the workstation the lane's held component goes to.
func (i *Inspector) chooseTarget(l *lane) WorkstationID {
	if len(l.targets) == 1 {
		return l.targets[0]
	}
	switch i.policy {
	case MostLoaded:
		return i.mostLoaded(l)
	default:
		return i.leastLoaded(l)
	}
}

func (i *Inspector) leastLoaded(l *lane) WorkstationID {
	target := l.targets[0]
	minLoad := i.station(target).WaitingCount(l.kind)
	for _, id := range l.targets[1:] {
		if load := i.station(id).WaitingCount(l.kind); load < minLoad {
			minLoad = load
			target = id
		}
	}
	return target
}

func (i *Inspector) mostLoaded(l *lane) WorkstationID {
	target := l.targets[0]
	maxLoad := -1
	for _, id := range l.targets {
		ws := i.station(id)
		if ws.IsFull(l.kind) {
			continue
		}
		if load := ws.WaitingCount(l.kind); load > maxLoad {
			maxLoad = load
			target = id
		}
	}
	return target
}
