package sim

// InspectorLog is the per-inspector output of a run.
type InspectorLog struct {
	InspectionStarts []TimeStamp
	BlockedIntervals []BlockedInterval
	Inspected        map[ComponentKind]int
	Placed           map[ComponentKind]int
	Holding          map[ComponentKind]bool // a component of the kind was still held at the end
}

// Result is everything a finished replication reports.
type Result struct {
	Elapsed     Duration
	Steps       int
	Products    map[WorkstationID][]Product
	Snapshots   map[WorkstationID][]BufferSnapshot
	BufferKinds map[WorkstationID][]ComponentKind
	Inspectors  map[Role]InspectorLog
}

// ProductCount returns the number of products assembled at ws.
func (r *Result) ProductCount(ws WorkstationID) int { return len(r.Products[ws]) }

// TotalProducts returns the number of products assembled facility-wide.
func (r *Result) TotalProducts() int {
	n := 0
	for _, ps := range r.Products {
		n += len(ps)
	}
	return n
}

// LastProductTime returns the timestamp of the last product assembled at
// ws. Returns false if ws assembled nothing.
func (r *Result) LastProductTime(ws WorkstationID) (TimeStamp, bool) {
	ps := r.Products[ws]
	if len(ps) == 0 {
		return 0, false
	}
	return ps[len(ps)-1].Timestamp(), true
}

// BufferedAtEnd returns how many components of kind sat in ws's buffer
// when the run ended.
func (r *Result) BufferedAtEnd(ws WorkstationID, kind ComponentKind) int {
	snaps := r.Snapshots[ws]
	if len(snaps) == 0 {
		return 0
	}
	for i, k := range r.BufferKinds[ws] {
		if k == kind {
			return snaps[len(snaps)-1].Counts[i]
		}
	}
	return 0
}
