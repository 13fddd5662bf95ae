// Steady-state statistics of one replication: buffer occupancy, entry rate
// and wait (Little's Law per buffer), workstation utilization, product
// throughput, inspector blocking, and Little's Law for the whole facility.

package sim

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// ErrEmptyWindow is returned when the observation window [warmup, end] is empty.
var ErrEmptyWindow = errors.New("observation window is empty")

// BufferStats holds Little's Law quantities of one workstation buffer.
type BufferStats struct {
	Workstation WorkstationID
	Kind        ComponentKind
	Occupancy   float64 // L: time-average number waiting
	EntryRate   float64 // λ: accepted enqueues per minute
	MeanWait    float64 // W: minutes from enqueue to assembly
}

// Residual returns L − λW.
func (b BufferStats) Residual() float64 { return b.Occupancy - b.EntryRate*b.MeanWait }

// SystemStats holds Little's Law quantities of the whole facility, where a
// component is in the system from inspection start until assembly.
type SystemStats struct {
	Occupancy    float64
	ArrivalRate  float64
	TimeInSystem float64
}

// Residual returns L − λW.
func (s SystemStats) Residual() float64 { return s.Occupancy - s.ArrivalRate*s.TimeInSystem }

// ReplicationStats are the steady-state statistics of one replication,
// observed over [Start, End].
type ReplicationStats struct {
	Start, End   TimeStamp
	Buffers      []BufferStats // WS1/C1, WS2/C1, WS2/C2, WS3/C1, WS3/C3
	BusyRatio    map[WorkstationID]float64
	Throughput   map[ProductKind]float64 // products per minute
	BlockedRatio map[Role]float64
	System       SystemStats
}

// Stat is one named scalar of a replication.
type Stat struct {
	Name  string
	Value float64
	// Controls marks statistics that drive the replication stopping rule.
	Controls bool
}

var productOf = map[WorkstationID]ProductKind{WS1: P1, WS2: P2, WS3: P3}

// ComputeStats derives the steady-state statistics of res over the window
// starting at warmup and ending at the earliest last-product time across
// workstations.
func ComputeStats(res *Result, warmup TimeStamp) (*ReplicationStats, error) {
	end := TimeStamp(math.Inf(1))
	for _, id := range AllWorkstations {
		last, ok := res.LastProductTime(id)
		if !ok {
			return nil, fmt.Errorf("%s assembled no product: %w", id, ErrEmptyWindow)
		}
		end = min(end, last)
	}
	if end <= warmup {
		return nil, fmt.Errorf("window [%v, %v]: %w", warmup, end, ErrEmptyWindow)
	}
	span := float64(end - warmup)

	stats := &ReplicationStats{
		Start:        warmup,
		End:          end,
		BusyRatio:    make(map[WorkstationID]float64),
		Throughput:   make(map[ProductKind]float64),
		BlockedRatio: make(map[Role]float64),
	}

	for _, id := range AllWorkstations {
		snaps := res.Snapshots[id]
		for idx, kind := range res.BufferKinds[id] {
			stats.Buffers = append(stats.Buffers, BufferStats{
				Workstation: id,
				Kind:        kind,
				Occupancy:   integrate(snaps, warmup, end, func(s BufferSnapshot) float64 { return float64(s.Counts[idx]) }) / span,
				EntryRate:   float64(countEntries(snaps, idx, warmup, end)) / span,
				MeanWait:    meanWait(res.Products[id], kind, warmup, end),
			})
		}
		stats.BusyRatio[id] = integrate(snaps, warmup, end, func(s BufferSnapshot) float64 {
			if s.Busy {
				return 1
			}
			return 0
		}) / span
		stats.Throughput[productOf[id]] = float64(countProducts(res.Products[id], warmup, end)) / span
	}

	for _, role := range []Role{Role1, Role2} {
		stats.BlockedRatio[role] = blockedTime(res.Inspectors[role].BlockedIntervals, warmup, end) / span
	}
	stats.System = systemStats(res, warmup, end)
	return stats, nil
}

// WeightedThroughput returns (P1 + 2·P2 + 2·P3)/3 products per minute.
func (s *ReplicationStats) WeightedThroughput() float64 {
	return (s.Throughput[P1] + 2*s.Throughput[P2] + 2*s.Throughput[P3]) / 3
}

// Values flattens the statistics in a fixed order.
func (s *ReplicationStats) Values() []Stat {
	var out []Stat
	for _, b := range s.Buffers {
		out = append(out, Stat{Name: fmt.Sprintf("occupancy %s/%s", b.Workstation, b.Kind), Value: b.Occupancy, Controls: true})
	}
	for _, id := range AllWorkstations {
		out = append(out, Stat{Name: fmt.Sprintf("busy %s", id), Value: s.BusyRatio[id], Controls: true})
	}
	for _, k := range []ProductKind{P1, P2, P3} {
		out = append(out, Stat{Name: fmt.Sprintf("throughput %s", k), Value: s.Throughput[k], Controls: true})
	}
	for _, r := range []Role{Role1, Role2} {
		out = append(out, Stat{Name: fmt.Sprintf("blocked %s", r), Value: s.BlockedRatio[r], Controls: true})
	}
	out = append(out, Stat{Name: "occupancy system", Value: s.System.Occupancy, Controls: true})
	for _, b := range s.Buffers {
		out = append(out, Stat{Name: fmt.Sprintf("little residual %s/%s", b.Workstation, b.Kind), Value: b.Residual()})
	}
	out = append(out, Stat{Name: "little residual system", Value: s.System.Residual()})
	return out
}

// Print writes a human-readable report of the statistics to w.
func (s *ReplicationStats) Print(w io.Writer) {
	fmt.Fprintf(w, "=== Replication Statistics [%v, %v] ===\n", s.Start, s.End)
	fmt.Fprintln(w, "Buffers (L, λ, W, L-λW):")
	for _, b := range s.Buffers {
		fmt.Fprintf(w, "  %s %s : %.4f  %.5f  %.4f  %+.6f\n",
			b.Workstation, b.Kind, b.Occupancy, b.EntryRate, b.MeanWait, b.Residual())
	}
	for _, id := range AllWorkstations {
		fmt.Fprintf(w, "Busy %s             : %.4f\n", id, s.BusyRatio[id])
	}
	for _, k := range []ProductKind{P1, P2, P3} {
		fmt.Fprintf(w, "Throughput %s       : %.5f /min\n", k, s.Throughput[k])
	}
	fmt.Fprintf(w, "Weighted throughput : %.5f /min\n", s.WeightedThroughput())
	for _, r := range []Role{Role1, Role2} {
		fmt.Fprintf(w, "Blocked %-11s : %.4f\n", r, s.BlockedRatio[r])
	}
	fmt.Fprintf(w, "System (L, λ, W, L-λW): %.4f  %.5f  %.4f  %+.6f\n",
		s.System.Occupancy, s.System.ArrivalRate, s.System.TimeInSystem, s.System.Residual())
}

// integrate returns the integral over [from, to] of the step function
// defined by the snapshot log and value.
func integrate(snaps []BufferSnapshot, from, to TimeStamp, value func(BufferSnapshot) float64) float64 {
	total := 0.0
	for k, s := range snaps {
		segEnd := to
		if k+1 < len(snaps) {
			segEnd = snaps[k+1].Time
		}
		lo, hi := max(s.Time, from), min(segEnd, to)
		if hi > lo {
			total += value(s) * float64(hi-lo)
		}
	}
	return total
}

// countEntries counts accepted enqueues into buffer idx during (from, to].
func countEntries(snaps []BufferSnapshot, idx int, from, to TimeStamp) int {
	n := 0
	for k := 1; k < len(snaps); k++ {
		s := snaps[k]
		if s.Time > from && s.Time <= to && s.Counts[idx] > snaps[k-1].Counts[idx] {
			n++
		}
	}
	return n
}

// meanWait averages buffer waits of kind over products assembled in
// (from, to] whose constituent entered the buffer at or after from.
func meanWait(products []Product, kind ComponentKind, from, to TimeStamp) float64 {
	total, n := 0.0, 0
	for _, p := range products {
		if p.Timestamp() <= from || p.Timestamp() > to {
			continue
		}
		for _, c := range p.Components() {
			if c.Kind == kind && c.EnqueueTime() >= from {
				total += float64(p.Timestamp().Sub(c.EnqueueTime()))
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func countProducts(products []Product, from, to TimeStamp) int {
	n := 0
	for _, p := range products {
		if p.Timestamp() > from && p.Timestamp() <= to {
			n++
		}
	}
	return n
}

// blockedTime sums the overlap of the intervals with [from, to]. Open
// intervals extend to to.
func blockedTime(intervals []BlockedInterval, from, to TimeStamp) float64 {
	total := 0.0
	for _, iv := range intervals {
		end := to
		if iv.Closed {
			end = iv.End
		}
		lo, hi := max(iv.Start, from), min(end, to)
		if hi > lo {
			total += float64(hi - lo)
		}
	}
	return total
}

type occupancyStep struct {
	t     TimeStamp
	delta int
}

// systemStats applies Little's Law to the facility as a whole: a component
// enters at inspection start and leaves when assembled into a product.
func systemStats(res *Result, from, to TimeStamp) SystemStats {
	span := float64(to - from)
	var steps []occupancyStep
	arrivals := 0
	for _, role := range []Role{Role1, Role2} {
		for _, t := range res.Inspectors[role].InspectionStarts {
			steps = append(steps, occupancyStep{t: t, delta: 1})
			if t > from && t <= to {
				arrivals++
			}
		}
	}
	inSystem, components := 0.0, 0
	for _, id := range AllWorkstations {
		for _, p := range res.Products[id] {
			steps = append(steps, occupancyStep{t: p.Timestamp(), delta: -p.ComponentCount()})
			if p.StartTime() >= from && p.Timestamp() <= to {
				inSystem += float64(p.TimeInSystem())
				components += p.ComponentCount()
			}
		}
	}
	sort.SliceStable(steps, func(a, b int) bool { return steps[a].t < steps[b].t })

	area, level := 0.0, 0
	prev := Start()
	for _, s := range steps {
		if lo, hi := max(prev, from), min(s.t, to); hi > lo {
			area += float64(level) * float64(hi-lo)
		}
		level += s.delta
		prev = s.t
	}
	if lo := max(prev, from); to > lo {
		area += float64(level) * float64(to-lo)
	}

	stats := SystemStats{
		Occupancy:   area / span,
		ArrivalRate: float64(arrivals) / span,
	}
	if components > 0 {
		stats.TimeInSystem = inSystem / float64(components)
	}
	return stats
}
