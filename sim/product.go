package sim

import "fmt"

// ProductKind identifies which component combination produced a Product.
type ProductKind int

const (
	P1 ProductKind = iota + 1 // C1
	P2                        // C1 + C2
	P3                        // C1 + C3
)

func (k ProductKind) String() string {
	switch k {
	case P1:
		return "P1"
	case P2:
		return "P2"
	case P3:
		return "P3"
	}
	return fmt.Sprintf("ProductKind(%d)", int(k))
}

// Frees reports whether assembling a product of this kind frees buffer
// space for components of the given kind.
func (k ProductKind) Frees(c ComponentKind) bool {
	switch c {
	case C1:
		return true
	case C2:
		return k == P2
	case C3:
		return k == P3
	}
	return false
}

// Product is an assembled unit. Immutable after construction.
type Product struct {
	kind       ProductKind
	components []*Component
	timestamp  TimeStamp
}

// NewProduct assembles a product at ts from a C1 and an optional second
// component (nil for P1). Every constituent must have finished inspection.
func NewProduct(ts TimeStamp, c1 *Component, other *Component) Product {
	if c1 == nil || c1.Kind != C1 {
		violate("product", "first constituent must be C1, got %v", c1)
	}
	p := Product{kind: P1, components: []*Component{c1}, timestamp: ts}
	if other != nil {
		switch other.Kind {
		case C2:
			p.kind = P2
		case C3:
			p.kind = P3
		default:
			violate("product", "second constituent must be C2 or C3, got %s", other.Kind)
		}
		p.components = append(p.components, other)
	}
	for _, c := range p.components {
		if !c.IsFinished() {
			violate("product", "%s assembled from unfinished %s", p.kind, c.Kind)
		}
	}
	return p
}

// Kind returns the product kind.
func (p Product) Kind() ProductKind { return p.kind }

// Timestamp returns the assembly time.
func (p Product) Timestamp() TimeStamp { return p.timestamp }

// Components returns a copy of the constituent slice.
func (p Product) Components() []*Component {
	return append([]*Component(nil), p.components...)
}

// ComponentCount returns the number of constituents (1 or 2).
func (p Product) ComponentCount() int { return len(p.components) }

// WaitTime returns how long the constituent of the given kind sat in its
// workstation buffer. Returns false if the product has no such constituent.
func (p Product) WaitTime(kind ComponentKind) (Duration, bool) {
	for _, c := range p.components {
		if c.Kind == kind {
			return p.timestamp.Sub(c.EnqueueTime()), true
		}
	}
	return None, false
}

// TimeInSystem sums, over every constituent, the time from inspection
// start to assembly.
func (p Product) TimeInSystem() Duration {
	total := None
	for _, c := range p.components {
		total += p.timestamp.Sub(c.InspectionStart())
	}
	return total
}

// StartTime returns the earliest inspection start among the constituents.
func (p Product) StartTime() TimeStamp {
	start := p.components[0].InspectionStart()
	for _, c := range p.components[1:] {
		if s := c.InspectionStart(); s < start {
			start = s
		}
	}
	return start
}

func (p Product) String() string {
	return fmt.Sprintf("%s@%v", p.kind, p.timestamp)
}
