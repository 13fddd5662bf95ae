package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct_Composition(t *testing.T) {
	tests := []struct {
		name  string
		other *Component
		want  ProductKind
		count int
	}{
		{"P1 from C1 alone", nil, P1, 1},
		{"P2 from C1 and C2", finishedAt(C2, 0), P2, 2},
		{"P3 from C1 and C3", finishedAt(C3, 0), P3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProduct(10, finishedAt(C1, 0), tt.other)
			assert.Equal(t, tt.want, p.Kind())
			assert.Equal(t, tt.count, p.ComponentCount())
			assert.Equal(t, TimeStamp(10), p.Timestamp())
			assert.Equal(t, C1, p.Components()[0].Kind)
		})
	}
}

func TestNewProduct_InvalidConstituents_AreInvariantViolations(t *testing.T) {
	requireViolation(t, func() { NewProduct(1, finishedAt(C2, 0), nil) })
	requireViolation(t, func() { NewProduct(1, finishedAt(C1, 0), finishedAt(C1, 0)) })
	requireViolation(t, func() {
		unfinished := NewComponent(C2, 3)
		unfinished.StartInspection(0)
		NewProduct(1, finishedAt(C1, 0), unfinished)
	})
}

func TestProduct_Components_ReturnsCopy(t *testing.T) {
	p := NewProduct(1, finishedAt(C1, 0), nil)
	cs := p.Components()
	cs[0] = nil
	assert.NotNil(t, p.Components()[0], "mutating the returned slice must not change the product")
}

func TestProduct_TimeQueries(t *testing.T) {
	// GIVEN a P2 whose C1 was inspected 2..4 and enqueued at 4,
	// and whose C2 was inspected 1..6 and enqueued at 6, assembled at 10
	c1 := NewComponent(C1, 2)
	c1.StartInspection(2)
	c1.FinishInspection(4)
	c1.MarkEnqueued(4)
	c2 := NewComponent(C2, 5)
	c2.StartInspection(1)
	c2.FinishInspection(6)
	c2.MarkEnqueued(6)
	p := NewProduct(10, c1, c2)

	// THEN wait times are measured from buffer entry
	w1, ok := p.WaitTime(C1)
	require.True(t, ok)
	assert.Equal(t, Duration(6), w1)
	w2, ok := p.WaitTime(C2)
	require.True(t, ok)
	assert.Equal(t, Duration(4), w2)
	_, ok = p.WaitTime(C3)
	assert.False(t, ok)

	// AND time in system sums (10-2) + (10-1)
	assert.Equal(t, Duration(17), p.TimeInSystem())
	assert.Equal(t, TimeStamp(1), p.StartTime())
	assert.Equal(t, "P2@10.00", p.String())
}

func TestProductKind_Frees(t *testing.T) {
	assert.True(t, P1.Frees(C1))
	assert.False(t, P1.Frees(C2))
	assert.False(t, P1.Frees(C3))
	assert.True(t, P2.Frees(C1))
	assert.True(t, P2.Frees(C2))
	assert.False(t, P2.Frees(C3))
	assert.True(t, P3.Frees(C3))
	assert.False(t, P3.Frees(C2))
}
