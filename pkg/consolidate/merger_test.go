package consolidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/veil/pkg/pii"
)

func TestMerger_Merge_Empty(t *testing.T) {
	m := NewMerger()
	assert.Empty(t, m.Merge())
	assert.Empty(t, m.Merge(nil, nil))
	assert.Empty(t, m.Merge([]pii.Entity{}))
}

func TestMerger_Merge_NoOverlap(t *testing.T) {
	m := NewMerger()
	a := []pii.Entity{{Type: pii.TypeEmail, Value: "a@b.com", Start: 0, End: 7, Confidence: 0.95, Source: "pattern"}}
	b := []pii.Entity{{Type: pii.TypePhone, Value: "555-0100", Start: 20, End: 28, Confidence: 0.85, Source: "ner"}}

	merged := m.Merge(a, b)

	require.Len(t, merged, 2)
	assert.Equal(t, pii.TypeEmail, merged[0].Type)
	assert.Equal(t, pii.TypePhone, merged[1].Type)
}

func TestMerger_Merge_ConfidenceBoost(t *testing.T) {
	m := NewMerger()
	a := []pii.Entity{{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.6, Source: "pattern"}}
	b := []pii.Entity{{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.7, Source: "ner"}}

	merged := m.Merge(a, b)

	require.Len(t, merged, 1)
	assert.InDelta(t, 0.8, merged[0].Confidence, 1e-9)
	assert.Equal(t, "ner+pattern", merged[0].Source)
	assert.Equal(t, 10, merged[0].Start)
	assert.Equal(t, 17, merged[0].End)
}

func TestMerger_Merge_NoBoostSameSource(t *testing.T) {
	m := NewMerger()
	a := []pii.Entity{
		{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.6, Source: "pattern"},
		{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.7, Source: "pattern"},
	}

	merged := m.Merge(a)

	require.Len(t, merged, 1)
	assert.InDelta(t, 0.7, merged[0].Confidence, 1e-9)
	assert.Equal(t, "pattern", merged[0].Source)
}

func TestMerger_Merge_BoostCappedAtOne(t *testing.T) {
	m := NewMerger()
	a := []pii.Entity{{Type: pii.TypeEmail, Value: "a@b.com", Start: 0, End: 7, Confidence: 0.95, Source: "pattern"}}
	b := []pii.Entity{{Type: pii.TypeEmail, Value: "a@b.com", Start: 0, End: 7, Confidence: 0.93, Source: "ner"}}

	merged := m.Merge(a, b)

	require.Len(t, merged, 1)
	assert.Equal(t, 1.0, merged[0].Confidence)
}

func TestMerger_Merge_SpanUnion(t *testing.T) {
	m := NewMerger()
	a := []pii.Entity{{Type: pii.TypePersonName, Value: "John Smith", Start: 5, End: 15, Confidence: 0.85, Source: "ner"}}
	b := []pii.Entity{{Type: pii.TypePersonName, Value: "John", Start: 5, End: 9, Confidence: 0.8, Source: "pattern"}}

	merged := m.Merge(a, b)

	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].Start)
	assert.Equal(t, 15, merged[0].End)
	// Base attributes come from the higher-confidence contributor.
	assert.Equal(t, "John Smith", merged[0].Value)
}

func TestMerger_Merge_BelowThresholdKeptDistinct(t *testing.T) {
	m := NewMerger()
	// Overlap of 4 chars over a shorter length of 10 is 0.4, under the
	// default threshold.
	a := []pii.Entity{{Type: pii.TypeAddress, Value: "12 Main St", Start: 0, End: 10, Confidence: 0.7, Source: "pattern"}}
	b := []pii.Entity{{Type: pii.TypeZipCode, Value: "St 94105 x", Start: 6, End: 16, Confidence: 0.6, Source: "pattern"}}

	merged := m.Merge(a, b)
	assert.Len(t, merged, 2)
}

func TestMerger_Merge_OrderInsensitive(t *testing.T) {
	m := NewMerger()
	a := []pii.Entity{
		{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.6, Source: "pattern"},
		{Type: pii.TypeSSN, Value: "123-45-6789", Start: 30, End: 41, Confidence: 0.88, Source: "pattern"},
	}
	b := []pii.Entity{
		{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.7, Source: "ner"},
	}

	assert.Equal(t, m.Merge(a, b), m.Merge(b, a))
}

func TestMerger_Merge_Idempotent(t *testing.T) {
	m := NewMerger()
	lists := [][]pii.Entity{
		{
			{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.6, Source: "pattern"},
			{Type: pii.TypePhone, Value: "555-0100", Start: 40, End: 48, Confidence: 0.85, Source: "pattern"},
		},
		{
			{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.7, Source: "ner"},
			{Type: pii.TypePersonName, Value: "John", Start: 60, End: 64, Confidence: 0.85, Source: "ner"},
		},
	}

	once := m.Merge(lists...)
	twice := m.Merge(once)
	assert.Equal(t, once, twice)
}

func TestMerger_Merge_ZeroLengthKeptDistinct(t *testing.T) {
	m := NewMerger()
	a := []pii.Entity{
		{Type: pii.TypeEmail, Value: "", Start: 5, End: 5, Confidence: 0.9, Source: "pattern"},
		{Type: pii.TypeEmail, Value: "a@b.com", Start: 3, End: 10, Confidence: 0.95, Source: "ner"},
	}

	merged := m.Merge(a)
	assert.Len(t, merged, 2)
}

func TestMerger_Merge_DoesNotMutateInput(t *testing.T) {
	m := NewMerger()
	a := []pii.Entity{{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.6, Source: "pattern"}}
	b := []pii.Entity{{Type: pii.TypeEmail, Value: "a@b.com", Start: 10, End: 17, Confidence: 0.7, Source: "ner"}}

	m.Merge(a, b)

	assert.Equal(t, 0.6, a[0].Confidence)
	assert.Equal(t, "pattern", a[0].Source)
	assert.Equal(t, 0.7, b[0].Confidence)
}

func TestMerger_Merge_CustomThreshold(t *testing.T) {
	m := &Merger{OverlapThreshold: 0.3, ConfidenceBoost: 0.2}
	a := []pii.Entity{
		{Type: pii.TypeAddress, Value: "12 Main St", Start: 0, End: 10, Confidence: 0.7, Source: "pattern"},
		{Type: pii.TypeAddress, Value: "Main St 94", Start: 6, End: 16, Confidence: 0.6, Source: "ner"},
	}

	merged := m.Merge(a)

	require.Len(t, merged, 1)
	assert.InDelta(t, 0.9, merged[0].Confidence, 1e-9)
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b pii.Entity
		want float64
	}{
		{
			name: "identical spans",
			a:    pii.Entity{Start: 0, End: 10},
			b:    pii.Entity{Start: 0, End: 10},
			want: 1.0,
		},
		{
			name: "disjoint",
			a:    pii.Entity{Start: 0, End: 5},
			b:    pii.Entity{Start: 5, End: 10},
			want: 0.0,
		},
		{
			name: "half of shorter",
			a:    pii.Entity{Start: 0, End: 10},
			b:    pii.Entity{Start: 8, End: 12},
			want: 0.5,
		},
		{
			name: "contained short span",
			a:    pii.Entity{Start: 0, End: 20},
			b:    pii.Entity{Start: 5, End: 10},
			want: 1.0,
		},
		{
			name: "zero length span",
			a:    pii.Entity{Start: 5, End: 5},
			b:    pii.Entity{Start: 0, End: 10},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, overlapRatio(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, overlapRatio(tt.b, tt.a), 1e-9)
		})
	}
}
