package facematch

import (
	"errors"
	"math"
	"testing"

	"github.com/UjjwalAsati/Attendance-System/internal/database"
)

// descriptorAt returns a copy of base with the first component moved by dist,
// so the Euclidean distance to base is exactly dist.
func descriptorAt(base []float32, dist float32) []float32 {
	out := make([]float32, len(base))
	copy(out, base)
	out[0] += dist
	return out
}

func baseDescriptor(dim int, seed float32) []float32 {
	d := make([]float32, dim)
	for i := range d {
		d[i] = seed + float32(i)*0.01
	}
	return d
}

func TestEuclideanDistance(t *testing.T) {
	d, err := EuclideanDistance([]float32{0, 0}, []float32{3, 4})
	if err != nil {
		t.Fatalf("EuclideanDistance() error = %v", err)
	}
	if d != 5 {
		t.Errorf("expected 5, got %f", d)
	}

	if _, err := EuclideanDistance([]float32{1, 2}, []float32{1}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor, got %v", err)
	}
	if _, err := EuclideanDistance(nil, nil); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor for empty input, got %v", err)
	}
}

func TestFirstMatcher_Threshold(t *testing.T) {
	base := baseDescriptor(128, 0)
	roster := []database.Employee{{ID: "1", Name: "Asha", Descriptor: base}}
	m := NewFirstMatcher(0.5)

	tests := []struct {
		name     string
		dist     float32
		wantName string
	}{
		{"close match", 0.3, "Asha"},
		{"far query", 0.7, ""},
		{"exactly at threshold", 0.5, ""},
		{"identical", 0, "Asha"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(roster, descriptorAt(base, tt.dist))
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if tt.wantName == "" {
				if got != nil {
					t.Errorf("expected no match, got %s", got.Name)
				}
				return
			}
			if got == nil || got.Name != tt.wantName {
				t.Errorf("expected %s, got %+v", tt.wantName, got)
			}
		})
	}
}

func TestFirstMatcher_FirstBelowThresholdWins(t *testing.T) {
	base := baseDescriptor(4, 0)
	roster := []database.Employee{
		{ID: "1", Name: "Farther", Descriptor: descriptorAt(base, 0.4)},
		{ID: "2", Name: "Closer", Descriptor: descriptorAt(base, 0.1)},
	}

	got, err := NewFirstMatcher(0.5).Match(roster, base)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got == nil || got.Name != "Farther" {
		t.Fatalf("expected roster order to win, got %+v", got)
	}

	// Same query, same order: same answer.
	for range 10 {
		again, _ := NewFirstMatcher(0.5).Match(roster, base)
		if again == nil || again.ID != got.ID {
			t.Fatalf("match is not deterministic: %+v", again)
		}
	}
}

func TestFirstMatcher_InvalidDescriptor(t *testing.T) {
	roster := []database.Employee{{ID: "1", Descriptor: baseDescriptor(128, 0)}}
	m := NewFirstMatcher(0.5)

	if _, err := m.Match(roster, baseDescriptor(64, 0)); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor for short query, got %v", err)
	}
	if _, err := m.Match(roster, nil); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor for empty query, got %v", err)
	}
}

func TestFirstMatcher_EmptyRoster(t *testing.T) {
	got, err := NewFirstMatcher(0.5).Match(nil, baseDescriptor(128, 0))
	if err != nil || got != nil {
		t.Errorf("expected no match and no error, got %+v, %v", got, err)
	}
}

func TestNewFirstMatcher_DefaultThreshold(t *testing.T) {
	if m := NewFirstMatcher(0); m.Threshold != 0.5 {
		t.Errorf("expected default threshold 0.5, got %f", m.Threshold)
	}
}

func TestIndexedMatcher_NearestUnderThreshold(t *testing.T) {
	base := baseDescriptor(16, 0)
	roster := []database.Employee{
		{ID: "1", Name: "Farther", Descriptor: descriptorAt(base, 0.4)},
		{ID: "2", Name: "Closer", Descriptor: descriptorAt(base, 0.1)},
		{ID: "3", Name: "Stranger", Descriptor: descriptorAt(base, 5)},
	}
	m := NewIndexedMatcher(0.5)

	got, err := m.Match(roster, base)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got == nil || got.Name != "Closer" {
		t.Fatalf("expected nearest employee, got %+v", got)
	}

	none, err := m.Match(roster, descriptorAt(base, -3))
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if none != nil {
		t.Errorf("expected no match, got %s", none.Name)
	}
}

func TestIndexedMatcher_RebuildsOnRosterChange(t *testing.T) {
	base := baseDescriptor(8, 0)
	roster := []database.Employee{{ID: "1", Name: "Asha", Descriptor: descriptorAt(base, 2)}}
	m := NewIndexedMatcher(0.5)

	if got, _ := m.Match(roster, base); got != nil {
		t.Fatalf("expected no match before enrollment, got %s", got.Name)
	}

	roster = append(roster, database.Employee{ID: "2", Name: "Ravi", Descriptor: base})
	got, err := m.Match(roster, base)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got == nil || got.Name != "Ravi" {
		t.Errorf("expected Ravi after roster change, got %+v", got)
	}
}

func TestIndexedMatcher_CachesPerTenant(t *testing.T) {
	base := baseDescriptor(8, 0)
	jm := []database.Employee{{ID: "1", Tenant: "jm", Name: "Asha", Descriptor: base}}
	jss := []database.Employee{{ID: "2", Tenant: "jss", Name: "Ravi", Descriptor: descriptorAt(base, 3)}}
	m := NewIndexedMatcher(0.5)

	for range 5 {
		if got, err := m.Match(jm, base); err != nil || got == nil || got.Name != "Asha" {
			t.Fatalf("jm: got %+v, %v", got, err)
		}
		if got, err := m.Match(jss, descriptorAt(base, 3)); err != nil || got == nil || got.Name != "Ravi" {
			t.Fatalf("jss: got %+v, %v", got, err)
		}
	}
	if m.builds != 2 {
		t.Errorf("expected one build per tenant, got %d", m.builds)
	}

	jm = append(jm, database.Employee{ID: "3", Tenant: "jm", Name: "Meera", Descriptor: descriptorAt(base, 6)})
	if _, err := m.Match(jm, base); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if m.builds != 3 {
		t.Errorf("expected a rebuild after enrollment, got %d builds", m.builds)
	}
}

func TestIndexedMatcher_InvalidDescriptor(t *testing.T) {
	roster := []database.Employee{{ID: "1", Descriptor: baseDescriptor(8, 0)}}
	if _, err := NewIndexedMatcher(0.5).Match(roster, baseDescriptor(4, 0)); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor, got %v", err)
	}

	mixed := []database.Employee{
		{ID: "1", Descriptor: baseDescriptor(8, 0)},
		{ID: "2", Descriptor: baseDescriptor(4, 0)},
	}
	if _, err := NewIndexedMatcher(0.5).Match(mixed, baseDescriptor(8, 0)); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("expected ErrInvalidDescriptor for mixed roster, got %v", err)
	}
}

func TestDescriptorAtDistance(t *testing.T) {
	base := baseDescriptor(128, 0.2)
	d, _ := EuclideanDistance(base, descriptorAt(base, 0.3))
	if math.Abs(d-0.3) > 1e-6 {
		t.Errorf("helper drifted: distance %f", d)
	}
}
