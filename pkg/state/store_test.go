package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStoreEnsure(t *testing.T) {
	for name, tc := range map[string]struct {
		ensure []int
		want   int
	}{
		"new store": {
			want: 2,
		},
		"within capacity": {
			ensure: []int{1, 2},
			want:   2,
		},
		"doubles": {
			ensure: []int{3},
			want:   4,
		},
		"jumps to minimum": {
			ensure: []int{9},
			want:   9,
		},
		"repeated doubling": {
			ensure: []int{3, 5, 9},
			want:   16,
		},
		"never shrinks": {
			ensure: []int{9, 1},
			want:   9,
		},
	} {
		t.Run(name, func(t *testing.T) {
			s := New()
			for _, n := range tc.ensure {
				s.Ensure(n)
			}
			if got := s.Len(); got != tc.want {
				t.Errorf("Len: want %d, got %d", tc.want, got)
			}
		})
	}
}

// TestStoreGrowthPreservesSlots checks that no slot is lost or aliased as the
// store grows.
func TestStoreGrowthPreservesSlots(t *testing.T) {
	s := New()
	var want []any
	for i := 0; i < 100; i++ {
		s.Ensure(i + 1)
		if err := s.Set(i, i*10); err != nil {
			t.Fatal(err)
		}
		want = append(want, i*10)
	}
	got := s.Snapshot()[:100]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("slots (-want +got):\n%s", diff)
	}
}

func TestStoreSetOutOfRange(t *testing.T) {
	s := New()
	if err := s.Set(2, "x"); err == nil {
		t.Fatal("expected error writing unallocated slot")
	}
	if err := s.Set(-1, "x"); err == nil {
		t.Fatal("expected error writing negative slot")
	}
	if got := s.Get(7); got != nil {
		t.Errorf("Get out of range: want nil, got %v", got)
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := New()
	if err := s.Set(0, "a"); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	snap[0] = "b"
	if got := s.Get(0); got != "a" {
		t.Errorf("want a, got %v", got)
	}
}
