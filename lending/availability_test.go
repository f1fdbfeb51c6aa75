package lending

import "testing"

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd int
		bStart, bEnd int
		want         bool
	}{
		{"disjoint before", 1, 2, 3, 4, false},
		{"disjoint after", 5, 6, 3, 4, false},
		{"touching end", 1, 3, 3, 4, true},
		{"touching start", 4, 6, 1, 4, true},
		{"contained", 2, 3, 1, 5, true},
		{"containing", 1, 5, 2, 3, true},
		{"same single day", 7, 7, 7, 7, true},
		{"adjacent days", 1, 2, 3, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Fatalf("Overlaps(%d,%d,%d,%d) = %v, want %v", tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, got, tt.want)
			}
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Fatalf("Overlaps is not symmetric for %s", tt.name)
			}
		})
	}
}

func TestIsAvailableBetweenContracts(t *testing.T) {
	existing := []Contract{
		{ID: "C1", StartDay: 5, EndDay: 7},
		{ID: "C2", StartDay: 10, EndDay: 12},
	}
	if !IsAvailable(existing, 8, 9) {
		t.Fatalf("want [8,9] available")
	}
	if IsAvailable(existing, 6, 11) {
		t.Fatalf("want [6,11] unavailable")
	}
	if IsAvailable(existing, 12, 20) {
		t.Fatalf("want [12,20] unavailable, shares day 12")
	}
	if !IsAvailable(nil, 0, 100) {
		t.Fatalf("want any range available with no contracts")
	}
}
