package engine

import (
	"errors"
	"testing"
)

func TestPlatformCounts(t *testing.T) {
	tests := []struct {
		name       string
		totalSlots int
		weights    map[string]float64
		want       map[string]int
	}{
		{
			name:       "even split",
			totalSlots: 6,
			weights:    map[string]float64{"instagram": 50, "linkedin": 50},
			want:       map[string]int{"instagram": 3, "linkedin": 3},
		},
		{
			name:       "thirds with remainder",
			totalSlots: 10,
			weights:    map[string]float64{"instagram": 33, "linkedin": 33, "tiktok": 34},
			want:       map[string]int{"instagram": 3, "linkedin": 3, "tiktok": 4},
		},
		{
			name:       "single platform",
			totalSlots: 7,
			weights:    map[string]float64{"facebook": 100},
			want:       map[string]int{"facebook": 7},
		},
		{
			name:       "rounding overshoot is reconciled",
			totalSlots: 3,
			weights:    map[string]float64{"a": 50, "b": 50},
			want:       map[string]int{"a": 1, "b": 2},
		},
		{
			name:       "zero weight platform gets nothing",
			totalSlots: 4,
			weights:    map[string]float64{"instagram": 100, "tiktok": 0},
			want:       map[string]int{"instagram": 4, "tiktok": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlatformCounts(tt.totalSlots, tt.weights)
			if err != nil {
				t.Fatalf("PlatformCounts() error = %v", err)
			}

			sum := 0
			for platform, count := range got {
				sum += count
				if count != tt.want[platform] {
					t.Errorf("count[%s] = %d, want %d", platform, count, tt.want[platform])
				}
			}
			if sum != tt.totalSlots {
				t.Errorf("counts sum to %d, want %d", sum, tt.totalSlots)
			}
		})
	}
}

func TestPlatformCountsValidation(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
	}{
		{"empty weights", map[string]float64{}},
		{"sum below 100", map[string]float64{"instagram": 40, "linkedin": 40}},
		{"sum above 100", map[string]float64{"instagram": 60, "linkedin": 60}},
		{"negative weight", map[string]float64{"instagram": 120, "linkedin": -20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlatformCounts(6, tt.weights)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("PlatformCounts() error = %v, want ValidationError", err)
			}
			if verr.Field != "platform_weights" {
				t.Errorf("ValidationError.Field = %q, want platform_weights", verr.Field)
			}
		})
	}
}

func TestPlatformCountsToleratesFloatDrift(t *testing.T) {
	// 33.33 * 3 = 99.99, inside the accepted tolerance window of 100.
	weights := map[string]float64{"a": 33.33, "b": 33.33, "c": 33.33}
	counts, err := PlatformCounts(9, weights)
	if err != nil {
		t.Fatalf("PlatformCounts() error = %v", err)
	}
	sum := 0
	for _, c := range counts {
		sum += c
	}
	if sum != 9 {
		t.Errorf("counts sum to %d, want 9", sum)
	}
}

func TestAllocatePlatformsBlockOrder(t *testing.T) {
	out, err := AllocatePlatforms(6, map[string]float64{"tiktok": 50, "instagram": 50})
	if err != nil {
		t.Fatalf("AllocatePlatforms() error = %v", err)
	}

	// Platforms fill contiguous blocks in ascending name order.
	want := []string{"instagram", "instagram", "instagram", "tiktok", "tiktok", "tiktok"}
	if len(out) != len(want) {
		t.Fatalf("got %d entries, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("slot %d allocated to %s, want %s", i, out[i], want[i])
		}
	}
}

func TestAllocatePlatformsDeterministic(t *testing.T) {
	weights := map[string]float64{"instagram": 33, "linkedin": 33, "tiktok": 34}

	first, err := AllocatePlatforms(10, weights)
	if err != nil {
		t.Fatalf("AllocatePlatforms() error = %v", err)
	}
	second, err := AllocatePlatforms(10, weights)
	if err != nil {
		t.Fatalf("AllocatePlatforms() error = %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("slot %d differs between runs: %s vs %s", i, first[i], second[i])
		}
	}
}
