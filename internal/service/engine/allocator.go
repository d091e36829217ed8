package engine

import (
	"math"
	"sort"
)

// weightTolerance is how far the platform weights may drift from 100%.
const weightTolerance = 0.01

// AllocatePlatforms splits totalSlots across the weighted platforms and
// returns one platform per slot index.
//
// Each platform's target is round(totalSlots * weight / 100). Independent
// rounding can over- or under-shoot, so a reconciliation pass moves single
// units until the counts sum to totalSlots exactly: shortfalls go to the
// platforms with the largest fractional remainder, surpluses are taken from
// those with the smallest. Ties break on ascending platform name.
//
// Slot indices are assigned in block order: platforms sorted by name, each
// taking a contiguous run.
func AllocatePlatforms(totalSlots int, weights map[string]float64) ([]string, error) {
	counts, err := PlatformCounts(totalSlots, weights)
	if err != nil {
		return nil, err
	}

	platforms := sortedPlatforms(weights)

	out := make([]string, 0, totalSlots)
	for _, platform := range platforms {
		for i := 0; i < counts[platform]; i++ {
			out = append(out, platform)
		}
	}
	return out, nil
}

// PlatformCounts computes the reconciled per-platform slot counts.
func PlatformCounts(totalSlots int, weights map[string]float64) (map[string]int, error) {
	if len(weights) == 0 {
		return nil, &ValidationError{
			Field:   "platform_weights",
			Message: "at least one platform is required",
		}
	}

	sum := 0.0
	for platform, w := range weights {
		if w < 0 {
			return nil, &ValidationError{
				Field:   "platform_weights",
				Message: "weight for " + platform + " is negative",
			}
		}
		sum += w
	}
	if math.Abs(sum-100) > weightTolerance {
		return nil, &ValidationError{
			Field:   "platform_weights",
			Message: "weights must sum to 100",
		}
	}

	platforms := sortedPlatforms(weights)

	counts := make(map[string]int, len(platforms))
	remainders := make(map[string]float64, len(platforms))
	allocated := 0
	for _, platform := range platforms {
		raw := float64(totalSlots) * weights[platform] / 100
		count := int(math.Round(raw))
		counts[platform] = count
		remainders[platform] = raw - math.Floor(raw)
		allocated += count
	}

	// Reconcile rounding drift one unit at a time. Adjusted platforms are
	// deprioritized so consecutive corrections spread across platforms.
	for allocated < totalSlots {
		platform := pickByRemainder(platforms, counts, remainders, true)
		counts[platform]++
		remainders[platform]--
		allocated++
	}
	for allocated > totalSlots {
		platform := pickByRemainder(platforms, counts, remainders, false)
		counts[platform]--
		remainders[platform]++
		allocated--
	}

	return counts, nil
}

// pickByRemainder selects the next platform to adjust. When adding, the
// largest fractional remainder wins; when removing, the smallest remainder
// among platforms that still have slots. Ties break on platform name, which
// is already the iteration order.
func pickByRemainder(platforms []string, counts map[string]int, remainders map[string]float64, add bool) string {
	best := ""
	for _, platform := range platforms {
		if !add && counts[platform] == 0 {
			continue
		}
		if best == "" {
			best = platform
			continue
		}
		if add && remainders[platform] > remainders[best] {
			best = platform
		}
		if !add && remainders[platform] < remainders[best] {
			best = platform
		}
	}
	return best
}

func sortedPlatforms(weights map[string]float64) []string {
	platforms := make([]string, 0, len(weights))
	for platform := range weights {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	return platforms
}
