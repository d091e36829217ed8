package engine

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlannerSchedule(t *testing.T) {
	planner := NewPlanner(zap.NewNop())

	tests := []struct {
		name      string
		cfg       CampaignConfig
		wantSlots int
	}{
		{
			name: "three days two per day",
			cfg: CampaignConfig{
				StartDate:          date(2025, 6, 1),
				EndDate:            date(2025, 6, 3),
				PublicationsPerDay: 2,
			},
			wantSlots: 6,
		},
		{
			name: "single full day",
			cfg: CampaignConfig{
				StartDate:          date(2025, 6, 1),
				EndDate:            date(2025, 6, 2),
				PublicationsPerDay: 1,
			},
			wantSlots: 2,
		},
		{
			name: "week at three per day",
			cfg: CampaignConfig{
				StartDate:          date(2025, 6, 1),
				EndDate:            date(2025, 6, 7),
				PublicationsPerDay: 3,
			},
			wantSlots: 21,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := planner.Schedule(&tt.cfg)
			if err != nil {
				t.Fatalf("Schedule() error = %v", err)
			}
			if len(slots) != tt.wantSlots {
				t.Errorf("Schedule() returned %d slots, want %d", len(slots), tt.wantSlots)
			}
			for i, slot := range slots {
				if slot.Index != i {
					t.Errorf("slot %d has index %d", i, slot.Index)
				}
				if slot.At.Before(tt.cfg.StartDate) {
					t.Errorf("slot %d scheduled at %v before start date", i, slot.At)
				}
			}
		})
	}
}

func TestPlannerScheduleIntraDayTimes(t *testing.T) {
	planner := NewPlanner(zap.NewNop())

	cfg := &CampaignConfig{
		StartDate:          date(2025, 6, 1),
		EndDate:            date(2025, 6, 2),
		PublicationsPerDay: 3,
	}

	slots, err := planner.Schedule(cfg)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	// 3 publications spread a 12h window starting at 09:00: 09:00, 13:00, 17:00.
	wantHours := []int{9, 13, 17, 9, 13, 17}
	if len(slots) != len(wantHours) {
		t.Fatalf("got %d slots, want %d", len(slots), len(wantHours))
	}
	for i, slot := range slots {
		if slot.At.Hour() != wantHours[i] {
			t.Errorf("slot %d publishes at hour %d, want %d", i, slot.At.Hour(), wantHours[i])
		}
	}

	if !slots[0].At.Equal(date(2025, 6, 1).Add(9 * time.Hour)) {
		t.Errorf("first slot at %v, want 09:00 on start date", slots[0].At)
	}
	if slots[3].At.Day() != 2 {
		t.Errorf("fourth slot on day %d, want day 2", slots[3].At.Day())
	}
}

func TestPlannerScheduleDeterministic(t *testing.T) {
	planner := NewPlanner(zap.NewNop())

	cfg := &CampaignConfig{
		StartDate:          date(2025, 6, 1),
		EndDate:            date(2025, 6, 5),
		PublicationsPerDay: 2,
	}

	first, err := planner.Schedule(cfg)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	second, err := planner.Schedule(cfg)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("slot counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].At.Equal(second[i].At) {
			t.Errorf("slot %d times differ: %v vs %v", i, first[i].At, second[i].At)
		}
	}
}

func TestPlannerScheduleValidation(t *testing.T) {
	planner := NewPlanner(zap.NewNop())

	tests := []struct {
		name      string
		cfg       CampaignConfig
		wantField string
	}{
		{
			name: "zero publications per day",
			cfg: CampaignConfig{
				StartDate:          date(2025, 6, 1),
				EndDate:            date(2025, 6, 3),
				PublicationsPerDay: 0,
			},
			wantField: "publications_per_day",
		},
		{
			name: "end before start",
			cfg: CampaignConfig{
				StartDate:          date(2025, 6, 3),
				EndDate:            date(2025, 6, 1),
				PublicationsPerDay: 1,
			},
			wantField: "date_range",
		},
		{
			name: "equal start and end",
			cfg: CampaignConfig{
				StartDate:          date(2025, 6, 1),
				EndDate:            date(2025, 6, 1),
				PublicationsPerDay: 1,
			},
			wantField: "date_range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planner.Schedule(&tt.cfg)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Schedule() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestTotalDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same day", date(2025, 6, 1), date(2025, 6, 1), 1},
		{"inclusive range", date(2025, 6, 1), date(2025, 6, 3), 3},
		{"mid-day timestamps", date(2025, 6, 1).Add(23 * time.Hour), date(2025, 6, 3).Add(1 * time.Hour), 3},
		{"month boundary", date(2025, 6, 28), date(2025, 7, 2), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalDays(tt.start, tt.end); got != tt.want {
				t.Errorf("TotalDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTotalDaysDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{
			// Clocks fall back on 2025-11-02, a 25-hour day.
			name:  "fall back",
			start: time.Date(2025, 11, 1, 10, 0, 0, 0, loc),
			end:   time.Date(2025, 11, 3, 10, 0, 0, 0, loc),
			want:  3,
		},
		{
			// Clocks spring forward on 2025-03-09, a 23-hour day.
			name:  "spring forward",
			start: time.Date(2025, 3, 8, 0, 0, 0, 0, loc),
			end:   time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalDays(tt.start, tt.end); got != tt.want {
				t.Errorf("TotalDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlannerScheduleAcrossFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	planner := NewPlanner(zap.NewNop())
	slots, err := planner.Schedule(&CampaignConfig{
		StartDate:          time.Date(2025, 11, 1, 0, 0, 0, 0, loc),
		EndDate:            time.Date(2025, 11, 3, 0, 0, 0, 0, loc),
		PublicationsPerDay: 2,
	})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if len(slots) != 6 {
		t.Fatalf("got %d slots, want 6 (3 days x 2 per day)", len(slots))
	}

	perDay := map[int]int{}
	for _, slot := range slots {
		perDay[slot.At.Day()]++
	}
	for _, day := range []int{1, 2, 3} {
		if perDay[day] != 2 {
			t.Errorf("day %d has %d slots, want 2", day, perDay[day])
		}
	}
}
