package engine

import (
	"time"

	"go.uber.org/zap"
)

// Intra-day posting window: the first publication of a day goes out at
// postingWindowStart, the rest spread evenly across postingWindow.
const (
	postingWindowStart = 9 * time.Hour
	postingWindow      = 12 * time.Hour
)

// ScheduledSlot pairs a slot position with its concrete publish time.
type ScheduledSlot struct {
	Index int
	At    time.Time
}

// Planner computes the temporal distribution of a campaign: how many slots
// the date range yields and when each one is published.
type Planner struct {
	logger *zap.Logger
}

func NewPlanner(logger *zap.Logger) *Planner {
	return &Planner{logger: logger}
}

// TotalDays counts calendar days in the range, inclusive of both endpoints.
// The walk uses AddDate so DST transition days cannot skew the count.
func TotalDays(start, end time.Time) int {
	startDay := truncateToDay(start)
	endDay := truncateToDay(end)

	days := 1
	for day := startDay; day.Before(endDay); day = day.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// Schedule walks the date range and places publicationsPerDay slots on each
// calendar day. Deterministic for identical input.
func (p *Planner) Schedule(cfg *CampaignConfig) ([]ScheduledSlot, error) {
	if err := p.validate(cfg); err != nil {
		return nil, err
	}

	totalDays := TotalDays(cfg.StartDate, cfg.EndDate)
	totalSlots := totalDays * cfg.PublicationsPerDay

	step := postingWindow
	if cfg.PublicationsPerDay > 1 {
		step = postingWindow / time.Duration(cfg.PublicationsPerDay)
	}

	slots := make([]ScheduledSlot, 0, totalSlots)
	endDay := truncateToDay(cfg.EndDate)

	day := truncateToDay(cfg.StartDate)
	remaining := totalSlots
	index := 0

	for remaining > 0 {
		if day.After(endDay) {
			// Slot count and range disagree; keep what fits and surface a
			// warning rather than failing the whole plan.
			p.logger.Warn("schedule exceeded campaign end date",
				zap.Int("unplaced_slots", remaining),
				zap.Time("end_date", cfg.EndDate))
			break
		}

		for k := 0; k < cfg.PublicationsPerDay && remaining > 0; k++ {
			slots = append(slots, ScheduledSlot{
				Index: index,
				At:    day.Add(postingWindowStart + time.Duration(k)*step),
			})
			index++
			remaining--
		}

		day = day.AddDate(0, 0, 1)
	}

	p.logger.Debug("schedule computed",
		zap.Int("total_days", totalDays),
		zap.Int("total_slots", len(slots)))

	return slots, nil
}

func (p *Planner) validate(cfg *CampaignConfig) error {
	if cfg.PublicationsPerDay < 1 {
		return &ValidationError{
			Field:   "publications_per_day",
			Message: "must be at least 1",
		}
	}
	if !cfg.StartDate.Before(cfg.EndDate) {
		return &ValidationError{
			Field:   "date_range",
			Message: "end date must be after start date",
		}
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
