package store

import (
	"sort"
	"time"
)

// closeThreshold is how stale the latest observation may be before the
// period it belongs to is considered closed. The crawl runs daily, so a
// gap of more than one day between rows means the product left the
// collection in between.
const closeThreshold = 48 * time.Hour

// PeriodsFromDates collapses daily observation dates into contiguous
// availability periods. Dates are deduplicated and sorted first. A gap of
// more than one day closes a period; the final period stays open (nil
// End) when its last observation is recent relative to now.
func PeriodsFromDates(dates []time.Time, now time.Time) []Period {
	if len(dates) == 0 {
		return nil
	}

	days := make([]time.Time, 0, len(dates))
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		day := d.UTC().Truncate(24 * time.Hour)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var periods []Period
	start := days[0]
	prev := days[0]
	for _, day := range days[1:] {
		if day.Sub(prev) > 24*time.Hour {
			end := prev
			periods = append(periods, Period{Start: start, End: &end})
			start = day
		}
		prev = day
	}

	last := Period{Start: start}
	if now.Sub(prev) > closeThreshold {
		end := prev
		last.End = &end
	}
	return append(periods, last)
}
