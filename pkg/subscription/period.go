package subscription

import (
	"time"

	"github.com/jinzhu/now"
)

// Period is a closed usage window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the window, bounds included.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// CurrentPeriod returns the provider-driven window of sub when at falls inside it,
// otherwise the UTC calendar month containing at.
func CurrentPeriod(sub *Subscription, at time.Time) Period {
	if sub != nil && sub.CurrentPeriodStart != nil && sub.CurrentPeriodEnd != nil {
		p := Period{Start: *sub.CurrentPeriodStart, End: *sub.CurrentPeriodEnd}
		if p.Contains(at) {
			return p
		}
	}
	return CalendarMonth(at.UTC())
}

// CalendarMonth returns [1st 00:00:00, last day 23:59:59] of the month containing at,
// in at's location.
func CalendarMonth(at time.Time) Period {
	n := now.New(at)
	return Period{
		Start: n.BeginningOfMonth(),
		End:   n.EndOfMonth().Truncate(time.Second),
	}
}
