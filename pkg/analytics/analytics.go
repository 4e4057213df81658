// Package analytics turns raw feedback and vote aggregates into the dashboard
// report. Every function is pure: callers pass the rows and the current time.
package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

const (
	// TrendDays is the length of the feedback trend series.
	TrendDays = 30
	// TopFeedbackLimit is how many items the top-feedback list holds.
	TopFeedbackLimit = 5

	dateLayout = "2006-01-02"
)

// DayCount is one point of the feedback trend.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FeedbackVotes is a feedback item with its upvote count.
type FeedbackVotes struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Upvotes   int       `json:"upvotes"`
	CreatedAt time.Time `json:"-"`
}

// TagCount is the number of feedback items carrying a tag name.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UserAggregate is a per end-user count with the latest activity timestamp.
type UserAggregate struct {
	UserID string
	Count  int
	Last   *time.Time
}

// UserActivity is one row of the end-user listing.
type UserActivity struct {
	UserID        string     `json:"userId"`
	FeedbackCount int        `json:"feedbackCount"`
	VoteCount     int        `json:"voteCount"`
	LastActive    *time.Time `json:"lastActive"`
}

// Input holds everything a report is built from, already scoped to a company
// and optionally one application.
type Input struct {
	TotalFeedback int
	VotesByType   map[string]int
	FeedbackUsers []string
	VoterUsers    []string
	CreatedAt     []time.Time // feedback creation times, at least the trailing TrendDays
	Feedback      []FeedbackVotes
	Tags          []TagCount
}

// Report is the dashboard analytics payload.
type Report struct {
	TotalFeedback   int             `json:"totalFeedback"`
	Upvotes         int             `json:"upvotes"`
	VotesByType     map[string]int  `json:"votesByType"`
	UniqueUsers     int             `json:"uniqueUsers"`
	FeedbackTrend   []DayCount      `json:"feedbackTrend"`
	TopFeedback     []FeedbackVotes `json:"topFeedback"`
	TagDistribution []TagCount      `json:"tagDistribution"`
}

// Build assembles the report for the given point in time.
func Build(in Input, at time.Time) Report {
	votes := in.VotesByType
	if votes == nil {
		votes = map[string]int{}
	}
	return Report{
		TotalFeedback:   in.TotalFeedback,
		Upvotes:         votes["UPVOTE"],
		VotesByType:     votes,
		UniqueUsers:     UniqueUsers(in.FeedbackUsers, in.VoterUsers),
		FeedbackTrend:   Trend(in.CreatedAt, at, TrendDays),
		TopFeedback:     TopFeedback(in.Feedback, TopFeedbackLimit),
		TagDistribution: SortTags(in.Tags),
	}
}

// UniqueUsers counts the union of feedback authors and voters.
func UniqueUsers(groups ...[]string) int {
	seen := make(map[string]struct{})
	for _, g := range groups {
		for _, id := range g {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// Trend returns a dense series of days entries ending today (in at's location),
// oldest first, counting the timestamps that fall on each calendar day.
func Trend(createdAt []time.Time, at time.Time, days int) []DayCount {
	if days <= 0 {
		return []DayCount{}
	}

	today := now.New(at).BeginningOfDay()
	first := TrendStart(at, days)

	counts := make(map[string]int, days)
	for _, ts := range createdAt {
		day := now.New(ts.In(at.Location())).BeginningOfDay()
		if day.Before(first) || day.After(today) {
			continue
		}
		counts[day.Format(dateLayout)]++
	}

	series := make([]DayCount, 0, days)
	for i := range days {
		key := first.AddDate(0, 0, i).Format(dateLayout)
		series = append(series, DayCount{Date: key, Count: counts[key]})
	}
	return series
}

// TrendStart is midnight of the first day of a days-long series ending on
// at's calendar day.
func TrendStart(at time.Time, days int) time.Time {
	return now.New(at).BeginningOfDay().AddDate(0, 0, -(max(days, 1) - 1))
}

// TopFeedback returns the n most upvoted items. Ties go to the earliest
// created item, then to the lowest id.
func TopFeedback(items []FeedbackVotes, n int) []FeedbackVotes {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b FeedbackVotes) int {
		if c := cmp.Compare(b.Upvotes, a.Upvotes); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []FeedbackVotes{}
	}
	return sorted
}

// CountTags groups raw tag names into counts.
func CountTags(names []string) []TagCount {
	counts := make(map[string]int)
	for _, n := range names {
		counts[n]++
	}
	out := make([]TagCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, TagCount{Name: name, Count: c})
	}
	return SortTags(out)
}

// SortTags orders tag counts by count descending, then name.
func SortTags(tags []TagCount) []TagCount {
	out := slices.Clone(tags)
	slices.SortFunc(out, func(a, b TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if out == nil {
		out = []TagCount{}
	}
	return out
}

// MergeUserActivity joins per-user feedback and vote aggregates. Rows are
// ordered by last activity, most recent first; users without a timestamp go last.
func MergeUserActivity(feedback, votes []UserAggregate) []UserActivity {
	byUser := make(map[string]*UserActivity, len(feedback)+len(votes))
	order := make([]string, 0, len(feedback)+len(votes))

	get := func(id string) *UserActivity {
		if u, ok := byUser[id]; ok {
			return u
		}
		u := &UserActivity{UserID: id}
		byUser[id] = u
		order = append(order, id)
		return u
	}

	for _, f := range feedback {
		u := get(f.UserID)
		u.FeedbackCount = f.Count
		u.LastActive = latest(u.LastActive, f.Last)
	}
	for _, v := range votes {
		u := get(v.UserID)
		u.VoteCount = v.Count
		u.LastActive = latest(u.LastActive, v.Last)
	}

	out := make([]UserActivity, 0, len(order))
	for _, id := range order {
		out = append(out, *byUser[id])
	}

	slices.SortStableFunc(out, func(a, b UserActivity) int {
		switch {
		case a.LastActive == nil && b.LastActive == nil:
			return 0
		case a.LastActive == nil:
			return 1
		case b.LastActive == nil:
			return -1
		}
		return b.LastActive.Compare(*a.LastActive)
	})
	return out
}

func latest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	}
	return a
}
