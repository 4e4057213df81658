package feedback

import (
	"time"

	"github.com/google/uuid"
)

// Status is the triage state of a feedback item.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusPlanned    Status = "Planned"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// VoteType models the vote direction. Only UPVOTE is accepted by the API.
type VoteType string

const (
	VoteUp   VoteType = "UPVOTE"
	VoteDown VoteType = "DOWNVOTE"
)

// Sort orders feedback listings.
type Sort string

const (
	SortRecent  Sort = "recent"
	SortUpvotes Sort = "upvotes"
)

// ParseSort returns SortUpvotes for "upvotes" and SortRecent otherwise.
func ParseSort(s string) Sort {
	if Sort(s) == SortUpvotes {
		return SortUpvotes
	}
	return SortRecent
}

// Application is a company's product that collects its own feedback.
type Application struct {
	ID            uuid.UUID `json:"id"`
	CompanyID     uuid.UUID `json:"companyId"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
	FeedbackCount int       `json:"feedbackCount"`
}

// Feedback is an end-user submitted item with its tags, reply and vote count.
type Feedback struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"applicationId"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	Tags          []string  `json:"tags"`
	Reply         *string   `json:"reply"`
	VoteCount     int       `json:"voteCount"`
}

// Vote is unique per (application, feedback, user).
type Vote struct {
	ApplicationID uuid.UUID
	FeedbackID    uuid.UUID
	UserID        string
	Type          VoteType
	CreatedAt     time.Time
}

// WidgetItem is a feedback item as seen by one end user.
type WidgetItem struct {
	Feedback
	IsAuthor     bool      `json:"isAuthor"`
	HasVoted     bool      `json:"hasVoted"`
	UserVoteType *VoteType `json:"userVoteType"`
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// WidgetPage is one page of the public feedback list.
type WidgetPage struct {
	Feedback []WidgetItem `json:"feedback"`
	Meta     PageMeta     `json:"meta"`
}

// VoteResult is the upvote count after a vote change.
type VoteResult struct {
	Success   bool `json:"success"`
	Upvotes   int  `json:"upvotes"`
	VoteCount int  `json:"voteCount"`
}

// Scope limits dashboard reads to a company and optionally one application.
type Scope struct {
	CompanyID     uuid.UUID
	ApplicationID *uuid.UUID
}

// Query selects feedback rows from the store.
type Query struct {
	ApplicationIDs []uuid.UUID
	Status         Status
	Sort           Sort
	Offset         int
	Limit          int // 0 means no limit
}
