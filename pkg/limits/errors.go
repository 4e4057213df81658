package limits

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/upvote/pkg/subscription"
)

// DefaultUpgradeURL is where limit errors send the user.
const DefaultUpgradeURL = "/pricing"

var ErrFailedToCheckLimit = errors.New("failed to check plan limit")

// PlanLimitError is returned when a plan limit blocks a resource creation.
type PlanLimitError struct {
	Message     string
	LimitType   subscription.Resource
	CurrentPlan subscription.Plan
	UpgradeURL  string
}

func (e *PlanLimitError) Error() string {
	return e.Message
}

// StatusCode is always 403 Forbidden.
func (e *PlanLimitError) StatusCode() int {
	return http.StatusForbidden
}

// ResponseBody renders the error for the HTTP boundary.
func (e *PlanLimitError) ResponseBody() any {
	return FormatLimitErrorResponse(e)
}

// LimitErrorResponse is the JSON shape of a plan limit rejection.
type LimitErrorResponse struct {
	Error           string                `json:"error"`
	LimitType       subscription.Resource `json:"limitType"`
	CurrentPlan     subscription.Plan     `json:"currentPlan"`
	UpgradeRequired bool                  `json:"upgradeRequired"`
	UpgradeURL      string                `json:"upgradeUrl"`
}

// FormatLimitErrorResponse maps err to its client-facing body.
func FormatLimitErrorResponse(err *PlanLimitError) LimitErrorResponse {
	return LimitErrorResponse{
		Error:           err.Message,
		LimitType:       err.LimitType,
		CurrentPlan:     err.CurrentPlan,
		UpgradeRequired: true,
		UpgradeURL:      err.UpgradeURL,
	}
}

// IsPlanLimitError reports whether err is, or wraps, a *PlanLimitError.
func IsPlanLimitError(err error) bool {
	var target *PlanLimitError
	return errors.As(err, &target)
}

// AsPlanLimitError extracts the *PlanLimitError from err.
func AsPlanLimitError(err error) (*PlanLimitError, bool) {
	var target *PlanLimitError
	ok := errors.As(err, &target)
	return target, ok
}
