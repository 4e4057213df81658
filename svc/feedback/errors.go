package feedback

import "errors"

var (
	ErrApplicationNotFound = errors.New("feedback: application not found")
	ErrFeedbackNotFound    = errors.New("feedback: feedback not found")
	ErrVoteNotFound        = errors.New("feedback: vote not found")
	ErrMissingName         = errors.New("feedback: application name is required")
	ErrMissingFields       = errors.New("feedback: applicationId, userId and title are required")
	ErrMissingVoteFields   = errors.New("feedback: applicationId, feedbackId and userId are required")
	ErrInvalidVoteType     = errors.New("feedback: only UPVOTE votes are accepted")
	ErrInvalidStatus       = errors.New("feedback: invalid status")
	ErrNothingToUpdate     = errors.New("feedback: status or reply is required")
)

var (
	ErrFailedToCreateApplication = errors.New("feedback: failed to create application")
	ErrFailedToCreateFeedback    = errors.New("feedback: failed to create feedback")
	ErrFailedToListFeedback      = errors.New("feedback: failed to list feedback")
	ErrFailedToUpdateFeedback    = errors.New("feedback: failed to update feedback")
	ErrFailedToVote              = errors.New("feedback: failed to record vote")
	ErrFailedToAggregate         = errors.New("feedback: failed to aggregate analytics")
)
