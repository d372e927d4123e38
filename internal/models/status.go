package models

const (
	StatusApplied   = "applied"
	StatusInterview = "interview"
	StatusOffer     = "offer"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

// Statuses is the accepted set, in lifecycle order.
var Statuses = []string{StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusWithdrawn}

// IsPending reports whether an application still awaits an outcome.
func IsPending(status string) bool {
	return status == StatusApplied || status == StatusInterview
}

const (
	PlatformLinkedIn = "linkedin"
	PlatformIndeed   = "indeed"
)
