package constants

// Session
const (
	SessionCookieName = "tracker_session"
	ContextKeyUserID  = "user_id"
)

// Validation
const (
	MinPasswordLength = 6
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProgressSteps are the only values a task's progress may take.
var ProgressSteps = []int{0, 20, 40, 60, 80, 100}

// IsValidProgress reports whether v is one of the five-step progress values.
func IsValidProgress(v int) bool {
	for _, step := range ProgressSteps {
		if v == step {
			return true
		}
	}
	return false
}
