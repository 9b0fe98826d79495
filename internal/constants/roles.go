package constants

// Roles for event participants.
const (
	Viewer   = "viewer"
	Lead     = "lead"
	Operator = "operator"
)
