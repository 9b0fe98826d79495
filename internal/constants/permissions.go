package constants

// Permissions gate the action surface: the operator runs the event, team
// leads place money, everyone with a session may read.
const (
	ManageStage     = "MANAGE_STAGE"
	ManageSchedule  = "MANAGE_SCHEDULE"
	SaveDraft       = "SAVE_DRAFT"
	CommitPortfolio = "COMMIT_PORTFOLIO"
	ViewData        = "VIEW_DATA"
)
