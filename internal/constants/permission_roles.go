package constants

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ManageStage:     {Operator},
	ManageSchedule:  {Operator},
	SaveDraft:       {Lead, Operator},
	CommitPortfolio: {Lead, Operator},
	ViewData:        {Viewer, Lead, Operator},
}

// AllowedRole returns true if role is allowed for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
