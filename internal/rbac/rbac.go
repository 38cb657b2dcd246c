package rbac

// Role constants
const (
	RoleOperator = "operator"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// Permission constants
const (
	PermManageBrands    = "manage_brands"
	PermManageCampaigns = "manage_campaigns"
	PermCreateTicket    = "create_ticket"
	PermReviewTicket    = "review_ticket"
	PermDispatchTicket  = "dispatch_ticket"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleOperator: {
		PermManageCampaigns, PermCreateTicket,
	},
	RoleReviewer: {
		PermManageCampaigns, PermCreateTicket, PermReviewTicket, PermDispatchTicket,
	},
	RoleAdmin: {
		PermManageBrands, PermManageCampaigns, PermCreateTicket, PermReviewTicket, PermDispatchTicket,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
