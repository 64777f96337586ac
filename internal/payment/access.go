package payment

import userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"

// Capability is the closed set of read scopes over payment records. An
// unrecognized role maps to CapViewNone, never to a wider scope.
type Capability int

const (
	CapViewNone Capability = iota
	CapViewOwnGuest
	CapViewOwnHost
	CapViewAll
)

// AccessScope is the role-derived visibility filter applied to every
// enumeration path over payment records.
type AccessScope struct {
	Capability Capability
	UserID     string
}

func ScopeForRole(role, userID string) AccessScope {
	switch role {
	case userDatamodel.RoleGuest:
		return AccessScope{Capability: CapViewOwnGuest, UserID: userID}
	case userDatamodel.RoleHost:
		return AccessScope{Capability: CapViewOwnHost, UserID: userID}
	case userDatamodel.RoleAdmin:
		return AccessScope{Capability: CapViewAll}
	default:
		return AccessScope{Capability: CapViewNone}
	}
}
