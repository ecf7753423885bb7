// Package rbac implements the static role-capability model. Every
// authorization decision in the platform is a single lookup here; no
// handler carries its own allow-list.
package rbac

// Role is an admin role name as stored on the admins row.
type Role string

// Known roles, strongest first.
const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleModerator  Role = "moderator"
)

// Capability is a named boolean permission derived purely from a role.
type Capability string

const (
	CapPublishDirectly     Capability = "publish_directly"
	CapApprove             Capability = "approve"
	CapHardDelete          Capability = "hard_delete"
	CapArchive             Capability = "archive"
	CapEditAny             Capability = "edit_any"
	CapManageUsers         Capability = "manage_users"
	CapManageRoles         Capability = "manage_roles"
	CapResetOthersPassword Capability = "reset_others_password"
)

// CapabilitySet holds the capabilities granted by a role.
type CapabilitySet struct {
	PublishDirectly     bool `json:"publish_directly"`
	Approve             bool `json:"approve"`
	HardDelete          bool `json:"hard_delete"`
	Archive             bool `json:"archive"`
	EditAny             bool `json:"edit_any"`
	ManageUsers         bool `json:"manage_users"`
	ManageRoles         bool `json:"manage_roles"`
	ResetOthersPassword bool `json:"reset_others_password"`
}

// Has reports whether the set grants the capability.
func (s CapabilitySet) Has(cap Capability) bool {
	switch cap {
	case CapPublishDirectly:
		return s.PublishDirectly
	case CapApprove:
		return s.Approve
	case CapHardDelete:
		return s.HardDelete
	case CapArchive:
		return s.Archive
	case CapEditAny:
		return s.EditAny
	case CapManageUsers:
		return s.ManageUsers
	case CapManageRoles:
		return s.ManageRoles
	case CapResetOthersPassword:
		return s.ResetOthersPassword
	}
	return false
}

// roleRanks defines the strict total order over roles. An unknown role maps
// to rank 0 and therefore an empty capability set: unknown fails closed.
var roleRanks = map[Role]int{
	RoleSuperAdmin: 4,
	RoleAdmin:      3,
	RoleEditor:     2,
	RoleModerator:  1,
}

// rankedRoles lists known roles ascending by rank.
var rankedRoles = []Role{RoleModerator, RoleEditor, RoleAdmin, RoleSuperAdmin}

var roleCapabilities = map[Role]CapabilitySet{
	RoleSuperAdmin: {
		PublishDirectly:     true,
		Approve:             true,
		HardDelete:          true,
		Archive:             true,
		EditAny:             true,
		ManageUsers:         true,
		ManageRoles:         true,
		ResetOthersPassword: true,
	},
	RoleAdmin: {
		PublishDirectly:     true,
		Approve:             true,
		Archive:             true,
		EditAny:             true,
		ManageUsers:         true,
		ResetOthersPassword: true,
	},
	RoleEditor: {
		PublishDirectly: true,
		Approve:         true,
		Archive:         true,
		EditAny:         true,
	},
	RoleModerator: {},
}

// Rank returns the position of the role in the total order, 0 for unknown.
func Rank(role Role) int {
	return roleRanks[role]
}

// CapabilitiesFor returns the fixed capability set of a role. Deterministic
// and I/O free; unknown roles get the empty set.
func CapabilitiesFor(role Role) CapabilitySet {
	return roleCapabilities[role]
}

// Has reports whether the role grants the capability.
func Has(role Role, cap Capability) bool {
	return CapabilitiesFor(role).Has(cap)
}

// CanManage reports whether actor may manage target. Strictly
// higher-ranked only: a role can never manage a peer, a superior, or
// itself.
func CanManage(actor, target Role) bool {
	return Rank(actor) > Rank(target)
}

// AssignableRoles returns every role strictly below the given role,
// ascending by rank.
func AssignableRoles(role Role) []Role {
	limit := Rank(role)
	var out []Role
	for _, r := range rankedRoles {
		if roleRanks[r] < limit {
			out = append(out, r)
		}
	}
	return out
}

// Valid reports whether the role is one of the known roles.
func Valid(role Role) bool {
	_, ok := roleRanks[role]
	return ok
}
