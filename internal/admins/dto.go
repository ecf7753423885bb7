package admins

import "github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"

type CreateAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// AdminResponse is the wire shape of an admin account. The password hash
// never leaves the service.
type AdminResponse struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// PermissionsResponse describes what an actor may do.
type PermissionsResponse struct {
	Role            string             `json:"role"`
	Capabilities    rbac.CapabilitySet `json:"capabilities"`
	AssignableRoles []string           `json:"assignable_roles"`
}

func toResponse(a *Admin) AdminResponse {
	return AdminResponse{
		ID:     a.ID,
		Email:  a.Email,
		Name:   a.Name,
		Role:   string(a.Role),
		Status: string(a.Status),
	}
}
