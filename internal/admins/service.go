package admins

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Service orchestrates admin account management. All delegation decisions
// go through rbac.CanManage: an actor can only touch accounts (and assign
// roles) of strictly lower rank.
type Service struct {
	repo   Repository
	audit  shared.ActivityRecorder
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, audit shared.ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Get loads a single admin.
func (s *Service) Get(ctx context.Context, id int64) (*Admin, error) {
	return s.repo.Get(ctx, id)
}

// List returns all admin accounts.
func (s *Service) List(ctx context.Context) ([]Admin, error) {
	return s.repo.List(ctx)
}

// Create registers a new admin account with a strictly lower role than the
// actor's.
func (s *Service) Create(ctx context.Context, actor *shared.Actor, req CreateAdminRequest) (*Admin, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if !rbac.Has(rbac.Role(actor.Role), rbac.CapManageUsers) {
		return nil, fmt.Errorf("%w: manage_users required", shared.ErrForbidden)
	}
	role := rbac.Role(req.Role)
	if !rbac.Valid(role) {
		return nil, fmt.Errorf("%w: unknown role %q", shared.ErrInvalidInput, req.Role)
	}
	if !rbac.CanManage(rbac.Role(actor.Role), role) {
		return nil, fmt.Errorf("%w: cannot assign role %s", shared.ErrForbidden, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := Admin{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		Status:       StatusActive,
		PasswordHash: string(hash),
	}
	id, err := s.repo.Create(ctx, admin)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.recordActivity(ctx, actor.ID, "admins.create", id, map[string]any{"role": string(role)})
	return s.repo.Get(ctx, id)
}

// ChangeRole reassigns the target's role. Both the target's current role
// and the new role must rank strictly below the actor's, which also rules
// out changing one's own role.
func (s *Service) ChangeRole(ctx context.Context, actor *shared.Actor, targetID int64, newRole rbac.Role) (*Admin, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if !rbac.Has(rbac.Role(actor.Role), rbac.CapManageRoles) {
		return nil, fmt.Errorf("%w: manage_roles required", shared.ErrForbidden)
	}
	if !rbac.Valid(newRole) {
		return nil, fmt.Errorf("%w: unknown role %q", shared.ErrInvalidInput, newRole)
	}

	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanManage(rbac.Role(actor.Role), target.Role) {
		return nil, fmt.Errorf("%w: cannot manage %s", shared.ErrForbidden, target.Role)
	}
	if !rbac.CanManage(rbac.Role(actor.Role), newRole) {
		return nil, fmt.Errorf("%w: cannot assign role %s", shared.ErrForbidden, newRole)
	}

	if err := s.repo.UpdateRole(ctx, targetID, newRole); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	s.recordActivity(ctx, actor.ID, "admins.change_role", targetID, map[string]any{
		"from": string(target.Role),
		"to":   string(newRole),
	})
	return s.repo.Get(ctx, targetID)
}

// Suspend deactivates the target account. Accounts are never deleted while
// they reference content, so suspension is the only removal path.
func (s *Service) Suspend(ctx context.Context, actor *shared.Actor, targetID int64) (*Admin, error) {
	return s.setStatus(ctx, actor, targetID, StatusSuspended, "admins.suspend")
}

// Reactivate restores a suspended account.
func (s *Service) Reactivate(ctx context.Context, actor *shared.Actor, targetID int64) (*Admin, error) {
	return s.setStatus(ctx, actor, targetID, StatusActive, "admins.reactivate")
}

func (s *Service) setStatus(ctx context.Context, actor *shared.Actor, targetID int64, status Status, action string) (*Admin, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if !rbac.Has(rbac.Role(actor.Role), rbac.CapManageUsers) {
		return nil, fmt.Errorf("%w: manage_users required", shared.ErrForbidden)
	}
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanManage(rbac.Role(actor.Role), target.Role) {
		return nil, fmt.Errorf("%w: cannot manage %s", shared.ErrForbidden, target.Role)
	}
	if err := s.repo.UpdateStatus(ctx, targetID, status); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, actor.ID, action, targetID, nil)
	return s.repo.Get(ctx, targetID)
}

// ResetPassword sets a new password on another admin's account.
func (s *Service) ResetPassword(ctx context.Context, actor *shared.Actor, targetID int64, password string) error {
	if actor == nil {
		return shared.ErrUnauthorized
	}
	if !rbac.Has(rbac.Role(actor.Role), rbac.CapResetOthersPassword) {
		return fmt.Errorf("%w: reset_others_password required", shared.ErrForbidden)
	}
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if !rbac.CanManage(rbac.Role(actor.Role), target.Role) {
		return fmt.Errorf("%w: cannot manage %s", shared.ErrForbidden, target.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, targetID, string(hash)); err != nil {
		return err
	}
	s.recordActivity(ctx, actor.ID, "admins.reset_password", targetID, nil)
	return nil
}

// Permissions returns the capability set and assignable roles for an admin.
func (s *Service) Permissions(ctx context.Context, adminID int64) (*PermissionsResponse, error) {
	admin, err := s.repo.Get(ctx, adminID)
	if err != nil {
		return nil, err
	}
	assignable := rbac.AssignableRoles(admin.Role)
	names := make([]string, len(assignable))
	for i, r := range assignable {
		names[i] = string(r)
	}
	return &PermissionsResponse{
		Role:            string(admin.Role),
		Capabilities:    rbac.CapabilitiesFor(admin.Role),
		AssignableRoles: names,
	}, nil
}

func (s *Service) recordActivity(ctx context.Context, actorID int64, action string, targetID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.ActivityEntry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "admin",
		EntityID: strconv.FormatInt(targetID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("activity record skipped", slog.String("action", action), slog.Any("error", err))
	}
}
