package promotions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Service implements the promotion ledger: grant, manual revoke and the
// active-state projection used by admin views and public ordering.
type Service struct {
	repo   Repository
	audit  shared.ActivityRecorder
	cache  *StatusCache
	logger *slog.Logger
	now    func() time.Time

	// editorPickRequiresPublish gates editor picks behind the
	// publish-directly capability. The historical behavior let any
	// authenticated admin create picks, so the gate defaults to off.
	editorPickRequiresPublish bool
}

// NewService constructs a Service.
func NewService(repo Repository, audit shared.ActivityRecorder, cache *StatusCache, logger *slog.Logger, editorPickRequiresPublish bool) *Service {
	return &Service{
		repo:                      repo,
		audit:                     audit,
		cache:                     cache,
		logger:                    logger,
		now:                       func() time.Time { return time.Now().UTC() },
		editorPickRequiresPublish: editorPickRequiresPublish,
	}
}

// Grant creates a promotion for the article, soft-removing any grant of the
// same kind that is still active. The deactivate-then-insert pair runs in
// one transaction holding the article's row lock, so concurrent grants
// cannot leave two active winners.
func (s *Service) Grant(ctx context.Context, actor *shared.Actor, articleID uuid.UUID, kind Kind, req GrantRequest) (*Grant, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if !ValidKind(kind) {
		return nil, fmt.Errorf("%w: unknown promotion kind %q", shared.ErrInvalidInput, kind)
	}
	if err := s.checkGrantCapability(rbac.Role(actor.Role), kind); err != nil {
		return nil, err
	}
	if !GrantableTier(kind, req.Tier) {
		return nil, fmt.Errorf("%w: tier %q not valid for %s", shared.ErrInvalidInput, req.Tier, kind)
	}
	if NeedsPosition(kind) && req.Position == nil {
		return nil, fmt.Errorf("%w: %s requires a position", shared.ErrInvalidInput, kind)
	}

	exists, err := s.repo.ArticleExists(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: article %s", shared.ErrNotFound, articleID)
	}

	now := s.now()
	grant := Grant{
		ID:        uuid.New(),
		ArticleID: articleID,
		Kind:      kind,
		Tier:      req.Tier,
		Position:  req.Position,
		StartsAt:  now,
		GrantedBy: actor.ID,
	}
	if req.Hours != nil {
		ends := now.Add(time.Duration(*req.Hours) * time.Hour)
		grant.EndsAt = &ends
	} else if d := DefaultDuration(kind, req.Tier); d > 0 {
		ends := now.Add(d)
		grant.EndsAt = &ends
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		// Concurrent grants serialize on the article row. Without the
		// lock, two first-time grants both see zero rows to deactivate
		// and both insert, leaving two active winners.
		if err := repo.LockArticle(ctx, articleID); err != nil {
			return err
		}
		if _, err := repo.DeactivateActive(ctx, articleID, kind, now); err != nil {
			return fmt.Errorf("deactivate prior grant: %w", err)
		}
		if err := repo.Insert(ctx, grant); err != nil {
			return fmt.Errorf("insert grant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, articleID)
	s.recordActivity(ctx, actor.ID, "promotions.grant", articleID, map[string]any{
		"kind": string(kind),
		"tier": req.Tier,
	})
	return &grant, nil
}

// Revoke soft-removes the currently active grant of the kind.
// Idempotent: revoking when nothing is active succeeds without effect.
func (s *Service) Revoke(ctx context.Context, actor *shared.Actor, articleID uuid.UUID, kind Kind) error {
	if actor == nil {
		return shared.ErrUnauthorized
	}
	if !ValidKind(kind) {
		return fmt.Errorf("%w: unknown promotion kind %q", shared.ErrInvalidInput, kind)
	}
	if err := s.checkGrantCapability(rbac.Role(actor.Role), kind); err != nil {
		return err
	}

	removed, err := s.repo.DeactivateActive(ctx, articleID, kind, s.now())
	if err != nil {
		return err
	}
	if removed > 0 {
		s.invalidate(ctx, articleID)
		s.recordActivity(ctx, actor.ID, "promotions.revoke", articleID, map[string]any{
			"kind": string(kind),
		})
	}
	return nil
}

// ActiveStatus projects the currently active grant of every kind. The Redis
// cache only accelerates the lookup; expiry is re-checked on read so even a
// cached, just-expired grant never appears active.
func (s *Service) ActiveStatus(ctx context.Context, articleID uuid.UUID) (*StatusResponse, error) {
	now := s.now()
	if cached, ok := s.cache.Get(ctx, articleID); ok {
		return pruneExpired(cached, now), nil
	}

	grants, err := s.repo.ActiveByArticle(ctx, articleID, now)
	if err != nil {
		return nil, err
	}
	status := &StatusResponse{}
	for i := range grants {
		g := grants[i]
		switch g.Kind {
		case KindFeatured:
			status.Featured = toResponse(&g)
		case KindBreaking:
			status.Breaking = toResponse(&g)
		case KindPinned:
			status.Pinned = toResponse(&g)
		case KindEditorPick:
			status.EditorPick = toResponse(&g)
		}
	}
	if err := s.cache.Set(ctx, articleID, status); err != nil && s.logger != nil {
		s.logger.Warn("promotion status cache set", slog.Any("error", err))
	}
	return status, nil
}

// ListActive returns the active grants of one kind in display order.
func (s *Service) ListActive(ctx context.Context, kind Kind) ([]Grant, error) {
	if !ValidKind(kind) {
		return nil, fmt.Errorf("%w: unknown promotion kind %q", shared.ErrInvalidInput, kind)
	}
	return s.repo.ListActive(ctx, kind, s.now())
}

func (s *Service) checkGrantCapability(role rbac.Role, kind Kind) error {
	if kind == KindEditorPick && !s.editorPickRequiresPublish {
		return nil
	}
	if !rbac.Has(role, rbac.CapPublishDirectly) {
		return fmt.Errorf("%w: publish_directly required for %s", shared.ErrForbidden, kind)
	}
	return nil
}

func pruneExpired(status *StatusResponse, now time.Time) *StatusResponse {
	out := *status
	expired := func(g *GrantResponse) bool {
		return g != nil && g.EndsAt != nil && !g.EndsAt.After(now)
	}
	if expired(out.Featured) {
		out.Featured = nil
	}
	if expired(out.Breaking) {
		out.Breaking = nil
	}
	if expired(out.Pinned) {
		out.Pinned = nil
	}
	if expired(out.EditorPick) {
		out.EditorPick = nil
	}
	return &out
}

func (s *Service) invalidate(ctx context.Context, articleID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, articleID); err != nil && s.logger != nil {
		s.logger.Warn("promotion status cache invalidate", slog.Any("error", err))
	}
}

func (s *Service) recordActivity(ctx context.Context, actorID int64, action string, articleID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.ActivityEntry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "promotion",
		EntityID: articleID.String(),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("activity record skipped", slog.String("action", action), slog.Any("error", err))
	}
}
