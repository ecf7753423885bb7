package articles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Service implements the article approval workflow. Every transition runs
// as one transaction over the article, its approval record and its history
// so a crash can never leave the publication status and the workflow status
// disagreeing.
type Service struct {
	repo   Repository
	audit  shared.ActivityRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, audit shared.ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the article with its workflow record, if any.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Article, *ApprovalRecord, error) {
	article, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.repo.GetApproval(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, nil, err
	}
	return article, rec, nil
}

// List returns articles matching the filters.
func (s *Service) List(ctx context.Context, req ListArticlesRequest) ([]Article, int, error) {
	return s.repo.ListArticles(ctx, req)
}

// History returns the append-only review trail of an article.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.repo.GetArticle(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, id)
}

// Submit creates or updates an article and its workflow record in one
// transaction. The desired status decides the outcome: a draft stays a
// draft; a publish request publishes immediately when the actor holds the
// publish-directly capability and otherwise parks the article in
// pending_approval while the content remains a draft.
func (s *Service) Submit(ctx context.Context, actor *shared.Actor, req SubmitRequest) (*Article, *ApprovalRecord, error) {
	if actor == nil {
		return nil, nil, shared.ErrUnauthorized
	}
	desired := Status(req.DesiredStatus)
	if desired != StatusDraft && desired != StatusPublished {
		return nil, nil, fmt.Errorf("%w: desired status %q", shared.ErrInvalidInput, req.DesiredStatus)
	}

	role := rbac.Role(actor.Role)
	now := s.now()

	var article *Article
	if req.ArticleID != nil {
		existing, err := s.repo.GetArticle(ctx, *req.ArticleID)
		if err != nil {
			return nil, nil, err
		}
		if err := s.checkEditPermission(role, actor.ID, existing); err != nil {
			return nil, nil, err
		}
		existing.PrimaryCategoryID = req.PrimaryCategoryID
		existing.Title = req.Title
		existing.Summary = req.Summary
		existing.Body = req.Body
		article = existing
	} else {
		article = &Article{
			ID:                uuid.New(),
			AuthorID:          actor.ID,
			PrimaryCategoryID: req.PrimaryCategoryID,
			Title:             req.Title,
			Slug:              Slugify(req.Title),
			Summary:           req.Summary,
			Body:              req.Body,
			Status:            StatusDraft,
		}
	}

	rec := ApprovalRecord{
		ArticleID:   article.ID,
		SubmittedBy: actor.ID,
		SubmittedAt: now,
	}
	switch {
	case desired == StatusDraft:
		article.Status = StatusDraft
		rec.WorkflowStatus = WorkflowDraft
	case rbac.Has(role, rbac.CapPublishDirectly):
		article.Status = StatusPublished
		if article.PublishedAt == nil {
			article.PublishedAt = &now
		}
		rec.WorkflowStatus = WorkflowApproved
		rec.ApprovedBy = &actor.ID
		rec.ApprovedAt = &now
	default:
		article.Status = StatusDraft
		rec.WorkflowStatus = WorkflowPendingApproval
		rec.RequiresApproval = true
	}

	isNew := req.ArticleID == nil
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if isNew {
			if err := repo.InsertArticle(ctx, *article); err != nil {
				return fmt.Errorf("insert article: %w", err)
			}
		} else {
			if err := repo.UpdateArticle(ctx, *article); err != nil {
				return fmt.Errorf("update article: %w", err)
			}
		}
		if err := repo.UpsertApproval(ctx, rec); err != nil {
			return fmt.Errorf("upsert approval: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordActivity(ctx, actor.ID, "articles.submit", article.ID, map[string]any{
		"desired_status":  string(desired),
		"workflow_status": string(rec.WorkflowStatus),
	})
	return article, &rec, nil
}

// Review applies a reviewer decision. Requires the approve capability.
func (s *Service) Review(ctx context.Context, actor *shared.Actor, articleID uuid.UUID, req ReviewRequest) (*Article, *ApprovalRecord, error) {
	if actor == nil {
		return nil, nil, shared.ErrUnauthorized
	}
	if !rbac.Has(rbac.Role(actor.Role), rbac.CapApprove) {
		return nil, nil, fmt.Errorf("%w: approve capability required", shared.ErrForbidden)
	}
	action := ReviewAction(req.Action)
	if action != ActionApprove && action != ActionReject && action != ActionRequestChanges {
		return nil, nil, fmt.Errorf("%w: unknown review action %q", shared.ErrInvalidInput, req.Action)
	}

	article, err := s.repo.GetArticle(ctx, articleID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.repo.GetApproval(ctx, articleID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	previous := rec.WorkflowStatus

	switch action {
	case ActionApprove:
		rec.WorkflowStatus = WorkflowApproved
		rec.ApprovedBy = &actor.ID
		rec.ApprovedAt = &now
		article.Status = StatusPublished
		if article.PublishedAt == nil {
			article.PublishedAt = &now
		}
	case ActionReject:
		reason := req.Comments
		if reason == "" {
			reason = defaultRejectionReason
		}
		rec.WorkflowStatus = WorkflowRejected
		rec.RejectedBy = &actor.ID
		rec.RejectedAt = &now
		rec.RejectionReason = &reason
		article.Status = StatusDraft
	case ActionRequestChanges:
		instructions := req.Comments
		rec.WorkflowStatus = WorkflowPendingReview
		rec.RejectionReason = &instructions
		article.Status = StatusDraft
	}

	entry := HistoryEntry{
		ArticleID:      articleID,
		ReviewerID:     actor.ID,
		Action:         action,
		PreviousStatus: previous,
		NewStatus:      rec.WorkflowStatus,
		Comments:       req.Comments,
		CreatedAt:      now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateArticle(ctx, *article); err != nil {
			return fmt.Errorf("update article: %w", err)
		}
		if err := repo.UpsertApproval(ctx, *rec); err != nil {
			return fmt.Errorf("upsert approval: %w", err)
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordActivity(ctx, actor.ID, "articles.review", articleID, map[string]any{
		"action": string(action),
		"from":   string(previous),
		"to":     string(rec.WorkflowStatus),
	})
	return article, rec, nil
}

// Archive soft-deletes an article. Reversible only via Restore, never via
// the review pipeline.
func (s *Service) Archive(ctx context.Context, actor *shared.Actor, articleID uuid.UUID) (*Article, error) {
	return s.setStatus(ctx, actor, articleID, StatusArchived, rbac.CapArchive, "articles.archive")
}

// Restore moves an archived article back to draft.
func (s *Service) Restore(ctx context.Context, actor *shared.Actor, articleID uuid.UUID) (*Article, error) {
	return s.setStatus(ctx, actor, articleID, StatusDraft, rbac.CapArchive, "articles.restore")
}

func (s *Service) setStatus(ctx context.Context, actor *shared.Actor, articleID uuid.UUID, status Status, cap rbac.Capability, action string) (*Article, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if !rbac.Has(rbac.Role(actor.Role), cap) {
		return nil, fmt.Errorf("%w: %s capability required", shared.ErrForbidden, cap)
	}
	article, err := s.repo.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	article.Status = status
	if err := s.repo.UpdateArticle(ctx, *article); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, actor.ID, action, articleID, nil)
	return article, nil
}

// HardDelete permanently removes an article and, via cascading constraints,
// its approval record and history.
func (s *Service) HardDelete(ctx context.Context, actor *shared.Actor, articleID uuid.UUID) error {
	if actor == nil {
		return shared.ErrUnauthorized
	}
	if !rbac.Has(rbac.Role(actor.Role), rbac.CapHardDelete) {
		return fmt.Errorf("%w: hard_delete capability required", shared.ErrForbidden)
	}
	if err := s.repo.DeleteArticle(ctx, articleID); err != nil {
		return err
	}
	s.recordActivity(ctx, actor.ID, "articles.hard_delete", articleID, nil)
	return nil
}

// checkEditPermission allows privileged roles to edit anything; everyone
// else may only edit their own articles while still unpublished.
func (s *Service) checkEditPermission(role rbac.Role, actorID int64, article *Article) error {
	if rbac.Has(role, rbac.CapEditAny) {
		return nil
	}
	if article.AuthorID != actorID {
		return fmt.Errorf("%w: not the author", shared.ErrForbidden)
	}
	if article.Status == StatusPublished {
		return fmt.Errorf("%w: published articles are locked", shared.ErrForbidden)
	}
	return nil
}

func (s *Service) recordActivity(ctx context.Context, actorID int64, action string, articleID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.ActivityEntry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "article",
		EntityID: articleID.String(),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("activity record skipped", slog.String("action", action), slog.Any("error", err))
	}
}
