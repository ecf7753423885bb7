package articles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

type stubRepo struct {
	articles  map[uuid.UUID]*Article
	approvals map[uuid.UUID]*ApprovalRecord
	history   []HistoryEntry
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		articles:  make(map[uuid.UUID]*Article),
		approvals: make(map[uuid.UUID]*ApprovalRecord),
	}
}

func (r *stubRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *stubRepo) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	a, ok := r.articles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubRepo) ListArticles(ctx context.Context, req ListArticlesRequest) ([]Article, int, error) {
	var out []Article
	for _, a := range r.articles {
		if req.Status != nil && a.Status != *req.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (r *stubRepo) InsertArticle(ctx context.Context, article Article) error {
	if _, ok := r.articles[article.ID]; ok {
		return shared.ErrConflict
	}
	r.articles[article.ID] = &article
	return nil
}

func (r *stubRepo) UpdateArticle(ctx context.Context, article Article) error {
	if _, ok := r.articles[article.ID]; !ok {
		return shared.ErrNotFound
	}
	r.articles[article.ID] = &article
	return nil
}

func (r *stubRepo) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.articles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.articles, id)
	delete(r.approvals, id)
	return nil
}

func (r *stubRepo) GetApproval(ctx context.Context, articleID uuid.UUID) (*ApprovalRecord, error) {
	rec, ok := r.approvals[articleID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (r *stubRepo) UpsertApproval(ctx context.Context, rec ApprovalRecord) error {
	r.approvals[rec.ArticleID] = &rec
	return nil
}

func (r *stubRepo) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	r.history = append(r.history, entry)
	return nil
}

func (r *stubRepo) ListHistory(ctx context.Context, articleID uuid.UUID) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for _, e := range r.history {
		if e.ArticleID == articleID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubAudit struct {
	entries []shared.ActivityEntry
	fail    bool
}

func (s *stubAudit) Record(ctx context.Context, entry shared.ActivityEntry) error {
	if s.fail {
		return errors.New("audit sink down")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func actor(id int64, role rbac.Role) *shared.Actor {
	return &shared.Actor{ID: id, Role: string(role), Status: "active"}
}

func newTestService(repo *stubRepo, audit *stubAudit) *Service {
	svc := NewService(repo, audit, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	return svc
}

func submitReq(desired string) SubmitRequest {
	return SubmitRequest{
		Title:             "Breaking story",
		Body:              "body",
		PrimaryCategoryID: 3,
		DesiredStatus:     desired,
	}
}

func TestEditorPublishesDirectly(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	article, rec, err := svc.Submit(context.Background(), actor(10, rbac.RoleEditor), submitReq("published"))
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, article.Status)
	assert.Equal(t, WorkflowApproved, rec.WorkflowStatus)
	assert.False(t, rec.RequiresApproval)
	require.NotNil(t, article.PublishedAt)
	assert.Equal(t, "breaking-story", article.Slug)
}

func TestModeratorPublishGoesToPendingApproval(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	article, rec, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("published"))
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, article.Status)
	assert.Equal(t, WorkflowPendingApproval, rec.WorkflowStatus)
	assert.True(t, rec.RequiresApproval)
	assert.Nil(t, article.PublishedAt)
}

func TestResubmitOverwritesWorkflowRecord(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	article, _, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("published"))
	require.NoError(t, err)

	// Author reworks it and saves as draft: workflow resets.
	req := submitReq("draft")
	req.ArticleID = &article.ID
	req.Title = "Reworked story"
	_, rec, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), req)
	require.NoError(t, err)
	assert.Equal(t, WorkflowDraft, rec.WorkflowStatus)
	assert.False(t, rec.RequiresApproval)

	stored, err := repo.GetApproval(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, WorkflowDraft, stored.WorkflowStatus)
}

func TestApprovePublishesAndAppendsHistory(t *testing.T) {
	repo := newStubRepo()
	audit := &stubAudit{}
	svc := newTestService(repo, audit)

	article, _, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("published"))
	require.NoError(t, err)

	updated, rec, err := svc.Review(context.Background(), actor(10, rbac.RoleEditor), article.ID, ReviewRequest{
		Action:   "approve",
		Comments: "good to go",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, updated.Status)
	assert.Equal(t, WorkflowApproved, rec.WorkflowStatus)
	require.NotNil(t, rec.ApprovedBy)
	assert.Equal(t, int64(10), *rec.ApprovedBy)
	require.NotNil(t, updated.PublishedAt)

	history, err := repo.ListHistory(context.Background(), article.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ActionApprove, history[0].Action)
	assert.Equal(t, WorkflowPendingApproval, history[0].PreviousStatus)
	assert.Equal(t, WorkflowApproved, history[0].NewStatus)
}

func TestRejectFallsBackToDefaultReason(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	article, _, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("published"))
	require.NoError(t, err)

	updated, rec, err := svc.Review(context.Background(), actor(10, rbac.RoleEditor), article.ID, ReviewRequest{Action: "reject"})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, updated.Status)
	assert.Equal(t, WorkflowRejected, rec.WorkflowStatus)
	require.NotNil(t, rec.RejectionReason)
	assert.Equal(t, defaultRejectionReason, *rec.RejectionReason)
}

func TestRequestChangesMovesToPendingReview(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	article, _, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("published"))
	require.NoError(t, err)

	updated, rec, err := svc.Review(context.Background(), actor(10, rbac.RoleEditor), article.ID, ReviewRequest{
		Action:   "request_changes",
		Comments: "tighten the lede",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, updated.Status)
	assert.Equal(t, WorkflowPendingReview, rec.WorkflowStatus)
	require.NotNil(t, rec.RejectionReason)
	assert.Equal(t, "tighten the lede", *rec.RejectionReason)
}

func TestReviewGuards(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	article, _, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("published"))
	require.NoError(t, err)

	// Moderators cannot review.
	_, _, err = svc.Review(context.Background(), actor(20, rbac.RoleModerator), article.ID, ReviewRequest{Action: "approve"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// Unknown action is rejected before any write.
	_, _, err = svc.Review(context.Background(), actor(10, rbac.RoleEditor), article.ID, ReviewRequest{Action: "promote"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	// Missing article.
	_, _, err = svc.Review(context.Background(), actor(10, rbac.RoleEditor), uuid.New(), ReviewRequest{Action: "approve"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApprovedAlwaysMeansPublished(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	a1, _, err := svc.Submit(context.Background(), actor(10, rbac.RoleEditor), submitReq("published"))
	require.NoError(t, err)
	a2, _, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("published"))
	require.NoError(t, err)
	_, _, err = svc.Review(context.Background(), actor(10, rbac.RoleEditor), a2.ID, ReviewRequest{Action: "approve"})
	require.NoError(t, err)
	a3, _, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("published"))
	require.NoError(t, err)
	_, _, err = svc.Review(context.Background(), actor(10, rbac.RoleEditor), a3.ID, ReviewRequest{Action: "reject"})
	require.NoError(t, err)
	_ = a1

	for id, rec := range repo.approvals {
		article := repo.articles[id]
		if rec.WorkflowStatus == WorkflowApproved {
			assert.Equal(t, StatusPublished, article.Status, "approved article %s must be published", id)
		} else {
			assert.NotEqual(t, StatusPublished, article.Status, "non-approved article %s must not be published", id)
		}
	}
}

func TestModeratorEditOwnershipRules(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	own, _, err := svc.Submit(context.Background(), actor(20, rbac.RoleModerator), submitReq("draft"))
	require.NoError(t, err)
	other, _, err := svc.Submit(context.Background(), actor(21, rbac.RoleModerator), submitReq("draft"))
	require.NoError(t, err)

	// Own unpublished article: allowed.
	req := submitReq("draft")
	req.ArticleID = &own.ID
	_, _, err = svc.Submit(context.Background(), actor(20, rbac.RoleModerator), req)
	assert.NoError(t, err)

	// Someone else's article: forbidden regardless of status.
	req.ArticleID = &other.ID
	_, _, err = svc.Submit(context.Background(), actor(20, rbac.RoleModerator), req)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// Own article once published: forbidden for moderators.
	_, _, err = svc.Review(context.Background(), actor(10, rbac.RoleEditor), own.ID, ReviewRequest{Action: "approve"})
	require.NoError(t, err)
	req.ArticleID = &own.ID
	_, _, err = svc.Submit(context.Background(), actor(20, rbac.RoleModerator), req)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// An editor with edit_any can still touch it.
	_, _, err = svc.Submit(context.Background(), actor(10, rbac.RoleEditor), req)
	assert.NoError(t, err)
}

func TestArchiveAndDeleteGates(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{})

	article, _, err := svc.Submit(context.Background(), actor(10, rbac.RoleEditor), submitReq("published"))
	require.NoError(t, err)

	_, err = svc.Archive(context.Background(), actor(20, rbac.RoleModerator), article.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	archived, err := svc.Archive(context.Background(), actor(10, rbac.RoleEditor), article.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)

	restored, err := svc.Restore(context.Background(), actor(10, rbac.RoleEditor), article.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, restored.Status)

	// Editors cannot hard-delete; super admins can.
	err = svc.HardDelete(context.Background(), actor(10, rbac.RoleEditor), article.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	err = svc.HardDelete(context.Background(), actor(1, rbac.RoleSuperAdmin), article.ID)
	require.NoError(t, err)
	_, err = repo.GetArticle(context.Background(), article.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubAudit{fail: true})

	article, rec, err := svc.Submit(context.Background(), actor(10, rbac.RoleEditor), submitReq("published"))
	require.NoError(t, err)
	assert.Equal(t, WorkflowApproved, rec.WorkflowStatus)
	_, err = repo.GetArticle(context.Background(), article.ID)
	assert.NoError(t, err)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Breaking: Él Niño returns!": "breaking-el-nino-returns",
		"  spaced   out  ":           "spaced-out",
		"Çüéâäà":                     "cueaaa",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
