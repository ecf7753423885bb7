package promotions

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

type stubRepo struct {
	mu       sync.Mutex
	articles map[uuid.UUID]bool
	grants   []*Grant
	rowLocks map[uuid.UUID]*sync.Mutex

	activeByArticleCalls int
	sweepErr             map[Kind]error
}

func newStubRepo(articleIDs ...uuid.UUID) *stubRepo {
	r := &stubRepo{
		articles: make(map[uuid.UUID]bool),
		rowLocks: make(map[uuid.UUID]*sync.Mutex),
	}
	for _, id := range articleIDs {
		r.articles[id] = true
	}
	return r
}

// stubTx emulates transaction scope: row locks taken via LockArticle are
// held until the closure returns, matching FOR UPDATE semantics.
type stubTx struct {
	*stubRepo
	held []*sync.Mutex
}

func (r *stubRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	tx := &stubTx{stubRepo: r}
	defer func() {
		for _, l := range tx.held {
			l.Unlock()
		}
	}()
	return fn(ctx, tx)
}

func (tx *stubTx) LockArticle(ctx context.Context, articleID uuid.UUID) error {
	tx.mu.Lock()
	if !tx.articles[articleID] {
		tx.mu.Unlock()
		return shared.ErrNotFound
	}
	lock, ok := tx.rowLocks[articleID]
	if !ok {
		lock = &sync.Mutex{}
		tx.rowLocks[articleID] = lock
	}
	tx.mu.Unlock()
	lock.Lock()
	tx.held = append(tx.held, lock)
	return nil
}

func (r *stubRepo) LockArticle(ctx context.Context, articleID uuid.UUID) error {
	return errors.New("row lock requires a transaction")
}

func (r *stubRepo) ArticleExists(ctx context.Context, articleID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.articles[articleID], nil
}

func (r *stubRepo) Insert(ctx context.Context, grant Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	grant.CreatedAt = grant.StartsAt
	r.grants = append(r.grants, &grant)
	return nil
}

func (r *stubRepo) DeactivateActive(ctx context.Context, articleID uuid.UUID, kind Kind, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, g := range r.grants {
		if g.ArticleID == articleID && g.Kind == kind && g.ActiveAt(now) {
			g.ManuallyRemoved = true
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) ActiveByArticle(ctx context.Context, articleID uuid.UUID, now time.Time) ([]Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeByArticleCalls++
	var out []Grant
	for _, g := range r.grants {
		if g.ArticleID == articleID && g.ActiveAt(now) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *stubRepo) ListActive(ctx context.Context, kind Kind, now time.Time) ([]Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Grant
	for _, g := range r.grants {
		if g.Kind == kind && g.ActiveAt(now) {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return TierRank(kind, out[i].Tier) < TierRank(kind, out[j].Tier)
	})
	return out, nil
}

func (r *stubRepo) SweepExpired(ctx context.Context, kind Kind, now time.Time) ([]uuid.UUID, error) {
	if err := r.sweepErr[kind]; err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept []uuid.UUID
	for _, g := range r.grants {
		if g.Kind == kind && !g.ManuallyRemoved && g.EndsAt != nil && !g.EndsAt.After(now) {
			g.ManuallyRemoved = true
			swept = append(swept, g.ArticleID)
		}
	}
	return swept, nil
}

func (r *stubRepo) PurgeInactive(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*Grant
	var n int64
	for _, g := range r.grants {
		inactive := g.ManuallyRemoved || (g.EndsAt != nil && !g.EndsAt.After(olderThan))
		cutoff := g.CreatedAt
		if g.EndsAt != nil {
			cutoff = *g.EndsAt
		}
		if inactive && !cutoff.After(olderThan) {
			n++
			continue
		}
		kept = append(kept, g)
	}
	r.grants = kept
	return n, nil
}

type stubAudit struct {
	actions []string
}

func (s *stubAudit) Record(ctx context.Context, entry shared.ActivityEntry) error {
	s.actions = append(s.actions, entry.Action)
	return nil
}

func actor(id int64, role rbac.Role) *shared.Actor {
	return &shared.Actor{ID: id, Role: string(role), Status: "active"}
}

type clock struct {
	current time.Time
}

func (c *clock) now() time.Time { return c.current }

func (c *clock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestService(repo *stubRepo, audit *stubAudit, c *clock) *Service {
	svc := NewService(repo, audit, nil, nil, false)
	svc.now = c.now
	return svc
}

func TestGrantDeactivatesPriorActiveGrant(t *testing.T) {
	articleID := uuid.New()
	repo := newStubRepo(articleID)
	c := &clock{current: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(repo, &stubAudit{}, c)

	gold, err := svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindFeatured, GrantRequest{Tier: "gold"})
	require.NoError(t, err)
	require.NotNil(t, gold.EndsAt)
	assert.Equal(t, c.current.Add(72*time.Hour), *gold.EndsAt)

	c.advance(time.Hour)
	silver, err := svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindFeatured, GrantRequest{Tier: "silver"})
	require.NoError(t, err)

	active, err := repo.ActiveByArticle(context.Background(), articleID, c.current)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, silver.ID, active[0].ID)
	assert.Equal(t, "silver", active[0].Tier)

	// The gold grant shows manually_removed.
	for _, g := range repo.grants {
		if g.ID == gold.ID {
			assert.True(t, g.ManuallyRemoved)
		}
	}
}

// Two first-time grants racing on the same (article, kind) must not both
// commit as active: the article row lock serializes them so the loser sees
// and deactivates the winner.
func TestConcurrentGrantsLeaveOneActive(t *testing.T) {
	articleID := uuid.New()
	repo := newStubRepo(articleID)
	c := &clock{current: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(repo, &stubAudit{}, c)

	var wg sync.WaitGroup
	tiers := []string{"gold", "silver"}
	for _, tier := range tiers {
		wg.Add(1)
		go func(tier string) {
			defer wg.Done()
			_, err := svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindFeatured, GrantRequest{Tier: tier})
			assert.NoError(t, err)
		}(tier)
	}
	wg.Wait()

	active, err := repo.ActiveByArticle(context.Background(), articleID, c.current)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.grants, 2)
	var removed int
	for _, g := range repo.grants {
		if g.ManuallyRemoved {
			removed++
		}
	}
	assert.Equal(t, 1, removed)
}

func TestGrantValidation(t *testing.T) {
	articleID := uuid.New()
	repo := newStubRepo(articleID)
	c := &clock{current: time.Now().UTC()}
	svc := newTestService(repo, &stubAudit{}, c)
	admin := actor(1, rbac.RoleAdmin)

	_, err := svc.Grant(context.Background(), admin, articleID, "spotlight", GrantRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Grant(context.Background(), admin, articleID, KindFeatured, GrantRequest{Tier: "platinum"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	// urgent is legacy: orderable on reads but no longer grantable.
	_, err = svc.Grant(context.Background(), admin, articleID, KindBreaking, GrantRequest{Tier: "urgent"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Grant(context.Background(), admin, articleID, KindPinned, GrantRequest{Tier: "gold"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Grant(context.Background(), admin, uuid.New(), KindFeatured, GrantRequest{Tier: "gold"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGrantCapabilityGates(t *testing.T) {
	articleID := uuid.New()
	repo := newStubRepo(articleID)
	c := &clock{current: time.Now().UTC()}
	svc := newTestService(repo, &stubAudit{}, c)

	_, err := svc.Grant(context.Background(), actor(5, rbac.RoleModerator), articleID, KindFeatured, GrantRequest{Tier: "gold"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// Editor picks only require authentication under the default policy.
	pick, err := svc.Grant(context.Background(), actor(5, rbac.RoleModerator), articleID, KindEditorPick, GrantRequest{})
	require.NoError(t, err)
	assert.Nil(t, pick.EndsAt)

	// With the stricter policy enabled the same call is forbidden.
	strict := newTestService(repo, &stubAudit{}, c)
	strict.editorPickRequiresPublish = true
	_, err = strict.Grant(context.Background(), actor(5, rbac.RoleModerator), articleID, KindEditorPick, GrantRequest{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestPinnedDurationDependsOnTier(t *testing.T) {
	articleID := uuid.New()
	repo := newStubRepo(articleID)
	c := &clock{current: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(repo, &stubAudit{}, c)
	pos := 1

	gold, err := svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindPinned, GrantRequest{Tier: "gold", Position: &pos})
	require.NoError(t, err)
	assert.Equal(t, c.current.Add(72*time.Hour), *gold.EndsAt)

	silver, err := svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindPinned, GrantRequest{Tier: "silver", Position: &pos})
	require.NoError(t, err)
	assert.Equal(t, c.current.Add(48*time.Hour), *silver.EndsAt)

	hours := 6
	custom, err := svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindBreaking, GrantRequest{Tier: "high", Hours: &hours})
	require.NoError(t, err)
	assert.Equal(t, c.current.Add(6*time.Hour), *custom.EndsAt)
}

func TestRevokeIsIdempotent(t *testing.T) {
	articleID := uuid.New()
	repo := newStubRepo(articleID)
	audit := &stubAudit{}
	c := &clock{current: time.Now().UTC()}
	svc := newTestService(repo, audit, c)

	_, err := svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindBreaking, GrantRequest{Tier: "high"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindBreaking))
	require.NoError(t, svc.Revoke(context.Background(), actor(1, rbac.RoleAdmin), articleID, KindBreaking))

	status, err := svc.ActiveStatus(context.Background(), articleID)
	require.NoError(t, err)
	assert.Nil(t, status.Breaking)

	// Only the effective revoke is audited.
	assert.Equal(t, []string{"promotions.grant", "promotions.revoke"}, audit.actions)
}

func TestExpiredGrantNeverAppearsActive(t *testing.T) {
	articleID := uuid.New()
	repo := newStubRepo(articleID)
	c := &clock{current: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(repo, &stubAudit{}, c)

	// A breaking grant that expired a minute ago but was never swept.
	past := c.current.Add(-time.Minute)
	repo.grants = append(repo.grants, &Grant{
		ID:        uuid.New(),
		ArticleID: articleID,
		Kind:      KindBreaking,
		Tier:      "high",
		StartsAt:  past.Add(-12 * time.Hour),
		EndsAt:    &past,
		CreatedAt: past.Add(-12 * time.Hour),
	})

	status, err := svc.ActiveStatus(context.Background(), articleID)
	require.NoError(t, err)
	assert.Nil(t, status.Breaking)

	// The sweeper later flags it as removed too.
	sweeper := NewSweeper(repo, nil, nil)
	counts, err := sweeper.Tick(context.Background(), c.current)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[KindBreaking])
	assert.True(t, repo.grants[0].ManuallyRemoved)
}

func TestListActiveOrdersByTier(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	repo := newStubRepo(a, b)
	c := &clock{current: time.Now().UTC()}
	svc := newTestService(repo, &stubAudit{}, c)

	_, err := svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), a, KindFeatured, GrantRequest{Tier: "bronze"})
	require.NoError(t, err)
	_, err = svc.Grant(context.Background(), actor(1, rbac.RoleAdmin), b, KindFeatured, GrantRequest{Tier: "gold"})
	require.NoError(t, err)

	grants, err := svc.ListActive(context.Background(), KindFeatured)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, "gold", grants[0].Tier)
	assert.Equal(t, "bronze", grants[1].Tier)

	_, err = svc.ListActive(context.Background(), "spotlight")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
