package promotions

import (
	"time"

	"github.com/google/uuid"
)

// GrantRequest carries the caller-supplied promotion parameters. Hours
// overrides the kind/tier default duration when set.
type GrantRequest struct {
	Tier     string `json:"tier,omitempty" validate:"omitempty,max=20"`
	Position *int   `json:"position,omitempty" validate:"omitempty,gte=1,lte=50"`
	Hours    *int   `json:"hours,omitempty" validate:"omitempty,gt=0,lte=720"`
}

// GrantResponse is the wire shape of a promotion grant.
type GrantResponse struct {
	ID        uuid.UUID  `json:"id"`
	ArticleID uuid.UUID  `json:"article_id"`
	Kind      Kind       `json:"kind"`
	Tier      string     `json:"tier,omitempty"`
	Position  *int       `json:"position,omitempty"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	GrantedBy int64      `json:"granted_by"`
}

// StatusResponse projects the currently active grant of every kind for one
// article, nil where nothing is active.
type StatusResponse struct {
	Featured   *GrantResponse `json:"featured"`
	Breaking   *GrantResponse `json:"breaking"`
	Pinned     *GrantResponse `json:"pinned"`
	EditorPick *GrantResponse `json:"editor_pick"`
}

func toResponse(g *Grant) *GrantResponse {
	if g == nil {
		return nil
	}
	return &GrantResponse{
		ID:        g.ID,
		ArticleID: g.ArticleID,
		Kind:      g.Kind,
		Tier:      g.Tier,
		Position:  g.Position,
		StartsAt:  g.StartsAt,
		EndsAt:    g.EndsAt,
		GrantedBy: g.GrantedBy,
	}
}
