// Package promotions implements the promotion lifecycle: time-bounded
// visibility boosts granted per article and kind, revoked manually or by
// the periodic expiry sweep.
package promotions

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags a promotion grant. One generic engine serves all four kinds,
// parameterized by the metadata below.
type Kind string

const (
	KindFeatured   Kind = "featured"
	KindBreaking   Kind = "breaking"
	KindPinned     Kind = "pinned"
	KindEditorPick Kind = "editor_pick"
)

// Kinds lists all promotion kinds in sweep order.
var Kinds = []Kind{KindFeatured, KindBreaking, KindPinned, KindEditorPick}

// Grant is one promotion record. At most one grant per (article, kind) is
// active at any instant; granting a new one soft-removes the previous.
type Grant struct {
	ID              uuid.UUID
	ArticleID       uuid.UUID
	Kind            Kind
	Tier            string
	Position        *int
	StartsAt        time.Time
	EndsAt          *time.Time
	ManuallyRemoved bool
	GrantedBy       int64
	CreatedAt       time.Time
}

// ActiveAt reports whether the grant is active at the given instant.
// "Active" is always computed, never stored: an expired grant is inactive
// even before the sweeper flags it.
func (g Grant) ActiveAt(now time.Time) bool {
	if g.ManuallyRemoved {
		return false
	}
	return g.EndsAt == nil || g.EndsAt.After(now)
}

// kindMeta captures the per-kind validation and ordering rules.
type kindMeta struct {
	// grantTiers are the values accepted on the grant path.
	grantTiers []string
	// readTiers additionally covers legacy values that may still sit in
	// stored rows; their order here is the public listing order.
	readTiers     []string
	needsPosition bool
}

var kindMetadata = map[Kind]kindMeta{
	KindFeatured: {
		grantTiers: []string{"gold", "silver", "bronze"},
		readTiers:  []string{"gold", "silver", "bronze"},
	},
	KindBreaking: {
		grantTiers: []string{"high", "medium", "low"},
		// urgent is a legacy priority: valid on read and ordered first,
		// but no longer grantable.
		readTiers: []string{"urgent", "high", "medium", "low"},
	},
	KindPinned: {
		grantTiers:    []string{"gold", "silver", "bronze"},
		readTiers:     []string{"gold", "silver", "bronze"},
		needsPosition: true,
	},
	KindEditorPick: {},
}

// ValidKind reports whether the kind is known.
func ValidKind(kind Kind) bool {
	_, ok := kindMetadata[kind]
	return ok
}

// GrantableTier reports whether the tier may be used when creating a grant
// of the given kind.
func GrantableTier(kind Kind, tier string) bool {
	meta, ok := kindMetadata[kind]
	if !ok {
		return false
	}
	if len(meta.grantTiers) == 0 {
		return tier == ""
	}
	for _, t := range meta.grantTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// NeedsPosition reports whether the kind carries a pin position.
func NeedsPosition(kind Kind) bool {
	return kindMetadata[kind].needsPosition
}

// TierRank orders tiers for listing; unknown tiers sort last.
func TierRank(kind Kind, tier string) int {
	tiers := kindMetadata[kind].readTiers
	for i, t := range tiers {
		if t == tier {
			return i + 1
		}
	}
	return len(tiers) + 1
}

// DefaultDuration returns the default lifetime of a grant. Editor picks
// never expire unless the caller sets an explicit duration.
func DefaultDuration(kind Kind, tier string) time.Duration {
	switch kind {
	case KindFeatured:
		return 72 * time.Hour
	case KindBreaking:
		return 12 * time.Hour
	case KindPinned:
		if tier == "gold" {
			return 72 * time.Hour
		}
		return 48 * time.Hour
	}
	return 0
}
