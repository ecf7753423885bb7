package articles

import (
	"time"

	"github.com/google/uuid"
)

// Status is the externally visible publication state of an article.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// WorkflowStatus is the review-pipeline state, tracked separately from the
// publication status. Invariant: approved implies published, and any
// pending or rejected state keeps the article in draft.
type WorkflowStatus string

const (
	WorkflowDraft           WorkflowStatus = "draft"
	WorkflowPendingReview   WorkflowStatus = "pending_review"
	WorkflowPendingApproval WorkflowStatus = "pending_approval"
	WorkflowApproved        WorkflowStatus = "approved"
	WorkflowRejected        WorkflowStatus = "rejected"
)

// ReviewAction enumerates reviewer decisions.
type ReviewAction string

const (
	ActionApprove        ReviewAction = "approve"
	ActionReject         ReviewAction = "reject"
	ActionRequestChanges ReviewAction = "request_changes"
)

// defaultRejectionReason is recorded when a reviewer rejects without giving
// a reason. The operation succeeds with the fallback rather than failing.
const defaultRejectionReason = "Rejected without a stated reason"

// Article is a news article.
type Article struct {
	ID                uuid.UUID
	AuthorID          int64
	PrimaryCategoryID int64
	Title             string
	Slug              string
	Summary           string
	Body              string
	Status            Status
	PublishedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ApprovalRecord tracks the review pipeline for one article, one-to-one.
type ApprovalRecord struct {
	ArticleID        uuid.UUID
	WorkflowStatus   WorkflowStatus
	RequiresApproval bool
	SubmittedBy      int64
	SubmittedAt      time.Time
	ApprovedBy       *int64
	ApprovedAt       *time.Time
	RejectedBy       *int64
	RejectedAt       *time.Time
	RejectionReason  *string
}

// HistoryEntry is one append-only reviewer action. Entries are never
// updated or deleted.
type HistoryEntry struct {
	ID             int64
	ArticleID      uuid.UUID
	ReviewerID     int64
	Action         ReviewAction
	PreviousStatus WorkflowStatus
	NewStatus      WorkflowStatus
	Comments       string
	CreatedAt      time.Time
}
