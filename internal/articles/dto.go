package articles

import (
	"time"

	"github.com/google/uuid"
)

// SubmitRequest creates or updates an article together with its workflow
// record. Re-submitting overwrites the workflow state atomically with the
// content update.
type SubmitRequest struct {
	ArticleID         *uuid.UUID `json:"article_id,omitempty"`
	Title             string     `json:"title" validate:"required,max=300"`
	Summary           string     `json:"summary" validate:"max=1000"`
	Body              string     `json:"body" validate:"required"`
	PrimaryCategoryID int64      `json:"primary_category_id" validate:"required,gt=0"`
	DesiredStatus     string     `json:"desired_status" validate:"required,oneof=draft published"`
}

type ReviewRequest struct {
	Action   string `json:"action" validate:"required"`
	Comments string `json:"comments" validate:"max=2000"`
}

type ListArticlesRequest struct {
	Status     *Status
	AuthorID   *int64
	CategoryID *int64
	Page       int
	PerPage    int
}

// ArticleResponse is the wire shape of an article plus its workflow record.
type ArticleResponse struct {
	ID                uuid.UUID        `json:"id"`
	AuthorID          int64            `json:"author_id"`
	PrimaryCategoryID int64            `json:"primary_category_id"`
	Title             string           `json:"title"`
	Slug              string           `json:"slug"`
	Summary           string           `json:"summary,omitempty"`
	Body              string           `json:"body,omitempty"`
	Status            Status           `json:"status"`
	PublishedAt       *time.Time       `json:"published_at,omitempty"`
	Workflow          *WorkflowDetails `json:"workflow,omitempty"`
}

type WorkflowDetails struct {
	Status           WorkflowStatus `json:"status"`
	RequiresApproval bool           `json:"requires_approval"`
	SubmittedBy      int64          `json:"submitted_by"`
	SubmittedAt      time.Time      `json:"submitted_at"`
	ApprovedBy       *int64         `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty"`
	RejectedBy       *int64         `json:"rejected_by,omitempty"`
	RejectedAt       *time.Time     `json:"rejected_at,omitempty"`
	RejectionReason  *string        `json:"rejection_reason,omitempty"`
}

type HistoryResponse struct {
	ReviewerID     int64          `json:"reviewer_id"`
	Action         ReviewAction   `json:"action"`
	PreviousStatus WorkflowStatus `json:"previous_status"`
	NewStatus      WorkflowStatus `json:"new_status"`
	Comments       string         `json:"comments,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func toResponse(a *Article, rec *ApprovalRecord) ArticleResponse {
	resp := ArticleResponse{
		ID:                a.ID,
		AuthorID:          a.AuthorID,
		PrimaryCategoryID: a.PrimaryCategoryID,
		Title:             a.Title,
		Slug:              a.Slug,
		Summary:           a.Summary,
		Body:              a.Body,
		Status:            a.Status,
		PublishedAt:       a.PublishedAt,
	}
	if rec != nil {
		resp.Workflow = &WorkflowDetails{
			Status:           rec.WorkflowStatus,
			RequiresApproval: rec.RequiresApproval,
			SubmittedBy:      rec.SubmittedBy,
			SubmittedAt:      rec.SubmittedAt,
			ApprovedBy:       rec.ApprovedBy,
			ApprovedAt:       rec.ApprovedAt,
			RejectedBy:       rec.RejectedBy,
			RejectedAt:       rec.RejectedAt,
			RejectionReason:  rec.RejectionReason,
		}
	}
	return resp
}
