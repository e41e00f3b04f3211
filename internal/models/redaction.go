package models

import "time"

// Redaction is a reviewer-authored opaque region on one page of a document.
// Coordinates are normalized [0,1] with a top-left origin; the rectangle is
// authoritative for burn-in even when a free-form polygon is attached.
type Redaction struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"documentId"`
	PageNumber int       `db:"page_number" json:"pageNumber"`
	X          float64   `db:"x" json:"x"`
	Y          float64   `db:"y" json:"y"`
	Width      float64   `db:"width" json:"width"`
	Height     float64   `db:"height" json:"height"`
	ReasonCode string    `db:"reason_code" json:"reasonCode"`
	Polygon    RawJSON   `db:"polygon" json:"polygon,omitempty"`
	CreatedBy  *string   `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
