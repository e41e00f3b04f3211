package dto

import (
	"encoding/json"

	"github.com/litigo/ediscovery-api/internal/models"
)

// RedactionRequest creates or rewrites a redaction region. Coordinates are
// normalized [0,1], top-left origin.
type RedactionRequest struct {
	PageNumber int             `json:"pageNumber" validate:"required,min=1"`
	X          float64         `json:"x" validate:"min=0,max=1"`
	Y          float64         `json:"y" validate:"min=0,max=1"`
	Width      float64         `json:"width" validate:"gt=0,max=1"`
	Height     float64         `json:"height" validate:"gt=0,max=1"`
	ReasonCode string          `json:"reasonCode" validate:"required"`
	Polygon    json.RawMessage `json:"polygon,omitempty"`
}

// Model converts the request into a redaction bound to a document.
func (r RedactionRequest) Model(documentID string) *models.Redaction {
	return &models.Redaction{
		DocumentID: documentID,
		PageNumber: r.PageNumber,
		X:          r.X,
		Y:          r.Y,
		Width:      r.Width,
		Height:     r.Height,
		ReasonCode: r.ReasonCode,
		Polygon:    models.RawJSON(r.Polygon),
	}
}
