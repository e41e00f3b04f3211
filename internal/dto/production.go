package dto

import (
	"time"

	"github.com/litigo/ediscovery-api/internal/models"
)

// ProductionRequest defines a new production job.
type ProductionRequest struct {
	MatterID          string  `json:"matterId" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	BatesPrefix       string  `json:"batesPrefix" validate:"required,bates_prefix"`
	BatesStart        int     `json:"batesStart" validate:"required,min=1"`
	FolderID          *string `json:"folderId"`
	IncludeSubfolders bool    `json:"includeSubfolders"`
}

// Model converts the request into a production row.
func (r ProductionRequest) Model() *models.Production {
	return &models.Production{
		MatterID:          r.MatterID,
		Name:              r.Name,
		BatesPrefix:       r.BatesPrefix,
		BatesStart:        r.BatesStart,
		FolderID:          r.FolderID,
		IncludeSubfolders: r.IncludeSubfolders,
	}
}

// ProductionResponse is the API projection of a production job.
type ProductionResponse struct {
	ID                string                  `json:"id"`
	MatterID          string                  `json:"matterId"`
	Name              string                  `json:"name"`
	BatesPrefix       string                  `json:"batesPrefix"`
	BatesStart        int                     `json:"batesStart"`
	FolderID          *string                 `json:"folderId,omitempty"`
	IncludeSubfolders bool                    `json:"includeSubfolders"`
	Status            models.ProductionStatus `json:"status"`
	OutputPath        *string                 `json:"outputPath,omitempty"`
	ErrorMessage      *string                 `json:"errorMessage,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	StartedAt         *time.Time              `json:"startedAt,omitempty"`
	CompletedAt       *time.Time              `json:"completedAt,omitempty"`
}

// NewProductionResponse maps the model onto the API projection.
func NewProductionResponse(production *models.Production) ProductionResponse {
	return ProductionResponse{
		ID:                production.ID,
		MatterID:          production.MatterID,
		Name:              production.Name,
		BatesPrefix:       production.BatesPrefix,
		BatesStart:        production.BatesStart,
		FolderID:          production.FolderID,
		IncludeSubfolders: production.IncludeSubfolders,
		Status:            production.Status,
		OutputPath:        production.OutputPath,
		ErrorMessage:      production.ErrorMessage,
		CreatedAt:         production.CreatedAt,
		StartedAt:         production.StartedAt,
		CompletedAt:       production.CompletedAt,
	}
}

// ReportTokenResponse returns a signed audit-report download token.
type ReportTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
