package dto

import (
	"time"

	"github.com/litigo/ediscovery-api/internal/models"
)

// DocumentResponse is the API projection of a document.
type DocumentResponse struct {
	ID               string                `json:"id"`
	MatterID         string                `json:"matterId"`
	ParentID         *string               `json:"parentId,omitempty"`
	FamilyID         string                `json:"familyId"`
	FamilyIndex      int                   `json:"familyIndex"`
	OriginalFilename string                `json:"originalFilename"`
	ContentType      string                `json:"contentType"`
	HashMD5          string                `json:"hashMd5"`
	HashSHA1         string                `json:"hashSha1"`
	Status           models.DocumentStatus `json:"status"`
	ErrorMessage     *string               `json:"errorMessage,omitempty"`
	Metadata         models.MetadataMap    `json:"metadata"`
	HasText          bool                  `json:"hasText"`
	Relevance        *bool                 `json:"relevance,omitempty"`
	Privilege        *bool                 `json:"privilege,omitempty"`
	IssueTags        []string              `json:"issueTags,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// NewDocumentResponse maps the model onto the API projection.
func NewDocumentResponse(doc *models.Document) DocumentResponse {
	return DocumentResponse{
		ID:               doc.ID,
		MatterID:         doc.MatterID,
		ParentID:         doc.ParentID,
		FamilyID:         doc.FamilyID,
		FamilyIndex:      doc.FamilyIndex,
		OriginalFilename: doc.OriginalFilename,
		ContentType:      doc.ContentType,
		HashMD5:          doc.HashMD5,
		HashSHA1:         doc.HashSHA1,
		Status:           doc.Status,
		ErrorMessage:     doc.ErrorMessage,
		Metadata:         doc.Metadata,
		HasText:          doc.TextPath != nil && *doc.TextPath != "",
		Relevance:        doc.Relevance,
		Privilege:        doc.Privilege,
		IssueTags:        doc.IssueTags,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

// NewDocumentResponses maps a slice.
func NewDocumentResponses(docs []models.Document) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = NewDocumentResponse(&docs[i])
	}
	return out
}

// FamilyResponse is the family projection.
type FamilyResponse struct {
	Root     DocumentResponse   `json:"root"`
	Children []DocumentResponse `json:"children"`
}

// NewFamilyResponse maps a family group.
func NewFamilyResponse(group *models.FamilyGroup) FamilyResponse {
	return FamilyResponse{
		Root:     NewDocumentResponse(&group.Root),
		Children: NewDocumentResponses(group.Children),
	}
}

// CodingRequest patches review coding fields; omitted fields stay untouched.
type CodingRequest struct {
	Relevance *bool     `json:"relevance"`
	Privilege *bool     `json:"privilege"`
	IssueTags *[]string `json:"issueTags"`
}

// ReingestRequest re-runs ingestion for a document.
type ReingestRequest struct {
	ForceOCR bool `json:"forceOcr"`
}

// FolderRequest creates a review folder.
type FolderRequest struct {
	MatterID string  `json:"matterId" validate:"required"`
	ParentID *string `json:"parentId"`
	Name     string  `json:"name" validate:"required"`
}

// FileDocumentRequest assigns a document to a folder.
type FileDocumentRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
}
