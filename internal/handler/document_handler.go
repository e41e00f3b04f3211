package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/litigo/ediscovery-api/internal/dto"
	"github.com/litigo/ediscovery-api/internal/models"
	"github.com/litigo/ediscovery-api/internal/repository"
	"github.com/litigo/ediscovery-api/internal/service"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
	"github.com/litigo/ediscovery-api/pkg/response"
)

const maxUploadBytes = 200 << 20

// DocumentHandler exposes the document and folder endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload accepts one multipart file plus the owning matter id.
func (h *DocumentHandler) Upload(c *gin.Context) {
	matterID := c.PostForm("matterId")
	if matterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "matterId required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file required"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds upload limit"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	doc, err := h.documents.Upload(c.Request.Context(), matterID, fileHeader.Filename, contentType, data, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewDocumentResponse(doc))
}

// Get returns one document and records a view audit entry.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDocumentResponse(doc), nil)
}

// List pages through a matter's family-root documents.
func (h *DocumentHandler) List(c *gin.Context) {
	matterID := c.Query("matterId")
	if matterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "matterId required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, total, err := h.documents.ListFamilyRoots(c.Request.Context(), matterID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDocumentResponses(docs), &response.Pagination{
		Total:  int64(total),
		Limit:  limit,
		Offset: offset,
	})
}

// Family returns the family projection for the given document.
func (h *DocumentHandler) Family(c *gin.Context) {
	group, err := h.documents.GetFamily(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewFamilyResponse(group), nil)
}

// Attachments returns the direct children of a container document.
func (h *DocumentHandler) Attachments(c *gin.Context) {
	docs, err := h.documents.GetAttachments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDocumentResponses(docs), nil)
}

// UpdateCoding patches review coding fields.
func (h *DocumentHandler) UpdateCoding(c *gin.Context) {
	var req dto.CodingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid coding payload"))
		return
	}
	doc, err := h.documents.UpdateCoding(c.Request.Context(), c.Param("id"), repository.UpdateCodingParams{
		Relevance: req.Relevance,
		Privilege: req.Privilege,
		IssueTags: req.IssueTags,
	}, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDocumentResponse(doc), nil)
}

// Reingest re-enqueues ingestion, optionally forcing OCR.
func (h *DocumentHandler) Reingest(c *gin.Context) {
	var req dto.ReingestRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reingest payload"))
		return
	}
	if err := h.documents.Reingest(c.Request.Context(), c.Param("id"), req.ForceOCR); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "queued"}, nil)
}

// CreateFolder persists a new review folder.
func (h *DocumentHandler) CreateFolder(c *gin.Context) {
	var req dto.FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid folder payload"))
		return
	}
	if err := dto.Validate(req); err != nil {
		response.Error(c, err)
		return
	}
	folder := &models.Folder{MatterID: req.MatterID, ParentID: req.ParentID, Name: req.Name}
	if err := h.documents.CreateFolder(c.Request.Context(), folder); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, folder)
}

// ListFolders returns a matter's review folders.
func (h *DocumentHandler) ListFolders(c *gin.Context) {
	matterID := c.Query("matterId")
	if matterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "matterId required"))
		return
	}
	folders, err := h.documents.ListFolders(c.Request.Context(), matterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, folders, nil)
}

// FileDocument assigns a document to a folder.
func (h *DocumentHandler) FileDocument(c *gin.Context) {
	var req dto.FileDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	if err := dto.Validate(req); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.documents.FileDocument(c.Request.Context(), c.Param("id"), req.DocumentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnfileDocument removes a document from a folder.
func (h *DocumentHandler) UnfileDocument(c *gin.Context) {
	if err := h.documents.UnfileDocument(c.Request.Context(), c.Param("id"), c.Param("documentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// actorID resolves the acting user from the X-User-ID header; authentication
// itself lives at the gateway in front of this service.
func actorID(c *gin.Context) *string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return &id
	}
	return nil
}
