package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/litigo/ediscovery-api/internal/dto"
	"github.com/litigo/ediscovery-api/internal/service"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
	"github.com/litigo/ediscovery-api/pkg/response"
)

// RedactionHandler exposes redaction CRUD on documents.
type RedactionHandler struct {
	redactions *service.RedactionService
}

// NewRedactionHandler constructs the handler.
func NewRedactionHandler(redactions *service.RedactionService) *RedactionHandler {
	return &RedactionHandler{redactions: redactions}
}

// Create adds a redaction to a document page.
func (h *RedactionHandler) Create(c *gin.Context) {
	var req dto.RedactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid redaction payload"))
		return
	}
	if err := dto.Validate(req); err != nil {
		response.Error(c, err)
		return
	}
	redaction := req.Model(c.Param("id"))
	if err := h.redactions.Create(c.Request.Context(), redaction, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, redaction)
}

// List returns a document's redactions.
func (h *RedactionHandler) List(c *gin.Context) {
	redactions, err := h.redactions.ListByDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, redactions, nil)
}

// Update rewrites an existing redaction.
func (h *RedactionHandler) Update(c *gin.Context) {
	var req dto.RedactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid redaction payload"))
		return
	}
	if err := dto.Validate(req); err != nil {
		response.Error(c, err)
		return
	}
	updated, err := h.redactions.Update(c.Request.Context(), c.Param("redactionId"), req.Model(""), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete removes a redaction.
func (h *RedactionHandler) Delete(c *gin.Context) {
	if err := h.redactions.Delete(c.Request.Context(), c.Param("redactionId"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
