package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/litigo/ediscovery-api/internal/dto"
	"github.com/litigo/ediscovery-api/internal/service"
	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
	"github.com/litigo/ediscovery-api/pkg/response"
)

// ProductionHandler exposes the production lifecycle and audit report
// endpoints.
type ProductionHandler struct {
	productions *service.ProductionService
	reports     *service.ReportService
}

// NewProductionHandler constructs the handler.
func NewProductionHandler(productions *service.ProductionService, reports *service.ReportService) *ProductionHandler {
	return &ProductionHandler{productions: productions, reports: reports}
}

// Create registers a new pending production.
func (h *ProductionHandler) Create(c *gin.Context) {
	var req dto.ProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid production payload"))
		return
	}
	if err := dto.Validate(req); err != nil {
		response.Error(c, err)
		return
	}
	production := req.Model()
	if err := h.productions.Create(c.Request.Context(), production); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewProductionResponse(production))
}

// Start enqueues a pending production.
func (h *ProductionHandler) Start(c *gin.Context) {
	if err := h.productions.Start(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "queued"}, nil)
}

// Get returns a production with its current status; callers poll this while
// the job runs.
func (h *ProductionHandler) Get(c *gin.Context) {
	production, err := h.productions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewProductionResponse(production), nil)
}

// List returns a matter's productions.
func (h *ProductionHandler) List(c *gin.Context) {
	matterID := c.Query("matterId")
	if matterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "matterId required"))
		return
	}
	productions, err := h.productions.ListByMatter(c.Request.Context(), matterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]dto.ProductionResponse, len(productions))
	for i := range productions {
		out[i] = dto.NewProductionResponse(&productions[i])
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Documents returns the per-document Bates ledger.
func (h *ProductionHandler) Documents(c *gin.Context) {
	rows, err := h.productions.ListDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Pages returns the per-page Bates ledger.
func (h *ProductionHandler) Pages(c *gin.Context) {
	rows, err := h.productions.ListPages(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// GenerateReport renders the audit report and returns a download token.
func (h *ProductionHandler) GenerateReport(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	token, expiresAt, err := h.reports.Generate(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReportTokenResponse{Token: token, ExpiresAt: expiresAt}, nil)
}

// DownloadReport streams a previously generated audit report.
func (h *ProductionHandler) DownloadReport(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}
	download, err := h.reports.ResolveDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	contentType := "text/csv"
	if download.Format == service.ReportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+download.Filename)
	c.Header("Content-Type", contentType)
	c.File(download.File.Name())
}
