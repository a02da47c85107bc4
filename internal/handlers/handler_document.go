package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	portssvc "github.com/opmecontrol/opme_backend/internal/core/ports/services"
	"github.com/opmecontrol/opme_backend/internal/dto"
	"github.com/opmecontrol/opme_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// documentHandler handles NF-e ingestion and movement queries.
type documentHandler struct {
	documentService portssvc.DocumentSvcFacade
}

func newDocumentHandler(ds portssvc.DocumentSvcFacade) *documentHandler {
	return &documentHandler{documentService: ds}
}

// RegisterDocumentRoutes registers ingestion and movement routes.
// uploadLimiter throttles the upload endpoint, which does real parsing work.
func RegisterDocumentRoutes(rg *gin.RouterGroup, documentService portssvc.DocumentSvcFacade, uploadLimiter gin.HandlerFunc) {
	h := newDocumentHandler(documentService)

	documents := rg.Group("/documents")
	{
		documents.POST("/upload", uploadLimiter, h.uploadDocuments)
		documents.GET("/stats", h.getStats)
	}
	rg.GET("/movements", h.listMovements)
}

// uploadDocuments ingests one or more NF-e XML files from a multipart form.
// Each file gets an independent outcome. With a single file the HTTP status
// mirrors that file's outcome (201 accepted, 409 duplicate, 400 rejected);
// with several files the response is always 200 with per-file results.
func (h *documentHandler) uploadDocuments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	uploaderID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided, expected one or more 'files' parts"})
		return
	}

	var payloads []dto.XMLPayload
	var results []dto.BatchItemResult
	for _, fh := range files {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xml") {
			results = append(results, dto.BatchItemResult{
				File:    fh.Filename,
				Status:  string(domain.IngestRejected),
				Message: "only .xml files are accepted",
			})
			continue
		}
		f, err := fh.Open()
		if err != nil {
			results = append(results, dto.BatchItemResult{
				File:    fh.Filename,
				Status:  string(domain.IngestRejected),
				Message: "failed to read file: " + err.Error(),
			})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			results = append(results, dto.BatchItemResult{
				File:    fh.Filename,
				Status:  string(domain.IngestRejected),
				Message: "failed to read file: " + err.Error(),
			})
			continue
		}
		payloads = append(payloads, dto.XMLPayload{Name: fh.Filename, Data: data})
	}

	batchResults := h.documentService.IngestBatch(c.Request.Context(), payloads, uploaderID)
	results = append(results, batchResults...)

	logger.Info("Upload processed", slog.Int("files", len(files)), slog.Int("results", len(results)))

	if len(files) == 1 {
		result := results[0]
		status := http.StatusCreated
		switch result.Status {
		case string(domain.IngestDuplicate):
			status = http.StatusConflict
		case string(domain.IngestRejected):
			status = http.StatusBadRequest
		}
		c.JSON(status, result)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// listMovements returns every persisted line-item movement, optionally
// filtered to one recipient CNPJ.
func (h *documentHandler) listMovements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListMovementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	var recipientCNPJ *string
	if params.RecipientCNPJ != "" {
		recipientCNPJ = &params.RecipientCNPJ
	}

	movements, err := h.documentService.ListMovements(c.Request.Context(), recipientCNPJ)
	if err != nil {
		if errors.Is(err, apperrors.ErrRepositoryUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
			return
		}
		logger.Error("Failed to list movements", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list movements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": dto.ToMovementResponseSlice(movements)})
}

// getStats returns dashboard aggregates over ingested documents.
func (h *documentHandler) getStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	stats, err := h.documentService.GetDocumentStats(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrRepositoryUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
			return
		}
		logger.Error("Failed to get document stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get document stats"})
		return
	}

	c.JSON(http.StatusOK, dto.DocumentStatsResponse{
		TotalDocuments:     stats.TotalDocuments,
		TotalValue:         stats.TotalValue,
		DistinctRecipients: stats.DistinctRecipients,
	})
}
