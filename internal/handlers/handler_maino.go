package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/opmecontrol/opme_backend/internal/apperrors"
	portssvc "github.com/opmecontrol/opme_backend/internal/core/ports/services"
	"github.com/opmecontrol/opme_backend/internal/dto"
	"github.com/opmecontrol/opme_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// mainoHandler exposes the Mainô ERP sync endpoints.
type mainoHandler struct {
	mainoService portssvc.MainoSvcFacade
}

func newMainoHandler(ms portssvc.MainoSvcFacade) *mainoHandler {
	return &mainoHandler{mainoService: ms}
}

// registerMainoRoutes registers the provider sync routes. syncLimiter
// throttles the sync endpoint, which downloads full XML archives.
func registerMainoRoutes(rg *gin.RouterGroup, mainoService portssvc.MainoSvcFacade, syncLimiter gin.HandlerFunc) {
	h := newMainoHandler(mainoService)

	maino := rg.Group("/maino")
	{
		maino.POST("/sync", syncLimiter, h.sync)
		maino.POST("/invoices", h.listInvoices)
	}
}

// sync downloads the period's NF-e XMLs from the provider and ingests them.
func (h *mainoHandler) sync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	uploaderID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.MainoSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	resp, err := h.mainoService.SyncPeriod(c.Request.Context(), req, uploaderID)
	if err != nil {
		h.respondProviderError(c, logger, "Provider sync failed", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listInvoices proxies the provider's invoice listing without ingesting.
func (h *mainoHandler) listInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.MainoListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	invoices, err := h.mainoService.ListInvoices(c.Request.Context(), req)
	if err != nil {
		h.respondProviderError(c, logger, "Provider listing failed", err)
		return
	}

	c.Data(http.StatusOK, "application/json", invoices)
}

func (h *mainoHandler) respondProviderError(c *gin.Context, logger *slog.Logger, message string, err error) {
	if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code >= 400 {
		logger.Warn(message, slog.Int("code", appErr.Code), slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": appErr.Message})
		return
	}
	logger.Error(message, slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
