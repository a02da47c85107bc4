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

// balanceHandler serves the consignment balance report.
type balanceHandler struct {
	balanceService portssvc.BalanceSvcFacade
}

func newBalanceHandler(bs portssvc.BalanceSvcFacade) *balanceHandler {
	return &balanceHandler{balanceService: bs}
}

// RegisterBalanceRoutes registers the balance report routes.
func RegisterBalanceRoutes(rg *gin.RouterGroup, balanceService portssvc.BalanceSvcFacade) {
	h := newBalanceHandler(balanceService)

	balances := rg.Group("/balances")
	{
		balances.GET("", h.listBalances)
		balances.GET("/summary", h.getSummary)
	}
}

// listBalances recomputes the consignment balance from all stored movements,
// optionally restricted to one recipient CNPJ.
func (h *balanceHandler) listBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListBalancesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	var recipientCNPJ *string
	if params.RecipientCNPJ != "" {
		recipientCNPJ = &params.RecipientCNPJ
	}

	balance, err := h.balanceService.ComputeBalance(c.Request.Context(), recipientCNPJ)
	if err != nil {
		if errors.Is(err, apperrors.ErrRepositoryUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
			return
		}
		logger.Error("Failed to compute balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": dto.ToBalanceRecords(balance)})
}

// getSummary returns dashboard aggregates over the current balance.
func (h *balanceHandler) getSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	summary, err := h.balanceService.GetBalanceSummary(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrRepositoryUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
			return
		}
		logger.Error("Failed to summarize balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize balance"})
		return
	}

	c.JSON(http.StatusOK, dto.BalanceSummaryResponse{
		TotalBalance:       summary.TotalBalance,
		DistinctProducts:   summary.DistinctProducts,
		DistinctRecipients: summary.DistinctRecipients,
	})
}
