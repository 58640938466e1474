package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"auction-platform/services/auction/helpers"
	"auction-platform/utils"
)

type AdminServiceInterface interface {
	IssueRefund(auctionID string) error
	MarkSuspicious(auctionID string) error
	FreezeAccount(userID string) error
}

type AdminHandler struct {
	service AdminServiceInterface
}

func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// RefundHandler handles POST /admin/auctions/:auction_id/refund
func (h *AdminHandler) RefundHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if err := h.service.IssueRefund(auctionID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("RefundHandler: failed to issue refund", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "refund processed")
	helpers.LogSuccess("RefundHandler", "refund processed", map[string]any{"auction_id": auctionID})
}

// MarkSuspiciousHandler handles POST /admin/auctions/:auction_id/suspicious
func (h *AdminHandler) MarkSuspiciousHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if err := h.service.MarkSuspicious(auctionID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("MarkSuspiciousHandler: failed to mark auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction marked suspicious")
	helpers.LogSuccess("MarkSuspiciousHandler", "auction marked suspicious", map[string]any{"auction_id": auctionID})
}

// FreezeAccountHandler handles POST /admin/users/:user_id/freeze
func (h *AdminHandler) FreezeAccountHandler(c *gin.Context) {
	userID := c.Param("user_id")
	if err := h.service.FreezeAccount(userID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("FreezeAccountHandler: failed to freeze account", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"user_id": userID}, "account frozen")
	helpers.LogSuccess("FreezeAccountHandler", "account frozen", map[string]any{"user_id": userID})
}
