package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"auction-platform/internal/lifecycle"
	model "auction-platform/internal/models"
	"auction-platform/services/auction/helpers"
	"auction-platform/utils"
)

type AuctionServiceInterface interface {
	Create(sellerID string, params lifecycle.CreateParams) (model.Auction, error)
	UpdateDraft(auctionID string, params lifecycle.UpdateParams) (model.Auction, error)
	Activate(auctionID string) (model.Auction, error)
	Cancel(auctionID string) (model.Auction, error)
	Get(auctionID string) (model.Auction, error)
	ListActive() ([]model.Auction, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	sellerID := c.GetString(helpers.ContextUserIDKey)
	params := lifecycle.CreateParams{
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		EndTime:       req.EndTime,
	}
	if req.StartTime != nil {
		params.StartTime = *req.StartTime
	}

	auction, err := h.service.Create(sellerID, params)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CreateAuctionHandler: failed to create auction", map[string]any{
			"seller_id": sellerID,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  sellerID,
	})
}

// UpdateAuctionHandler handles PATCH /auctions/:auction_id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.UpdateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	if !h.callerOwnsAuction(c, auctionID, "UpdateAuctionHandler") {
		return
	}

	auction, err := h.service.UpdateDraft(auctionID, lifecycle.UpdateParams{
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UpdateAuctionHandler: failed to update auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction updated successfully")
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.Get(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction retrieved successfully")
}

// ListActiveAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListActiveAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListActive()
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, auction := range auctions {
		resp = append(resp, helpers.NewAuctionResponse(auction))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "active auctions retrieved successfully")
}

// ActivateAuctionHandler handles POST /auctions/:auction_id/activate
func (h *AuctionHandler) ActivateAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if !h.callerOwnsAuction(c, auctionID, "ActivateAuctionHandler") {
		return
	}

	auction, err := h.service.Activate(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ActivateAuctionHandler: failed to activate auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction activated successfully")
	helpers.LogSuccess("ActivateAuctionHandler", "auction activated successfully", map[string]any{
		"auction_id": auctionID,
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if !h.callerOwnsAuction(c, auctionID, "CancelAuctionHandler") {
		return
	}

	auction, err := h.service.Cancel(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CancelAuctionHandler: failed to cancel auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction cancelled successfully")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled successfully", map[string]any{
		"auction_id": auctionID,
	})
}

// callerOwnsAuction verifies the authenticated caller is the auction's
// seller or an admin; it writes the error response itself when not
func (h *AuctionHandler) callerOwnsAuction(c *gin.Context, auctionID, handlerName string) bool {
	auction, err := h.service.Get(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return false
	}

	callerID := c.GetString(helpers.ContextUserIDKey)
	role := model.Role(c.GetString(helpers.ContextRoleKey))
	if callerID != auction.SellerID && role != model.RoleAdmin {
		utils.JSONError(c, http.StatusForbidden, fmt.Errorf("caller does not own auction %s", auctionID), "not the auction's seller")
		utils.Warn(handlerName+": ownership check failed", map[string]any{
			"auction_id": auctionID,
			"caller_id":  callerID,
		})
		return false
	}
	return true
}
