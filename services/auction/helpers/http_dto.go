package helpers

import (
	"time"

	"github.com/shopspring/decimal"

	model "auction-platform/internal/models"
)

// Context keys set by the authentication middleware
const (
	ContextUserIDKey = "auth_user_id"
	ContextRoleKey   = "auth_role"
)

// Request/Response DTOs
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=buyer seller admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

type CreateAuctionRequest struct {
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartTime     *time.Time      `json:"start_time"`
	EndTime       time.Time       `json:"end_time" binding:"required"`
}

type UpdateAuctionRequest struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	StartingPrice *decimal.Decimal `json:"starting_price"`
	StartTime     *time.Time       `json:"start_time"`
	EndTime       *time.Time       `json:"end_time"`
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type BidResponse struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt string          `json:"created_at"`
}

type AuctionResponse struct {
	AuctionID        string          `json:"auction_id"`
	SellerID         string          `json:"seller_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	StartingPrice    decimal.Decimal `json:"starting_price"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	StartTime        string          `json:"start_time"`
	EndTime          string          `json:"end_time"`
	Status           string          `json:"status"`
	WinningBidID     string          `json:"winning_bid_id,omitempty"`
	CommissionFee    decimal.Decimal `json:"commission_fee"`
	PaymentCompleted bool            `json:"payment_completed"`
	RefundIssued     bool            `json:"refund_issued"`
	Suspicious       bool            `json:"suspicious"`
}

// NewBidResponse maps a bid record to its transport shape
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewAuctionResponse maps an auction record to its transport shape
func NewAuctionResponse(auction model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:        auction.AuctionID,
		SellerID:         auction.SellerID,
		Title:            auction.Title,
		Description:      auction.Description,
		StartingPrice:    auction.StartingPrice,
		CurrentPrice:     auction.CurrentPrice,
		StartTime:        auction.StartTime.UTC().Format(time.RFC3339),
		EndTime:          auction.EndTime.UTC().Format(time.RFC3339),
		Status:           string(auction.Status),
		WinningBidID:     auction.WinningBidID,
		CommissionFee:    auction.CommissionFee,
		PaymentCompleted: auction.PaymentCompleted,
		RefundIssued:     auction.RefundIssued,
		Suspicious:       auction.Suspicious,
	}
}
