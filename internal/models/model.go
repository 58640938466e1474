package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies an account within the platform
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	StatusDraft     AuctionStatus = "draft"
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether no further status transitions are allowed
func (s AuctionStatus) Terminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// PurchaseRecord is one entry in an account's append-only purchase history
type PurchaseRecord struct {
	AuctionID string          `json:"auction_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// User represents an account holding an internal ledger balance.
// Balance is signed and may go negative depending on the configured
// settlement policy. Accounts are never deleted.
type User struct {
	UserID          string           `json:"user_id"`
	Email           string           `json:"email"`
	Username        string           `json:"username"`
	PasswordHash    string           `json:"-"`
	Role            Role             `json:"role"`
	Balance         decimal.Decimal  `json:"balance"`
	IsFrozen        bool             `json:"is_frozen"`
	PurchaseHistory []PurchaseRecord `json:"purchase_history,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Auction represents a timed ascending-price listing.
// CurrentPrice is monotonically non-decreasing and equals the highest
// accepted bid amount, or StartingPrice while no bid has been accepted.
// Version is the optimistic concurrency stamp maintained by the ledger
// store; every committed mutation increments it.
type Auction struct {
	AuctionID        string          `json:"auction_id"`
	SellerID         string          `json:"seller_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	StartingPrice    decimal.Decimal `json:"starting_price"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	Status           AuctionStatus   `json:"status"`
	WinningBidID     string          `json:"winning_bid_id,omitempty"`
	CommissionFee    decimal.Decimal `json:"commission_fee"`
	PaymentCompleted bool            `json:"payment_completed"`
	RefundIssued     bool            `json:"refund_issued"`
	Suspicious       bool            `json:"suspicious"`
	Version          uint64          `json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Bid is an immutable offer on an auction. CreatedAt is assigned by the
// ledger store on insert and is used as the tie-break between equal amounts.
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// SettlementTransfer describes the one-time balance movement applied at
// auction close. The ledger store applies all of its effects, the two
// account mutations and the auction's paymentCompleted/commissionFee flags,
// as a single both-or-neither unit.
type SettlementTransfer struct {
	AuctionID    string
	WinningBidID string
	WinnerID     string
	SellerID     string
	Amount       decimal.Decimal
	Commission   decimal.Decimal
	CompletedAt  time.Time
	// RequireFunds rejects the transfer instead of driving the winner's
	// balance negative.
	RequireFunds bool
}

// RefundTransfer reverses the winner's debit for an auction.
// ClawbackSeller additionally reverses the seller's credit (amount minus
// commission) in the same unit; by default the seller keeps the funds,
// matching the platform's documented refund behavior.
type RefundTransfer struct {
	AuctionID      string
	WinnerID       string
	SellerID       string
	Amount         decimal.Decimal
	Commission     decimal.Decimal
	ClawbackSeller bool
}
