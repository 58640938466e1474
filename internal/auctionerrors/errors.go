package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrBidNotFound     = errors.New("bid not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrDuplicateUser   = errors.New("email or username already exists")
)

// Business logic errors
var (
	ErrInvalidBid         = errors.New("invalid bid")
	ErrBidTooLow          = errors.New("bid amount must be higher than current price")
	ErrInvalidState       = errors.New("operation not allowed in current auction state")
	ErrAuctionExpired     = errors.New("auction has ended")
	ErrSellerConflict     = errors.New("seller cannot bid on their own auction")
	ErrAccountFrozen      = errors.New("account is frozen")
	ErrInsufficientFunds  = errors.New("insufficient funds for settlement")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Concurrency errors. ErrVersionConflict is returned by the ledger store
// when a compare-and-update loses the race; callers retry a bounded number
// of times and surface ErrConflict once the budget is exhausted.
var (
	ErrVersionConflict = errors.New("auction was modified concurrently")
	ErrConflict        = errors.New("concurrent update contention")
)

// Settlement guards. The engine treats both as successful no-ops; the store
// returns them so the exactly-once check happens inside the atomic unit.
var (
	ErrAlreadySettled  = errors.New("auction already settled")
	ErrAlreadyRefunded = errors.New("refund already issued")
)
