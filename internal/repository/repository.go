package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-platform/internal/auctionerrors"
	model "auction-platform/internal/models"
)

// LedgerStore is the durable record storage for users, auctions and bids.
// Reads return consistent snapshots. Mutating calls that take an
// expectedVersion are compare-and-update primitives: they fail with
// ErrVersionConflict when the auction has moved past the version the caller
// read, which is how all per-auction state transitions are serialized.
// ApplySettlement and ApplyRefund commit their multi-record effects as a
// single both-or-neither unit.
type LedgerStore interface {
	CreateUser(user model.User) (model.User, error)
	GetUser(userID string) (model.User, error)
	GetUserByEmail(email string) (model.User, error)
	FreezeUser(userID string) error

	CreateAuction(auction model.Auction) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error)
	ListExpiredActive(now time.Time) ([]model.Auction, error)
	UpdateAuction(auction model.Auction, expectedVersion uint64) (model.Auction, error)
	TransitionAuction(auctionID string, expectedVersion uint64, status model.AuctionStatus, winningBidID string) (model.Auction, error)
	MarkSuspicious(auctionID string) (model.Auction, error)

	RecordBid(bid model.Bid, expectedVersion uint64) (model.Bid, model.Auction, error)
	GetBid(bidID string) (model.Bid, error)
	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)

	ApplySettlement(transfer model.SettlementTransfer) error
	ApplyRefund(refund model.RefundTransfer) error
}

// MemoryLedger is a concurrency-safe in-memory implementation of LedgerStore
type MemoryLedger struct {
	mu            sync.RWMutex
	users         map[string]model.User      // key: userID
	usersByEmail  map[string]string          // key: email -> userID
	usersByName   map[string]string          // key: username -> userID
	auctions      map[string]model.Auction   // key: auctionID
	bids          map[string]model.Bid       // key: bidID
	bidsByAuction map[string][]string        // key: auctionID -> ordered bidIDs
}

// NewMemoryLedger creates a new in-memory ledger store instance
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		users:         make(map[string]model.User),
		usersByEmail:  make(map[string]string),
		usersByName:   make(map[string]string),
		auctions:      make(map[string]model.Auction),
		bids:          make(map[string]model.Bid),
		bidsByAuction: make(map[string][]string),
	}
}

// CreateUser stores a new account, enforcing email and username uniqueness
func (l *MemoryLedger) CreateUser(user model.User) (model.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.usersByEmail[user.Email]; taken {
		return model.User{}, fmt.Errorf("create user %s: %w", user.Email, auctionerrors.ErrDuplicateUser)
	}
	if _, taken := l.usersByName[user.Username]; taken {
		return model.User{}, fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrDuplicateUser)
	}

	user.CreatedAt = time.Now().UTC()
	l.users[user.UserID] = user
	l.usersByEmail[user.Email] = user.UserID
	l.usersByName[user.Username] = user.UserID
	return copyUser(user), nil
}

// GetUser returns the account with the given id
func (l *MemoryLedger) GetUser(userID string) (model.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	user, ok := l.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return copyUser(user), nil
}

// GetUserByEmail returns the account registered under the given email
func (l *MemoryLedger) GetUserByEmail(email string) (model.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	userID, ok := l.usersByEmail[email]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email %s: %w", email, auctionerrors.ErrUserNotFound)
	}
	return copyUser(l.users[userID]), nil
}

// FreezeUser sets the account's frozen flag. The flag is monotonic; freezing
// an already-frozen account is a no-op.
func (l *MemoryLedger) FreezeUser(userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, ok := l.users[userID]
	if !ok {
		return fmt.Errorf("freeze user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	user.IsFrozen = true
	l.users[userID] = user
	return nil
}

// CreateAuction stores a new auction record at version 1
func (l *MemoryLedger) CreateAuction(auction model.Auction) (model.Auction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.users[auction.SellerID]; !ok {
		return model.Auction{}, fmt.Errorf("create auction for seller %s: %w", auction.SellerID, auctionerrors.ErrUserNotFound)
	}

	auction.Version = 1
	auction.CreatedAt = time.Now().UTC()
	l.auctions[auction.AuctionID] = auction
	return auction, nil
}

// GetAuction returns the auction with the given id, including its version stamp
func (l *MemoryLedger) GetAuction(auctionID string) (model.Auction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	auction, ok := l.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListAuctionsByStatus returns all auctions currently in the given status
func (l *MemoryLedger) ListAuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var auctions []model.Auction
	for _, auction := range l.auctions {
		if auction.Status == status {
			auctions = append(auctions, auction)
		}
	}
	sort.Slice(auctions, func(i, j int) bool { return auctions[i].CreatedAt.Before(auctions[j].CreatedAt) })
	return auctions, nil
}

// ListExpiredActive returns all active auctions whose end time has passed
func (l *MemoryLedger) ListExpiredActive(now time.Time) ([]model.Auction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var auctions []model.Auction
	for _, auction := range l.auctions {
		if auction.Status == model.StatusActive && auction.EndTime.Before(now) {
			auctions = append(auctions, auction)
		}
	}
	return auctions, nil
}

// UpdateAuction replaces the auction record if the caller still holds the
// latest version, bumping the version stamp on success
func (l *MemoryLedger) UpdateAuction(auction model.Auction, expectedVersion uint64) (model.Auction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, ok := l.auctions[auction.AuctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if stored.Version != expectedVersion {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, auctionerrors.ErrVersionConflict)
	}

	auction.Version = stored.Version + 1
	auction.CreatedAt = stored.CreatedAt
	l.auctions[auction.AuctionID] = auction
	return auction, nil
}

// TransitionAuction moves the auction to the given status, recording the
// winning bid when one is supplied. Compare-and-update on the version stamp.
func (l *MemoryLedger) TransitionAuction(auctionID string, expectedVersion uint64, status model.AuctionStatus, winningBidID string) (model.Auction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	auction, ok := l.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("transition auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Version != expectedVersion {
		return model.Auction{}, fmt.Errorf("transition auction %s: %w", auctionID, auctionerrors.ErrVersionConflict)
	}

	auction.Status = status
	if winningBidID != "" {
		auction.WinningBidID = winningBidID
	}
	auction.Version++
	l.auctions[auctionID] = auction
	return auction, nil
}

// MarkSuspicious sets the auction's suspicious flag. Monotonic and idempotent.
func (l *MemoryLedger) MarkSuspicious(auctionID string) (model.Auction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	auction, ok := l.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("mark auction %s suspicious: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if !auction.Suspicious {
		auction.Suspicious = true
		auction.Version++
		l.auctions[auctionID] = auction
	}
	return auction, nil
}

// RecordBid inserts the bid and raises the auction's current price as one
// atomic unit, guarded by the auction version the caller validated against.
// The store assigns the bid's creation timestamp. Two bids racing on the
// same auction snapshot cannot both commit: the loser gets
// ErrVersionConflict and must re-validate.
func (l *MemoryLedger) RecordBid(bid model.Bid, expectedVersion uint64) (model.Bid, model.Auction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	auction, ok := l.auctions[bid.AuctionID]
	if !ok {
		return model.Bid{}, model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Version != expectedVersion {
		return model.Bid{}, model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrVersionConflict)
	}
	// The version guard makes this unreachable for well-behaved callers,
	// but the strict-increase invariant is cheap to keep here too.
	if bid.Amount.Cmp(auction.CurrentPrice) <= 0 {
		return model.Bid{}, model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrBidTooLow)
	}

	bid.CreatedAt = time.Now().UTC()
	l.bids[bid.BidID] = bid
	l.bidsByAuction[bid.AuctionID] = append(l.bidsByAuction[bid.AuctionID], bid.BidID)

	auction.CurrentPrice = bid.Amount
	auction.Version++
	l.auctions[bid.AuctionID] = auction
	return bid, auction, nil
}

// GetBid returns the bid with the given id
func (l *MemoryLedger) GetBid(bidID string) (model.Bid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bid, ok := l.bids[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	return bid, nil
}

// GetBidsByAuction returns all bids for an auction in insertion order
func (l *MemoryLedger) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bidIDs, ok := l.bidsByAuction[auctionID]
	if !ok || len(bidIDs) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	bids := make([]model.Bid, 0, len(bidIDs))
	for _, id := range bidIDs {
		bids = append(bids, l.bids[id])
	}
	return bids, nil
}

// GetWinningBid returns the bid with the highest amount for an auction,
// breaking ties by earliest creation time
func (l *MemoryLedger) GetWinningBid(auctionID string) (model.Bid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bidIDs, ok := l.bidsByAuction[auctionID]
	if !ok || len(bidIDs) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	winning := l.bids[bidIDs[0]]
	for _, id := range bidIDs[1:] {
		b := l.bids[id]
		if b.Amount.Cmp(winning.Amount) > 0 || (b.Amount.Cmp(winning.Amount) == 0 && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, nil
}

// ApplySettlement debits the winner, credits the seller net of commission,
// appends the winner's purchase record and marks the auction settled, all
// under one critical section. The paymentCompleted flag is checked inside
// the same section, so a settlement can commit at most once no matter how
// many callers race it.
func (l *MemoryLedger) ApplySettlement(transfer model.SettlementTransfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	auction, ok := l.auctions[transfer.AuctionID]
	if !ok {
		return fmt.Errorf("apply settlement for auction %s: %w", transfer.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.PaymentCompleted {
		return fmt.Errorf("apply settlement for auction %s: %w", transfer.AuctionID, auctionerrors.ErrAlreadySettled)
	}
	winner, ok := l.users[transfer.WinnerID]
	if !ok {
		return fmt.Errorf("apply settlement for auction %s: winner: %w", transfer.AuctionID, auctionerrors.ErrUserNotFound)
	}
	seller, ok := l.users[transfer.SellerID]
	if !ok {
		return fmt.Errorf("apply settlement for auction %s: seller: %w", transfer.AuctionID, auctionerrors.ErrUserNotFound)
	}
	if transfer.RequireFunds && winner.Balance.Cmp(transfer.Amount) < 0 {
		return fmt.Errorf("apply settlement for auction %s: %w", transfer.AuctionID, auctionerrors.ErrInsufficientFunds)
	}

	winner.Balance = winner.Balance.Sub(transfer.Amount)
	winner.PurchaseHistory = append(winner.PurchaseHistory, model.PurchaseRecord{
		AuctionID: transfer.AuctionID,
		Amount:    transfer.Amount,
		Timestamp: transfer.CompletedAt,
	})
	seller.Balance = seller.Balance.Add(transfer.Amount.Sub(transfer.Commission))

	auction.CommissionFee = transfer.Commission
	auction.PaymentCompleted = true
	auction.Version++

	l.users[transfer.WinnerID] = winner
	l.users[transfer.SellerID] = seller
	l.auctions[transfer.AuctionID] = auction
	return nil
}

// ApplyRefund restores the winner's balance by the bid amount and marks the
// refund issued, optionally clawing back the seller's credit in the same
// unit. The refundIssued flag is checked inside the critical section, so
// the refund commits at most once.
func (l *MemoryLedger) ApplyRefund(refund model.RefundTransfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	auction, ok := l.auctions[refund.AuctionID]
	if !ok {
		return fmt.Errorf("apply refund for auction %s: %w", refund.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.RefundIssued {
		return fmt.Errorf("apply refund for auction %s: %w", refund.AuctionID, auctionerrors.ErrAlreadyRefunded)
	}
	winner, ok := l.users[refund.WinnerID]
	if !ok {
		return fmt.Errorf("apply refund for auction %s: winner: %w", refund.AuctionID, auctionerrors.ErrUserNotFound)
	}

	seller, sellerKnown := l.users[refund.SellerID]
	if refund.ClawbackSeller && !sellerKnown {
		return fmt.Errorf("apply refund for auction %s: seller: %w", refund.AuctionID, auctionerrors.ErrUserNotFound)
	}

	winner.Balance = winner.Balance.Add(refund.Amount)
	l.users[refund.WinnerID] = winner

	if refund.ClawbackSeller {
		seller.Balance = seller.Balance.Sub(refund.Amount.Sub(refund.Commission))
		l.users[refund.SellerID] = seller
	}

	auction.RefundIssued = true
	auction.Version++
	l.auctions[refund.AuctionID] = auction
	return nil
}

// copyUser detaches the purchase history slice so callers cannot alias the
// stored record
func copyUser(user model.User) model.User {
	if user.PurchaseHistory != nil {
		user.PurchaseHistory = append([]model.PurchaseRecord(nil), user.PurchaseHistory...)
	}
	return user
}
