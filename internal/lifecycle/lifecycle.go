package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"auction-platform/internal/auctionerrors"
	"auction-platform/internal/events"
	model "auction-platform/internal/models"
	"auction-platform/internal/repository"
	"auction-platform/utils"
)

// transitionRetries bounds the compare-and-update loop on a single status
// transition. Contention on one auction is short-lived, so a handful of
// attempts is plenty.
const transitionRetries = 5

// Settler finalizes funds for an ended auction. Invocations must be
// idempotent; the lifecycle service calls it every time it ends an auction
// that has a winner.
type Settler interface {
	Settle(auctionID string) error
}

// Service owns auction creation and every status transition: activation,
// cancellation, and the expiry that ends an auction and selects its winner
type Service struct {
	store   repository.LedgerStore
	sink    events.Sink
	settler Settler
}

// NewService creates a new lifecycle Service instance. The settler may be
// nil, in which case ended auctions are left for an external settlement call.
func NewService(store repository.LedgerStore, sink events.Sink, settler Settler) *Service {
	return &Service{
		store:   store,
		sink:    sink,
		settler: settler,
	}
}

// CreateParams carries the seller-supplied fields for a new listing
type CreateParams struct {
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
}

// Create stores a new auction in draft. The current price starts at the
// starting price and the time window must be coherent and end in the future.
func (s *Service) Create(sellerID string, params CreateParams) (model.Auction, error) {
	if sellerID == "" || params.Title == "" {
		return model.Auction{}, fmt.Errorf("lifecycle: %w - missing seller or title", auctionerrors.ErrInvalidState)
	}
	if params.StartingPrice.IsNegative() {
		return model.Auction{}, fmt.Errorf("lifecycle: %w - negative starting price", auctionerrors.ErrInvalidState)
	}
	now := time.Now().UTC()
	if params.StartTime.IsZero() {
		params.StartTime = now
	}
	if params.StartTime.After(params.EndTime) || params.EndTime.Before(now) {
		return model.Auction{}, fmt.Errorf("lifecycle: %w - invalid auction time window", auctionerrors.ErrInvalidState)
	}

	auction := model.Auction{
		AuctionID:     utils.GenerateID(),
		SellerID:      sellerID,
		Title:         params.Title,
		Description:   params.Description,
		StartingPrice: params.StartingPrice,
		CurrentPrice:  params.StartingPrice,
		StartTime:     params.StartTime,
		EndTime:       params.EndTime,
		Status:        model.StatusDraft,
	}

	created, err := s.store.CreateAuction(auction)
	if err != nil {
		return model.Auction{}, fmt.Errorf("lifecycle: failed to create auction: %w", err)
	}

	s.sink.Publish(events.StatusChanged(created.AuctionID, created.Status))
	return created, nil
}

// UpdateParams carries the editable fields of a draft listing. Nil fields
// are left unchanged.
type UpdateParams struct {
	Title         *string
	Description   *string
	StartingPrice *decimal.Decimal
	StartTime     *time.Time
	EndTime       *time.Time
}

// UpdateDraft edits a listing that has not been activated yet. Once an
// auction leaves draft its price and time window are immutable.
func (s *Service) UpdateDraft(auctionID string, params UpdateParams) (model.Auction, error) {
	for attempt := 0; attempt < transitionRetries; attempt++ {
		auction, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: %w", err)
		}
		if auction.Status != model.StatusDraft {
			return model.Auction{}, fmt.Errorf("lifecycle: can only update draft auctions: %w", auctionerrors.ErrInvalidState)
		}

		if params.Title != nil {
			auction.Title = *params.Title
		}
		if params.Description != nil {
			auction.Description = *params.Description
		}
		if params.StartingPrice != nil {
			if params.StartingPrice.IsNegative() {
				return model.Auction{}, fmt.Errorf("lifecycle: %w - negative starting price", auctionerrors.ErrInvalidState)
			}
			auction.StartingPrice = *params.StartingPrice
			auction.CurrentPrice = *params.StartingPrice
		}
		if params.StartTime != nil {
			auction.StartTime = *params.StartTime
		}
		if params.EndTime != nil {
			auction.EndTime = *params.EndTime
		}
		if auction.StartTime.After(auction.EndTime) {
			return model.Auction{}, fmt.Errorf("lifecycle: %w - invalid auction time window", auctionerrors.ErrInvalidState)
		}

		updated, err := s.store.UpdateAuction(auction, auction.Version)
		if errors.Is(err, auctionerrors.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: failed to update auction %s: %w", auctionID, err)
		}

		s.sink.Publish(events.AuctionUpdated(updated.AuctionID))
		return updated, nil
	}
	return model.Auction{}, fmt.Errorf("lifecycle: update of auction %s: %w", auctionID, auctionerrors.ErrConflict)
}

// Activate moves a draft auction to active, opening it for bids. The end
// time must still be in the future.
func (s *Service) Activate(auctionID string) (model.Auction, error) {
	for attempt := 0; attempt < transitionRetries; attempt++ {
		auction, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: %w", err)
		}
		if auction.Status != model.StatusDraft {
			return model.Auction{}, fmt.Errorf("lifecycle: can only activate draft auctions: %w", auctionerrors.ErrInvalidState)
		}
		if auction.EndTime.Before(time.Now().UTC()) {
			return model.Auction{}, fmt.Errorf("lifecycle: activation window passed: %w", auctionerrors.ErrAuctionExpired)
		}

		activated, err := s.store.TransitionAuction(auctionID, auction.Version, model.StatusActive, "")
		if errors.Is(err, auctionerrors.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: failed to activate auction %s: %w", auctionID, err)
		}

		s.sink.Publish(events.StatusChanged(activated.AuctionID, activated.Status))
		return activated, nil
	}
	return model.Auction{}, fmt.Errorf("lifecycle: activation of auction %s: %w", auctionID, auctionerrors.ErrConflict)
}

// Cancel withdraws a draft or active auction that has no winner yet.
// Cancelled is terminal.
func (s *Service) Cancel(auctionID string) (model.Auction, error) {
	for attempt := 0; attempt < transitionRetries; attempt++ {
		auction, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: %w", err)
		}
		if auction.Status.Terminal() || auction.WinningBidID != "" {
			return model.Auction{}, fmt.Errorf("lifecycle: cannot cancel auction %s: %w", auctionID, auctionerrors.ErrInvalidState)
		}

		cancelled, err := s.store.TransitionAuction(auctionID, auction.Version, model.StatusCancelled, "")
		if errors.Is(err, auctionerrors.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: failed to cancel auction %s: %w", auctionID, err)
		}

		s.sink.Publish(events.StatusChanged(cancelled.AuctionID, cancelled.Status))
		return cancelled, nil
	}
	return model.Auction{}, fmt.Errorf("lifecycle: cancellation of auction %s: %w", auctionID, auctionerrors.ErrConflict)
}

// EndAuction transitions an active auction to ended, selecting the winner
// (highest amount, earliest creation time on the defensive tie) and handing
// the auction to the settler. Ending an already-ended auction is a no-op,
// which makes the sweep, lazy expiry from the bid path, and redundant ticks
// all safe to race each other.
func (s *Service) EndAuction(auctionID string) (model.Auction, error) {
	for attempt := 0; attempt < transitionRetries; attempt++ {
		auction, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: %w", err)
		}
		if auction.Status == model.StatusEnded {
			if err := s.settleIfDue(auction); err != nil {
				return auction, fmt.Errorf("lifecycle: settlement of auction %s: %w", auctionID, err)
			}
			return s.Get(auctionID)
		}
		if auction.Status != model.StatusActive {
			return model.Auction{}, fmt.Errorf("lifecycle: cannot end auction %s: %w", auctionID, auctionerrors.ErrInvalidState)
		}

		var winningBidID string
		winning, err := s.store.GetWinningBid(auctionID)
		if err == nil {
			winningBidID = winning.BidID
		} else if !errors.Is(err, auctionerrors.ErrNoBids) {
			return model.Auction{}, fmt.Errorf("lifecycle: failed to select winner for auction %s: %w", auctionID, err)
		}

		ended, err := s.store.TransitionAuction(auctionID, auction.Version, model.StatusEnded, winningBidID)
		if errors.Is(err, auctionerrors.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return model.Auction{}, fmt.Errorf("lifecycle: failed to end auction %s: %w", auctionID, err)
		}

		s.sink.Publish(events.StatusChanged(ended.AuctionID, ended.Status))
		utils.Info("auction ended", map[string]any{
			"auction_id":     ended.AuctionID,
			"winning_bid_id": ended.WinningBidID,
			"final_price":    ended.CurrentPrice.String(),
		})

		if err := s.settleIfDue(ended); err != nil {
			return ended, fmt.Errorf("lifecycle: settlement of auction %s: %w", auctionID, err)
		}
		return ended, nil
	}
	return model.Auction{}, fmt.Errorf("lifecycle: ending of auction %s: %w", auctionID, auctionerrors.ErrConflict)
}

// settleIfDue hands an ended auction with an unsettled winner to the settler.
// Settle is idempotent, so invoking it again for an auction whose earlier
// settlement failed (a rejected transfer under the strict funds policy) is the
// retry path: the next sweep or end call picks the auction up once funds allow.
func (s *Service) settleIfDue(auction model.Auction) error {
	if s.settler == nil || auction.WinningBidID == "" || auction.PaymentCompleted {
		return nil
	}
	return s.settler.Settle(auction.AuctionID)
}

// SweepExpired ends every active auction whose end time has passed,
// returning how many it transitioned, then retries settlement for ended
// auctions whose winner transfer has not committed yet. One failing auction
// does not stop the sweep; the first error is reported after the pass
// completes.
func (s *Service) SweepExpired(now time.Time) (int, error) {
	expired, err := s.store.ListExpiredActive(now)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: failed to list expired auctions: %w", err)
	}

	var swept int
	var firstErr error
	for _, auction := range expired {
		if _, endErr := s.EndAuction(auction.AuctionID); endErr != nil {
			utils.Error("sweep: failed to end auction", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      endErr.Error(),
			})
			if firstErr == nil {
				firstErr = endErr
			}
			continue
		}
		swept++
	}

	ended, err := s.store.ListAuctionsByStatus(model.StatusEnded)
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("lifecycle: failed to list ended auctions: %w", err)
		}
		return swept, firstErr
	}
	for _, auction := range ended {
		if settleErr := s.settleIfDue(auction); settleErr != nil {
			utils.Error("sweep: failed to settle auction", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      settleErr.Error(),
			})
			if firstErr == nil {
				firstErr = fmt.Errorf("lifecycle: settlement of auction %s: %w", auction.AuctionID, settleErr)
			}
		}
	}
	return swept, firstErr
}

// Get returns the auction with the given id
func (s *Service) Get(auctionID string) (model.Auction, error) {
	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("lifecycle: %w", err)
	}
	return auction, nil
}

// ListActive returns all auctions currently open for bidding
func (s *Service) ListActive() ([]model.Auction, error) {
	auctions, err := s.store.ListAuctionsByStatus(model.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: failed to list active auctions: %w", err)
	}
	return auctions, nil
}
