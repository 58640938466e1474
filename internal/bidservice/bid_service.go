package bidservice

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

// DefaultRetryLimit bounds how many times a bid re-validates after losing a
// version race before the contention is surfaced to the caller
const DefaultRetryLimit = 3

// Expirer ends an auction the way the sweep would, selecting the winner and
// triggering settlement. The bid path uses it for lazy expiry.
type Expirer interface {
	EndAuction(auctionID string) (model.Auction, error)
}

// BidService validates and admits bids against an auction's current state.
// Acceptance is serialized per auction through the ledger store's
// compare-and-update primitive: the validation snapshot carries the
// auction's version, and the bid only commits if that version is still
// current, so two concurrent bids can never both read the same stale price
// and both succeed.
type BidService struct {
	store      repository.LedgerStore
	sink       events.Sink
	expirer    Expirer
	retryLimit int
}

// NewBidService creates a new BidService instance
func NewBidService(store repository.LedgerStore, sink events.Sink, expirer Expirer, retryLimit int) *BidService {
	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}
	return &BidService{
		store:      store,
		sink:       sink,
		expirer:    expirer,
		retryLimit: retryLimit,
	}
}

// PlaceBid validates and records a bid for an auction. On success the bid
// insert and the current-price update have committed as one unit and the
// bid-placed and auction-update notifications have been emitted.
func (s *BidService) PlaceBid(auctionID, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("bidservice: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return model.Bid{}, fmt.Errorf("bidservice: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	for attempt := 0; attempt < s.retryLimit; attempt++ {
		auction, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Bid{}, fmt.Errorf("bidservice: %w", err)
		}
		if err := s.admissible(auction, bidderID, amount); err != nil {
			return model.Bid{}, err
		}

		bid := model.Bid{
			BidID:     utils.GenerateID(),
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
		}

		recorded, _, err := s.store.RecordBid(bid, auction.Version)
		if errors.Is(err, auctionerrors.ErrVersionConflict) {
			// Lost the race against a concurrent bid or transition;
			// re-validate against the fresh state.
			continue
		}
		if err != nil {
			return model.Bid{}, fmt.Errorf("bidservice: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
		}

		s.sink.Publish(events.BidPlaced(auctionID, recorded))
		s.sink.Publish(events.AuctionUpdated(auctionID))
		utils.Info("bid accepted", map[string]any{
			"auction_id": auctionID,
			"bid_id":     recorded.BidID,
			"bidder_id":  bidderID,
			"amount":     amount.String(),
		})
		return recorded, nil
	}

	return model.Bid{}, fmt.Errorf("bidservice: bid on auction %s: %w", auctionID, auctionerrors.ErrConflict)
}

// admissible applies the rejection rules against one consistent snapshot of
// the auction. When the snapshot shows the time window has passed, the
// auction is ended in place (lazy expiry) before the rejection is reported.
func (s *BidService) admissible(auction model.Auction, bidderID string, amount decimal.Decimal) error {
	if auction.Status != model.StatusActive {
		return fmt.Errorf("bidservice: auction %s is not active: %w", auction.AuctionID, auctionerrors.ErrInvalidState)
	}
	if auction.EndTime.Before(time.Now().UTC()) {
		if s.expirer != nil {
			if _, endErr := s.expirer.EndAuction(auction.AuctionID); endErr != nil {
				utils.Error("lazy expiry failed", map[string]any{
					"auction_id": auction.AuctionID,
					"error":      endErr.Error(),
				})
			}
		}
		return fmt.Errorf("bidservice: auction %s: %w", auction.AuctionID, auctionerrors.ErrAuctionExpired)
	}
	if bidderID == auction.SellerID {
		return fmt.Errorf("bidservice: auction %s: %w", auction.AuctionID, auctionerrors.ErrSellerConflict)
	}
	if amount.Cmp(auction.CurrentPrice) <= 0 {
		return fmt.Errorf("bidservice: %w - current price is %s", auctionerrors.ErrBidTooLow, auction.CurrentPrice.String())
	}

	bidder, err := s.store.GetUser(bidderID)
	if err != nil {
		return fmt.Errorf("bidservice: %w", err)
	}
	if bidder.IsFrozen {
		return fmt.Errorf("bidservice: bidder %s: %w", bidderID, auctionerrors.ErrAccountFrozen)
	}
	return nil
}

// GetBidsForAuction returns all bids for an auction in insertion order
func (s *BidService) GetBidsForAuction(auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("bidservice: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	bids, err := s.store.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("bidservice: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetWinningBid returns the current highest bid for an auction
func (s *BidService) GetWinningBid(auctionID string) (model.Bid, error) {
	if auctionID == "" {
		return model.Bid{}, fmt.Errorf("bidservice: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	winning, err := s.store.GetWinningBid(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("bidservice: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return winning, nil
}
