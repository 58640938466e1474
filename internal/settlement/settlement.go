package settlement

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

// DefaultCommissionRate is the platform's cut of the winning amount
var DefaultCommissionRate = decimal.NewFromFloat(0.10)

// Config carries the settlement policy knobs. AllowNegativeBalance keeps
// the platform's credit-like behavior where winning a bid may drive an
// account below zero; RefundSellerClawback switches refunds from the
// documented winner-only reversal to a symmetric one.
type Config struct {
	CommissionRate       decimal.Decimal
	AllowNegativeBalance bool
	RefundSellerClawback bool
}

// Engine performs the one-time transfer of funds between winner and seller
// at auction close, plus the administrative refund, suspicion and freeze
// operations. Every balance-mutating effect goes through one of the ledger
// store's atomic units, so each fires at most once per auction.
type Engine struct {
	store repository.LedgerStore
	sink  events.Sink
	cfg   Config
}

// NewEngine creates a new settlement Engine instance
func NewEngine(store repository.LedgerStore, sink events.Sink, cfg Config) *Engine {
	if cfg.CommissionRate.IsZero() {
		cfg.CommissionRate = DefaultCommissionRate
	}
	return &Engine{
		store: store,
		sink:  sink,
		cfg:   cfg,
	}
}

// Settle transfers the winning amount from the winner to the seller net of
// commission and records the purchase. Idempotent and safe to invoke from
// the sweep, retries and admin replays alike: anything but an ended,
// unsettled auction with a winner is a silent no-op.
func (e *Engine) Settle(auctionID string) error {
	auction, err := e.store.GetAuction(auctionID)
	if err != nil {
		return fmt.Errorf("settlement: %w", err)
	}
	if auction.Status != model.StatusEnded || auction.PaymentCompleted || auction.WinningBidID == "" {
		return nil
	}

	winningBid, err := e.store.GetBid(auction.WinningBidID)
	if err != nil {
		return fmt.Errorf("settlement: winning bid for auction %s: %w", auctionID, err)
	}

	commission := winningBid.Amount.Mul(e.cfg.CommissionRate).Round(2)
	transfer := model.SettlementTransfer{
		AuctionID:    auction.AuctionID,
		WinningBidID: winningBid.BidID,
		WinnerID:     winningBid.BidderID,
		SellerID:     auction.SellerID,
		Amount:       winningBid.Amount,
		Commission:   commission,
		CompletedAt:  time.Now().UTC(),
		RequireFunds: !e.cfg.AllowNegativeBalance,
	}

	if err := e.store.ApplySettlement(transfer); err != nil {
		if errors.Is(err, auctionerrors.ErrAlreadySettled) {
			return nil
		}
		// A failed transfer risks the exactly-once invariant; log loudly
		// before surfacing it.
		utils.Error("settlement transfer failed", map[string]any{
			"auction_id": auctionID,
			"winner_id":  transfer.WinnerID,
			"seller_id":  transfer.SellerID,
			"amount":     transfer.Amount.String(),
			"error":      err.Error(),
		})
		return fmt.Errorf("settlement: failed to apply transfer for auction %s: %w", auctionID, err)
	}

	e.sink.Publish(events.AuctionUpdated(auction.AuctionID))
	utils.Info("auction settled", map[string]any{
		"auction_id": auction.AuctionID,
		"winner_id":  transfer.WinnerID,
		"seller_id":  transfer.SellerID,
		"amount":     transfer.Amount.String(),
		"commission": commission.String(),
	})
	return nil
}

// IssueRefund restores the winner's balance by the winning amount and marks
// the refund issued. Idempotent via the refundIssued flag; an auction
// without a winner is a no-op. Whether the seller's credit is reversed too
// is a policy choice, see Config.RefundSellerClawback.
func (e *Engine) IssueRefund(auctionID string) error {
	auction, err := e.store.GetAuction(auctionID)
	if err != nil {
		return fmt.Errorf("settlement: %w", err)
	}
	if auction.WinningBidID == "" || auction.RefundIssued {
		return nil
	}

	winningBid, err := e.store.GetBid(auction.WinningBidID)
	if err != nil {
		return fmt.Errorf("settlement: winning bid for auction %s: %w", auctionID, err)
	}

	refund := model.RefundTransfer{
		AuctionID:      auction.AuctionID,
		WinnerID:       winningBid.BidderID,
		SellerID:       auction.SellerID,
		Amount:         winningBid.Amount,
		Commission:     auction.CommissionFee,
		ClawbackSeller: e.cfg.RefundSellerClawback,
	}

	if err := e.store.ApplyRefund(refund); err != nil {
		if errors.Is(err, auctionerrors.ErrAlreadyRefunded) {
			return nil
		}
		return fmt.Errorf("settlement: failed to apply refund for auction %s: %w", auctionID, err)
	}

	e.sink.Publish(events.AuctionUpdated(auction.AuctionID))
	utils.Info("refund issued", map[string]any{
		"auction_id": auction.AuctionID,
		"winner_id":  refund.WinnerID,
		"amount":     refund.Amount.String(),
		"clawback":   refund.ClawbackSeller,
	})
	return nil
}

// MarkSuspicious flags the auction and freezes the seller's account. It
// does not settle or refund by itself.
func (e *Engine) MarkSuspicious(auctionID string) error {
	auction, err := e.store.MarkSuspicious(auctionID)
	if err != nil {
		return fmt.Errorf("settlement: %w", err)
	}
	if err := e.store.FreezeUser(auction.SellerID); err != nil {
		return fmt.Errorf("settlement: failed to freeze seller of auction %s: %w", auctionID, err)
	}

	e.sink.Publish(events.AuctionUpdated(auction.AuctionID))
	utils.Warn("auction marked suspicious", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  auction.SellerID,
	})
	return nil
}

// FreezeAccount freezes the given account. Frozen accounts cannot place
// bids and are never silently unfrozen by the engine.
func (e *Engine) FreezeAccount(userID string) error {
	if err := e.store.FreezeUser(userID); err != nil {
		return fmt.Errorf("settlement: %w", err)
	}
	utils.Warn("account frozen", map[string]any{"user_id": userID})
	return nil
}
