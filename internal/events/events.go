package events

import (
	model "auction-platform/internal/models"
)

// Kind identifies the notification type emitted after a committed mutation
type Kind string

const (
	KindAuctionUpdate Kind = "auction.update"
	KindAuctionStatus Kind = "auction.status"
	KindBidPlaced     Kind = "auction.bid"
)

// Event is a fire-and-forget notification of an auction state change.
// Delivery is attempted at most once per mutation; consumers that miss an
// event re-query current state.
type Event struct {
	Kind      Kind                `json:"kind"`
	AuctionID string              `json:"auction_id"`
	Status    model.AuctionStatus `json:"status,omitempty"`
	Bid       *model.Bid          `json:"bid,omitempty"`
}

// Sink receives engine notifications for downstream broadcast
type Sink interface {
	Publish(event Event)
}

// AuctionUpdated builds an auction.update event
func AuctionUpdated(auctionID string) Event {
	return Event{Kind: KindAuctionUpdate, AuctionID: auctionID}
}

// StatusChanged builds an auction.status event
func StatusChanged(auctionID string, status model.AuctionStatus) Event {
	return Event{Kind: KindAuctionStatus, AuctionID: auctionID, Status: status}
}

// BidPlaced builds an auction.bid event
func BidPlaced(auctionID string, bid model.Bid) Event {
	return Event{Kind: KindBidPlaced, AuctionID: auctionID, Bid: &bid}
}
