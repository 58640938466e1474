package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a fresh identifier for auctions, bids and accounts
func GenerateID() string {
	return uuid.NewString()
}
