package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"auction-platform/internal/accounts"
	"auction-platform/internal/bidservice"
	"auction-platform/internal/config"
	"auction-platform/internal/events"
	"auction-platform/internal/lifecycle"
	model "auction-platform/internal/models"
	"auction-platform/internal/repository"
	"auction-platform/internal/server"
	"auction-platform/internal/settlement"
	"auction-platform/utils"
)

func main() {
	conf := config.MustLoadConfig()
	commission, err := conf.Commission()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	store := repository.NewMemoryLedger()
	hub := events.NewHub()
	defer hub.Close()

	settlementEngine := settlement.NewEngine(store, hub, settlement.Config{
		CommissionRate:       commission,
		AllowNegativeBalance: conf.AllowNegativeBalance,
		RefundSellerClawback: conf.RefundSellerClawback,
	})
	auctionService := lifecycle.NewService(store, hub, settlementEngine)
	bidService := bidservice.NewBidService(store, hub, auctionService, conf.BidRetryLimit)
	accountsService := accounts.NewService(store, []byte(conf.JWTSecret), conf.TokenTTL)

	if conf.SeedDemoData {
		seedDemoData(accountsService, auctionService)
	}

	sweeper := lifecycle.NewSweeper(auctionService, conf.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	router := server.SetupRouter(accountsService, auctionService, bidService, settlementEngine, hub, []byte(conf.JWTSecret))

	utils.Info("starting auction platform", map[string]any{"address": conf.RunAddress})
	if err := router.Run(conf.RunAddress); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// seedDemoData adds sample accounts and listings for local development
func seedDemoData(accountsService *accounts.Service, auctionService *lifecycle.Service) {
	seller, err := accountsService.Register(accounts.RegisterParams{
		Email:    "seller@example.com",
		Username: "demo-seller",
		Password: "demo-password",
		Role:     model.RoleSeller,
	})
	if err != nil {
		utils.Warn("demo seed: seller registration failed", map[string]any{"error": err.Error()})
		return
	}
	if _, err := accountsService.Register(accounts.RegisterParams{
		Email:    "buyer@example.com",
		Username: "demo-buyer",
		Password: "demo-password",
		Role:     model.RoleBuyer,
	}); err != nil {
		utils.Warn("demo seed: buyer registration failed", map[string]any{"error": err.Error()})
	}

	listings := []lifecycle.CreateParams{
		{Title: "Vintage camera", Description: "Working condition", StartingPrice: decimal.NewFromInt(100), EndTime: time.Now().Add(24 * time.Hour)},
		{Title: "Mechanical keyboard", Description: "Lightly used", StartingPrice: decimal.NewFromInt(200), EndTime: time.Now().Add(48 * time.Hour)},
		{Title: "Road bike", Description: "Needs new tires", StartingPrice: decimal.NewFromInt(150), EndTime: time.Now().Add(72 * time.Hour)},
	}
	for _, params := range listings {
		auction, err := auctionService.Create(seller.UserID, params)
		if err != nil {
			utils.Warn("demo seed: auction creation failed", map[string]any{"error": err.Error()})
			continue
		}
		if _, err := auctionService.Activate(auction.AuctionID); err != nil {
			utils.Warn("demo seed: auction activation failed", map[string]any{"error": err.Error()})
		}
	}
}
