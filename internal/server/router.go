package server

import (
	"errors"

	"github.com/gin-gonic/gin"

	"auction-platform/internal/accounts"
	"auction-platform/internal/bidservice"
	"auction-platform/internal/events"
	"auction-platform/internal/lifecycle"
	"auction-platform/internal/settlement"
	handler "auction-platform/services/auction/handler"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errAdminOnly    = errors.New("admin role required")
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(
	accountsService *accounts.Service,
	auctionService *lifecycle.Service,
	bidService *bidservice.BidService,
	settlementEngine *settlement.Engine,
	hub *events.Hub,
	jwtSecret []byte,
) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	accountHandler := handler.NewAccountHandler(accountsService)
	auctionHandler := handler.NewAuctionHandler(auctionService)
	bidHandler := handler.NewBidHandler(bidService, hub)
	adminHandler := handler.NewAdminHandler(settlementEngine)

	authed := AuthRequired(jwtSecret)

	router.POST("/users", accountHandler.RegisterHandler)
	router.POST("/login", accountHandler.LoginHandler)
	router.GET("/users/me", authed, accountHandler.MeHandler)

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListActiveAuctionsHandler)
		auctions.POST("", authed, auctionHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.PATCH("/:auction_id", authed, auctionHandler.UpdateAuctionHandler)
		auctions.POST("/:auction_id/activate", authed, auctionHandler.ActivateAuctionHandler)
		auctions.POST("/:auction_id/cancel", authed, auctionHandler.CancelAuctionHandler)

		auctions.POST("/:auction_id/bids", authed, bidHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", bidHandler.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/winning", bidHandler.GetWinningBidHandler)
		auctions.GET("/:auction_id/events", bidHandler.AuctionEventsHandler)
	}

	admin := router.Group("/admin", authed, AdminRequired)
	{
		admin.POST("/auctions/:auction_id/refund", adminHandler.RefundHandler)
		admin.POST("/auctions/:auction_id/suspicious", adminHandler.MarkSuspiciousHandler)
		admin.POST("/users/:user_id/freeze", adminHandler.FreezeAccountHandler)
	}

	return router
}
