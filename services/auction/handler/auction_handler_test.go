package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auction-platform/internal/auctionerrors"
	"auction-platform/internal/lifecycle"
	model "auction-platform/internal/models"
	"auction-platform/services/auction/helpers"
)

func sampleAuction(auctionID, sellerID string, status model.AuctionStatus) model.Auction {
	return model.Auction{
		AuctionID:     auctionID,
		SellerID:      sellerID,
		Title:         "lot",
		StartingPrice: decimal.NewFromInt(50),
		CurrentPrice:  decimal.NewFromInt(50),
		StartTime:     time.Now().UTC(),
		EndTime:       time.Now().UTC().Add(time.Hour),
		Status:        status,
	}
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", asUser("seller1", model.RoleSeller), handler.CreateAuctionHandler)

	endTime := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "success",
			requestBody: helpers.CreateAuctionRequest{
				Title:         "lot",
				StartingPrice: decimal.NewFromInt(50),
				EndTime:       endTime,
			},
			mockSetup: func() {
				mockService.EXPECT().
					Create("seller1", gomock.Any()).
					DoAndReturn(func(sellerID string, params lifecycle.CreateParams) (model.Auction, error) {
						require.Equal(t, "lot", params.Title)
						require.True(t, params.StartingPrice.Equal(decimal.NewFromInt(50)))
						require.True(t, params.EndTime.Equal(endTime))
						return sampleAuction("auction1", sellerID, model.StatusDraft), nil
					})
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "missing_title",
			requestBody:    map[string]any{"end_time": endTime},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_end_time",
			requestBody:    map[string]any{"title": "lot"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "window_rejected_by_service",
			requestBody: helpers.CreateAuctionRequest{
				Title:   "lot",
				EndTime: endTime,
			},
			mockSetup: func() {
				mockService.EXPECT().
					Create("seller1", gomock.Any()).
					Return(model.Auction{}, fmt.Errorf("lifecycle: %w", auctionerrors.ErrInvalidState))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "operation not allowed in current auction state",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/auctions", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.expectedStatus, rec.Code)
			envelope := decodeEnvelope(t, rec.Body)
			require.Equal(t, tc.expectedMsg, envelope["message"])
		})
	}
}

// Test UpdateAuctionHandler ownership and forwarding
func TestUpdateAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)

	patch := func(router *gin.Engine, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/auctions/auction1", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("seller_updates_own_draft", func(t *testing.T) {
		router := gin.New()
		router.PATCH("/auctions/:auction_id", asUser("seller1", model.RoleSeller), handler.UpdateAuctionHandler)

		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusDraft), nil)
		mockService.EXPECT().
			UpdateDraft("auction1", gomock.Any()).
			DoAndReturn(func(auctionID string, params lifecycle.UpdateParams) (model.Auction, error) {
				require.NotNil(t, params.Title)
				require.Equal(t, "renamed", *params.Title)
				auction := sampleAuction(auctionID, "seller1", model.StatusDraft)
				auction.Title = *params.Title
				return auction, nil
			})

		rec := patch(router, `{"title":"renamed"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger_is_rejected", func(t *testing.T) {
		router := gin.New()
		router.PATCH("/auctions/:auction_id", asUser("intruder", model.RoleBuyer), handler.UpdateAuctionHandler)

		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusDraft), nil)

		rec := patch(router, `{"title":"renamed"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin_may_update", func(t *testing.T) {
		router := gin.New()
		router.PATCH("/auctions/:auction_id", asUser("admin1", model.RoleAdmin), handler.UpdateAuctionHandler)

		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusDraft), nil)
		mockService.EXPECT().UpdateDraft("auction1", gomock.Any()).Return(sampleAuction("auction1", "seller1", model.StatusDraft), nil)

		rec := patch(router, `{"title":"renamed"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("active_auction_rejected_by_service", func(t *testing.T) {
		router := gin.New()
		router.PATCH("/auctions/:auction_id", asUser("seller1", model.RoleSeller), handler.UpdateAuctionHandler)

		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusActive), nil)
		mockService.EXPECT().
			UpdateDraft("auction1", gomock.Any()).
			Return(model.Auction{}, fmt.Errorf("lifecycle: %w", auctionerrors.ErrInvalidState))

		rec := patch(router, `{"title":"renamed"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// Test ActivateAuctionHandler and CancelAuctionHandler
func TestActivateAndCancelHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("", asUser("seller1", model.RoleSeller))
	group.POST("/auctions/:auction_id/activate", handler.ActivateAuctionHandler)
	group.POST("/auctions/:auction_id/cancel", handler.CancelAuctionHandler)

	post := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		return rec
	}

	t.Run("activate_success", func(t *testing.T) {
		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusDraft), nil)
		mockService.EXPECT().Activate("auction1").Return(sampleAuction("auction1", "seller1", model.StatusActive), nil)

		rec := post("/auctions/auction1/activate")
		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		data := envelope["data"].(map[string]any)
		require.Equal(t, "active", data["status"])
	})

	t.Run("activate_already_active", func(t *testing.T) {
		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusActive), nil)
		mockService.EXPECT().Activate("auction1").Return(model.Auction{}, fmt.Errorf("lifecycle: %w", auctionerrors.ErrInvalidState))

		rec := post("/auctions/auction1/activate")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("activate_window_passed", func(t *testing.T) {
		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusDraft), nil)
		mockService.EXPECT().Activate("auction1").Return(model.Auction{}, fmt.Errorf("lifecycle: %w", auctionerrors.ErrAuctionExpired))

		rec := post("/auctions/auction1/activate")
		require.Equal(t, http.StatusGone, rec.Code)
	})

	t.Run("cancel_success", func(t *testing.T) {
		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusActive), nil)
		mockService.EXPECT().Cancel("auction1").Return(sampleAuction("auction1", "seller1", model.StatusCancelled), nil)

		rec := post("/auctions/auction1/cancel")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cancel_with_winner_rejected", func(t *testing.T) {
		mockService.EXPECT().Get("auction1").Return(sampleAuction("auction1", "seller1", model.StatusEnded), nil)
		mockService.EXPECT().Cancel("auction1").Return(model.Auction{}, fmt.Errorf("lifecycle: %w", auctionerrors.ErrInvalidState))

		rec := post("/auctions/auction1/cancel")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown_auction", func(t *testing.T) {
		mockService.EXPECT().Get("ghost").Return(model.Auction{}, fmt.Errorf("lifecycle: %w", auctionerrors.ErrAuctionNotFound))

		rec := post("/auctions/ghost/activate")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// Test GetAuctionHandler and ListActiveAuctionsHandler
func TestAuctionReadHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions", handler.ListActiveAuctionsHandler)
	router.GET("/auctions/:auction_id", handler.GetAuctionHandler)

	t.Run("get_returns_auction", func(t *testing.T) {
		auction := sampleAuction("auction1", "seller1", model.StatusActive)
		auction.CurrentPrice = decimal.NewFromInt(120)
		mockService.EXPECT().Get("auction1").Return(auction, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auctions/auction1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		data := envelope["data"].(map[string]any)
		require.Equal(t, "auction1", data["auction_id"])
		require.Equal(t, "120", data["current_price"])
	})

	t.Run("get_unknown_auction", func(t *testing.T) {
		mockService.EXPECT().Get("ghost").Return(model.Auction{}, fmt.Errorf("lifecycle: %w", auctionerrors.ErrAuctionNotFound))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auctions/ghost", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list_active", func(t *testing.T) {
		mockService.EXPECT().ListActive().Return([]model.Auction{
			sampleAuction("auction1", "seller1", model.StatusActive),
			sampleAuction("auction2", "seller1", model.StatusActive),
		}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auctions", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		require.Len(t, envelope["data"].([]any), 2)
	})
}
