package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auction-platform/internal/accounts"
	"auction-platform/internal/auctionerrors"
	model "auction-platform/internal/models"
	"auction-platform/services/auction/helpers"
)

// Test RegisterHandler
func TestRegisterHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAccountServiceInterface(ctrl)
	handler := NewAccountHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/users", handler.RegisterHandler)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: helpers.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "secret123", Role: "seller"},
			mockSetup: func() {
				mockService.EXPECT().
					Register(accounts.RegisterParams{Email: "alice@example.com", Username: "alice", Password: "secret123", Role: model.RoleSeller}).
					Return(model.User{UserID: "user1", Email: "alice@example.com", Username: "alice", Role: model.RoleSeller}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "account registered successfully",
		},
		{
			name:           "invalid_email",
			requestBody:    helpers.RegisterRequest{Email: "not-an-email", Username: "alice", Password: "secret123"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "short_password",
			requestBody:    helpers.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "short"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "unknown_role",
			requestBody:    helpers.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "secret123", Role: "auditor"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "duplicate_account",
			requestBody: helpers.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "secret123"},
			mockSetup: func() {
				mockService.EXPECT().
					Register(gomock.Any()).
					Return(model.User{}, fmt.Errorf("accounts: %w", auctionerrors.ErrDuplicateUser))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "email or username already exists",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.expectedStatus, rec.Code)
			envelope := decodeEnvelope(t, rec.Body)
			require.Equal(t, tc.expectedMsg, envelope["message"])
		})
	}
}

// Test LoginHandler
func TestLoginHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAccountServiceInterface(ctrl)
	handler := NewAccountHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", handler.LoginHandler)

	t.Run("success_returns_token", func(t *testing.T) {
		mockService.EXPECT().
			Login("alice@example.com", "secret123").
			Return(model.User{UserID: "user1", Username: "alice", Role: model.RoleBuyer}, "signed-token", nil)

		body, err := json.Marshal(helpers.LoginRequest{Email: "alice@example.com", Password: "secret123"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		data := envelope["data"].(map[string]any)
		require.Equal(t, "signed-token", data["token"])
		require.Equal(t, "user1", data["user_id"])
	})

	t.Run("bad_credentials", func(t *testing.T) {
		mockService.EXPECT().
			Login("alice@example.com", "wrong-pass").
			Return(model.User{}, "", fmt.Errorf("accounts: %w", auctionerrors.ErrInvalidCredentials))

		body, err := json.Marshal(helpers.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing_password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte(`{"email":"alice@example.com"}`)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// Test MeHandler
func TestMeHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAccountServiceInterface(ctrl)
	handler := NewAccountHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/users/me", asUser("user1", model.RoleBuyer), handler.MeHandler)

	t.Run("returns_profile_with_balance", func(t *testing.T) {
		mockService.EXPECT().GetProfile("user1").Return(model.User{
			UserID:   "user1",
			Username: "alice",
			Balance:  decimal.NewFromInt(-200),
		}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		data := envelope["data"].(map[string]any)
		require.Equal(t, "alice", data["username"])
		require.Equal(t, "-200", data["balance"])
		// The password hash never leaves the service
		require.NotContains(t, data, "password_hash")
	})

	t.Run("unknown_account", func(t *testing.T) {
		mockService.EXPECT().GetProfile("user1").Return(model.User{}, fmt.Errorf("accounts: %w", auctionerrors.ErrUserNotFound))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
