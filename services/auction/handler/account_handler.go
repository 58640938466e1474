package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"auction-platform/internal/accounts"
	model "auction-platform/internal/models"
	"auction-platform/services/auction/helpers"
	"auction-platform/utils"
)

type AccountServiceInterface interface {
	Register(params accounts.RegisterParams) (model.User, error)
	Login(email, password string) (model.User, string, error)
	GetProfile(userID string) (model.User, error)
}

type AccountHandler struct {
	service AccountServiceInterface
}

func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// RegisterHandler handles POST /users
func (h *AccountHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.service.Register(accounts.RegisterParams{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("RegisterHandler: failed to register account", map[string]any{
			"email": req.Email,
			"error": err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, user, "account registered successfully")
	helpers.LogSuccess("RegisterHandler", "account registered successfully", map[string]any{
		"user_id": user.UserID,
		"role":    string(user.Role),
	})
}

// LoginHandler handles POST /login
func (h *AccountHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	user, token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("LoginHandler: login failed", map[string]any{"email": req.Email})
		return
	}

	resp := helpers.TokenResponse{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     string(user.Role),
		Token:    token,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": user.UserID})
}

// MeHandler handles GET /users/me
func (h *AccountHandler) MeHandler(c *gin.Context) {
	userID := c.GetString(helpers.ContextUserIDKey)
	user, err := h.service.GetProfile(userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("MeHandler: failed to load profile", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, user, "profile retrieved successfully")
}
