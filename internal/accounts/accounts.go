package accounts

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"auction-platform/internal/accounts/tokens"
	"auction-platform/internal/auctionerrors"
	model "auction-platform/internal/models"
	"auction-platform/internal/repository"
	"auction-platform/utils"
)

// Service manages account registration, authentication and profile reads.
// Balances and purchase history are mutated only by the settlement engine;
// this service never touches them.
type Service struct {
	store     repository.LedgerStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService creates a new accounts Service instance
func NewService(store repository.LedgerStore, jwtSecret []byte, tokenTTL time.Duration) *Service {
	return &Service{
		store:     store,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// RegisterParams carries the fields needed to open an account
type RegisterParams struct {
	Email    string
	Username string
	Password string
	Role     model.Role
}

// Register opens a new account with a zero balance. Email and username must
// be unique; the role defaults to buyer.
func (s *Service) Register(params RegisterParams) (model.User, error) {
	if params.Email == "" || params.Username == "" || params.Password == "" {
		return model.User{}, fmt.Errorf("accounts: %w - missing email, username or password", auctionerrors.ErrInvalidCredentials)
	}
	if params.Role == "" {
		params.Role = model.RoleBuyer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("accounts: hashing password: %s", err.Error())
	}

	user := model.User{
		UserID:       utils.GenerateID(),
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: string(hash),
		Role:         params.Role,
	}

	created, err := s.store.CreateUser(user)
	if err != nil {
		return model.User{}, fmt.Errorf("accounts: failed to register %s: %w", params.Email, err)
	}

	utils.Info("account registered", map[string]any{
		"user_id": created.UserID,
		"role":    string(created.Role),
	})
	return created, nil
}

// Login verifies credentials and issues a signed token for the account
func (s *Service) Login(email, password string) (model.User, string, error) {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return model.User{}, "", fmt.Errorf("accounts: %w", auctionerrors.ErrInvalidCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return model.User{}, "", fmt.Errorf("accounts: %w", auctionerrors.ErrInvalidCredentials)
	}

	token, err := tokens.GenerateUserJWT(user.UserID, user.Role, s.tokenTTL, s.jwtSecret)
	if err != nil {
		return model.User{}, "", fmt.Errorf("accounts: %s", err.Error())
	}
	return user, token, nil
}

// GetProfile returns the account with its balance and purchase history
func (s *Service) GetProfile(userID string) (model.User, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return model.User{}, fmt.Errorf("accounts: %w", err)
	}
	return user, nil
}
