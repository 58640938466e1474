package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"auction-platform/internal/accounts"
	"auction-platform/internal/accounts/tokens"
	"auction-platform/internal/bidservice"
	"auction-platform/internal/events"
	"auction-platform/internal/lifecycle"
	model "auction-platform/internal/models"
	"auction-platform/internal/repository"
	"auction-platform/internal/server"
	"auction-platform/internal/settlement"
)

var testSecret = []byte("integration-test-secret")

// testEnv wires the full engine stack behind an in-process router
type testEnv struct {
	router   *gin.Engine
	ledger   *repository.MemoryLedger
	hub      *events.Hub
	accounts *accounts.Service
	auctions *lifecycle.Service
	bids     *bidservice.BidService
	engine   *settlement.Engine
}

// SetupTestEnv initializes the router with the in-memory ledger for
// integration testing
func SetupTestEnv(t *testing.T, cfg settlement.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		ledger: repository.NewMemoryLedger(),
		hub:    events.NewHub(),
	}
	t.Cleanup(env.hub.Close)

	env.engine = settlement.NewEngine(env.ledger, env.hub, cfg)
	env.auctions = lifecycle.NewService(env.ledger, env.hub, env.engine)
	env.bids = bidservice.NewBidService(env.ledger, env.hub, env.auctions, bidservice.DefaultRetryLimit)
	env.accounts = accounts.NewService(env.ledger, testSecret, time.Hour)
	env.router = server.SetupRouter(env.accounts, env.auctions, env.bids, env.engine, env.hub, testSecret)
	return env
}

// registerUser creates an account through the service layer and returns it
// with a signed token
func (env *testEnv) registerUser(t *testing.T, username string, role model.Role) (model.User, string) {
	t.Helper()
	user, err := env.accounts.Register(accounts.RegisterParams{
		Email:    username + "@example.com",
		Username: username,
		Password: "integration-pass",
		Role:     role,
	})
	require.NoError(t, err)

	token, err := tokens.GenerateUserJWT(user.UserID, user.Role, time.Hour, testSecret)
	require.NoError(t, err)
	return user, token
}

// activeAuction creates and activates a listing owned by the given seller
func (env *testEnv) activeAuction(t *testing.T, sellerID string, params lifecycle.CreateParams) model.Auction {
	t.Helper()
	if params.Title == "" {
		params.Title = "integration lot"
	}
	if params.EndTime.IsZero() {
		params.EndTime = time.Now().UTC().Add(time.Hour)
	}
	auction, err := env.auctions.Create(sellerID, params)
	require.NoError(t, err)
	activated, err := env.auctions.Activate(auction.AuctionID)
	require.NoError(t, err)
	return activated
}

// ExecuteRequest executes an HTTP request against the router, optionally
// authenticated, and returns the parsed response envelope
func (env *testEnv) ExecuteRequest(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		marshalled, err := json.Marshal(v)
		require.NoError(t, err)
		reqBody = marshalled
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return resp, w
}

// data extracts the envelope's data object
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	payload, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return payload
}
