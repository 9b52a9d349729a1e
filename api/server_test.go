package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"plombir/auth"
	"plombir/config"
	"plombir/models"
	"plombir/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server      *Server
	sessions    *auth.SessionIssuer
	users       *mockUserService
	pvp         *mockPvPService
	farm        *mockFarmService
	promo       *mockPromoService
	profile     *mockProfileService
	dice        *mockDiceService
	leaderboard *mockLeaderboardService
	admin       *mockAdminService
}

func newTestServer(t *testing.T, configure func(cfg *config.Config)) *testServer {
	t.Helper()

	cfg := config.NewTestConfig()
	if configure != nil {
		configure(cfg)
	}

	ts := &testServer{
		sessions:    auth.NewSessionIssuer(cfg.SessionSecret, cfg.SessionTTL),
		users:       &mockUserService{},
		pvp:         &mockPvPService{},
		farm:        &mockFarmService{},
		promo:       &mockPromoService{},
		profile:     &mockProfileService{},
		dice:        &mockDiceService{},
		leaderboard: &mockLeaderboardService{},
		admin:       &mockAdminService{},
	}
	ts.server = NewServer(cfg, auth.NewValidator(cfg.BotToken, cfg.InitDataMaxAge), ts.sessions, Services{
		Users:       ts.users,
		Farm:        ts.farm,
		PvP:         ts.pvp,
		Promo:       ts.promo,
		Profile:     ts.profile,
		Dice:        ts.dice,
		Leaderboard: ts.leaderboard,
		Admin:       ts.admin,
	})

	t.Cleanup(func() {
		ts.users.AssertExpectations(t)
		ts.pvp.AssertExpectations(t)
		ts.farm.AssertExpectations(t)
		ts.promo.AssertExpectations(t)
		ts.profile.AssertExpectations(t)
		ts.dice.AssertExpectations(t)
		ts.leaderboard.AssertExpectations(t)
		ts.admin.AssertExpectations(t)
	})
	return ts
}

// do sends a request as userID, or anonymously when userID is zero
func (ts *testServer) do(t *testing.T, method, path, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := ts.sessions.Issue(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func signedInitData(botToken string, user string) string {
	fields := map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      user,
	}
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", auth.Sign(fields, botToken))
	return values.Encode()
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/health", "", 0)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestAuthenticate(t *testing.T) {
	t.Run("valid payload issues a session", func(t *testing.T) {
		ts := newTestServer(t, nil)
		profile := models.TelegramProfile{ID: 42, FirstName: "Ann", Username: "ann"}
		ts.users.On("Authenticate", mock.Anything, profile).
			Return(&models.UserView{ID: 42, ShortID: 1, Name: "Ann", Rating: 0}, nil)

		initData := signedInitData(config.NewTestConfig().BotToken, `{"id":42,"first_name":"Ann","username":"ann"}`)
		body, err := json.Marshal(map[string]any{
			"initData": initData,
			"user":     map[string]any{"id": 7, "first_name": "Mallory"},
		})
		require.NoError(t, err)

		rec := ts.do(t, http.MethodPost, "/api/auth", string(body), 0)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody(t, rec)
		assert.EqualValues(t, 42, resp["id"])
		assert.EqualValues(t, 1, resp["short_id"])

		userID, err := ts.sessions.Parse(resp["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, int64(42), userID)
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		ts := newTestServer(t, nil)

		initData := signedInitData("other-bot-token", `{"id":42,"first_name":"Ann"}`)
		body, err := json.Marshal(map[string]any{"initData": initData})
		require.NoError(t, err)

		rec := ts.do(t, http.MethodPost, "/api/auth", string(body), 0)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid Telegram data", decodeBody(t, rec)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(t, http.MethodPost, "/api/auth", "{not json", 0)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRequireUser(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		ts := newTestServer(t, nil)

		rec := ts.do(t, http.MethodGet, "/api/farm", "", 0)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])
	})

	t.Run("garbage token", func(t *testing.T) {
		ts := newTestServer(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/farm", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user id header ignored by default", func(t *testing.T) {
		ts := newTestServer(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/farm", nil)
		req.Header.Set("X-User-Id", "5")
		rec := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user id header accepted when enabled", func(t *testing.T) {
		ts := newTestServer(t, func(cfg *config.Config) { cfg.AllowUserIDHeader = true })
		ts.farm.On("GetFarm", mock.Anything, int64(5)).Return(&models.Farm{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/farm", nil)
		req.Header.Set("X-User-Id", "5")
		rec := httptest.NewRecorder()
		ts.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"invalid bet", service.ErrInvalidBet, http.StatusBadRequest, "Minimum bet is 10"},
		{"insufficient funds", fmt.Errorf("failed to debit: %w", service.ErrInsufficientFunds), http.StatusBadRequest, "Not enough points"},
		{"self acceptance", service.ErrSelfAcceptance, http.StatusBadRequest, "Cannot fight yourself"},
		{"unknown user", service.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"not admin", service.ErrNotAdmin, http.StatusForbidden, "Not authorized"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			ts.pvp.On("CreateOffer", mock.Anything, int64(1), int64(50)).Return(nil, tt.err)

			rec := ts.do(t, http.MethodPost, "/api/pvp/create", `{"bet": 50}`, 1)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeBody(t, rec)["error"])
		})
	}
}

func TestPvPRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.pvp.On("CreateOffer", mock.Anything, int64(1), int64(50)).
		Return(&models.PvPBattle{BattleID: 9, ChallengerID: 1, Bet: 50}, nil)
	ts.pvp.On("AcceptOffer", mock.Anything, int64(2), int64(9)).
		Return(&models.DuelResult{BattleID: 9, Winner: true, Message: "You won! +50 PTS"}, nil)
	ts.pvp.On("ListOffers", mock.Anything).Return(nil, nil)

	rec := ts.do(t, http.MethodPost, "/api/pvp/create", `{"bet": 50}`, 1)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody(t, rec)
	assert.Equal(t, true, created["success"])
	assert.EqualValues(t, 9, created["battle_id"])

	rec = ts.do(t, http.MethodPost, "/api/pvp/accept", `{"battle_id": 9}`, 2)
	require.Equal(t, http.StatusOK, rec.Code)
	accepted := decodeBody(t, rec)
	assert.Equal(t, true, accepted["winner"])
	assert.Equal(t, "You won! +50 PTS", accepted["message"])

	// Offers are public and always a JSON array
	rec = ts.do(t, http.MethodGet, "/api/pvp/offers", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRewardRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.promo.On("Activate", mock.Anything, int64(3), "save10").Return(int64(10), nil)
	ts.dice.On("Roll", mock.Anything, int64(3)).Return(&models.DiceRoll{Value: 6, Points: 300}, nil)
	ts.admin.On("Export", mock.Anything, int64(3)).Return(int64(12), nil)
	ts.leaderboard.On("Top", mock.Anything).Return([]*models.TopEntry{{UserID: 3, ShortID: 1, Name: "Ann", Rating: 300}}, nil)

	rec := ts.do(t, http.MethodPost, "/api/promo/activate", `{"code": "save10"}`, 3)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "reward": 10}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/dice/roll", "", 3)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "value": 6, "points": 300}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/admin/export", "", 3)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "count": 12}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/top", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var top []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	require.Len(t, top, 1)
	assert.EqualValues(t, 300, top[0]["rating"])
}

func TestFarmAndProfileRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.farm.On("BuyAnimal", mock.Anything, int64(4), "chicken").Return(nil)
	ts.farm.On("BuyProtection", mock.Anything, int64(4), "dog").Return(service.ErrAlreadyOwned)
	ts.profile.On("UpdateField", mock.Anything, int64(4), "rating", "1000000").Return(service.ErrInvalidField)
	ts.profile.On("SubmitSocial", mock.Anything, int64(4), "insta", "ann.photo").Return(nil)
	ts.profile.On("VerifyPhone", mock.Anything, int64(4)).Return(nil)

	rec := ts.do(t, http.MethodPost, "/api/farm/buy-animal", `{"animal_key": "chicken"}`, 4)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/farm/buy-protection", `{"item_key": "dog"}`, 4)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Already owned", decodeBody(t, rec)["error"])

	rec = ts.do(t, http.MethodPost, "/api/profile/update", `{"field": "rating", "value": "1000000"}`, 4)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid field", decodeBody(t, rec)["error"])

	rec = ts.do(t, http.MethodPost, "/api/social/verify", `{"platform": "insta", "nick": "ann.photo"}`, 4)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/social/verify-phone", "", 4)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, nil)

	body := `{"code": "` + strings.Repeat("A", maxBodyBytes) + `"}`
	rec := ts.do(t, http.MethodPost, "/api/promo/activate", body, 1)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
