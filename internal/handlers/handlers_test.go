package handlers

import (
	"testing"
	"time"

	"wingit/score/internal/leaderboard"
	"wingit/score/internal/models"
	"wingit/score/internal/rank"
	"wingit/score/internal/repositories"
	"wingit/score/internal/submission"
	"wingit/score/internal/testhelpers"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type testEnv struct {
	mr    *miniredis.Miniredis
	db    *gorm.DB
	users *repositories.UserRepository
	store *rank.Store
	board *leaderboard.Service
	coord *submission.Coordinator
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, rdb := testhelpers.SetupTestRedis(t)
	db := testhelpers.SetupTestDB(t)

	users := &repositories.UserRepository{DB: db}
	tokens := &repositories.TokenRepository{DB: db}
	runs := &repositories.RunRepository{DB: db}
	store := rank.NewStore(rdb)

	logger := zap.NewNop()
	board := leaderboard.NewService(store, users, logger)
	coord := submission.NewCoordinator(tokens, runs, store, board, logger, 100, 500)

	return &testEnv{mr: mr, db: db, users: users, store: store, board: board, coord: coord}
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{Username: name, PasswordHash: "hash"}
	require.NoError(t, e.users.CreateUser(user))
	return user
}

func bearerFor(t *testing.T, userID uint) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}
