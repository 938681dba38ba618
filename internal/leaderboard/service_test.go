package leaderboard

import (
	"context"
	"testing"

	"wingit/score/internal/models"
	"wingit/score/internal/rank"
	"wingit/score/internal/repositories"
	"wingit/score/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) (*Service, *rank.Store, *repositories.UserRepository) {
	t.Helper()
	_, rdb := testhelpers.SetupTestRedis(t)
	store := rank.NewStore(rdb)
	users := &repositories.UserRepository{DB: testhelpers.SetupTestDB(t)}
	return NewService(store, users, zap.NewNop()), store, users
}

func seedPlayer(t *testing.T, users *repositories.UserRepository, store *rank.Store, name string, score int) *models.User {
	t.Helper()
	user := &models.User{Username: name, PasswordHash: "hash"}
	require.NoError(t, users.CreateUser(user))
	if score >= 0 {
		require.NoError(t, store.UpsertBest(context.Background(), user.ID, score))
	}
	return user
}

func TestService_TopPage(t *testing.T) {
	svc, store, users := setupService(t)
	ctx := context.Background()

	seedPlayer(t, users, store, "first", 90)
	seedPlayer(t, users, store, "second", 60)
	seedPlayer(t, users, store, "third", 30)

	page, err := svc.TopPage(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Leaderboard, 2)
	assert.Equal(t, "first", page.Leaderboard[0].Username)
	assert.Equal(t, int64(1), page.Leaderboard[0].Rank)
	assert.Equal(t, 60, page.Leaderboard[1].BestScore)

	page, err = svc.TopPage(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Leaderboard, 1)
	assert.Equal(t, "third", page.Leaderboard[0].Username)
	assert.Equal(t, int64(3), page.Leaderboard[0].Rank)
}

func TestService_TopPage_EmptyBoard(t *testing.T) {
	svc, _, _ := setupService(t)

	page, err := svc.TopPage(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Leaderboard)
}

func TestService_TopPage_CacheContract(t *testing.T) {
	svc, store, users := setupService(t)
	ctx := context.Background()

	seedPlayer(t, users, store, "veteran", 80)

	// A partial first-page read must not populate the cache.
	_, err := svc.TopPage(ctx, 0, 10)
	require.NoError(t, err)
	_, ok, err := store.GetTopPageCache(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// A full top-100 read does.
	_, err = svc.TopPage(ctx, 0, MaxPageSize)
	require.NoError(t, err)
	_, ok, err = store.GetTopPageCache(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// While the snapshot lives, the page may lag the index but the
	// total never does.
	seedPlayer(t, users, store, "newcomer", 95)
	page, err := svc.TopPage(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Leaderboard, 1)
	assert.Equal(t, "veteran", page.Leaderboard[0].Username)
}

func TestService_Neighborhood(t *testing.T) {
	svc, store, users := setupService(t)
	ctx := context.Background()

	var mid *models.User
	for i, p := range []struct {
		name  string
		score int
	}{
		{"p100", 100}, {"p80", 80}, {"p60", 60}, {"p40", 40}, {"p20", 20},
	} {
		u := seedPlayer(t, users, store, p.name, p.score)
		if i == 2 {
			mid = u
		}
	}

	standing, err := svc.Neighborhood(ctx, mid.ID)
	require.NoError(t, err)
	require.NotNil(t, standing.Rank)
	assert.Equal(t, int64(3), *standing.Rank)
	require.NotNil(t, standing.BestScore)
	assert.Equal(t, 60, *standing.BestScore)
	assert.Equal(t, int64(5), standing.Total)

	require.Len(t, standing.Above, 2)
	assert.Equal(t, "p100", standing.Above[0].Username)
	require.NotNil(t, standing.You)
	assert.Equal(t, "p60", standing.You.Username)
	require.Len(t, standing.Below, 2)
	assert.Equal(t, "p20", standing.Below[1].Username)
}

func TestService_Neighborhood_ClippedAtTop(t *testing.T) {
	svc, store, users := setupService(t)
	ctx := context.Background()

	top := seedPlayer(t, users, store, "leader", 99)
	seedPlayer(t, users, store, "runnerup", 50)

	standing, err := svc.Neighborhood(ctx, top.ID)
	require.NoError(t, err)
	require.NotNil(t, standing.Rank)
	assert.Equal(t, int64(1), *standing.Rank)
	assert.Empty(t, standing.Above)
	require.Len(t, standing.Below, 1)
}

func TestService_Neighborhood_HasNotPlayed(t *testing.T) {
	svc, store, users := setupService(t)

	seedPlayer(t, users, store, "other", 10)
	fresh := seedPlayer(t, users, store, "fresh", -1)

	standing, err := svc.Neighborhood(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Nil(t, standing.Rank, "no score yet is a valid state, not an error")
	assert.Nil(t, standing.BestScore)
	assert.Nil(t, standing.You)
	assert.Equal(t, int64(1), standing.Total)
}

func TestService_NeighborhoodAt(t *testing.T) {
	svc, store, users := setupService(t)
	ctx := context.Background()

	var last *models.User
	for _, p := range []struct {
		name  string
		score int
	}{
		{"p100", 100}, {"p80", 80}, {"p60", 60}, {"p40", 40}, {"p20", 20},
	} {
		last = seedPlayer(t, users, store, p.name, p.score)
	}

	t.Run("caller outside window", func(t *testing.T) {
		// last holds rank 5; the window around rank 1 never contains them.
		standing, err := svc.NeighborhoodAt(ctx, last.ID, 1)
		require.NoError(t, err)

		require.NotNil(t, standing.Rank, "caller's own standing is still reported")
		assert.Equal(t, int64(5), *standing.Rank)
		assert.Nil(t, standing.You)
		require.Len(t, standing.Above, 1)
		assert.Equal(t, "p100", standing.Above[0].Username)
		require.Len(t, standing.Below, 2)
		assert.Equal(t, "p80", standing.Below[0].Username)
	})

	t.Run("caller inside window", func(t *testing.T) {
		standing, err := svc.NeighborhoodAt(ctx, last.ID, 4)
		require.NoError(t, err)

		require.NotNil(t, standing.You)
		assert.Equal(t, "p20", standing.You.Username)
		require.Len(t, standing.Above, 3)
		assert.Equal(t, "p80", standing.Above[0].Username)
		assert.Empty(t, standing.Below)
	})

	t.Run("rank past the end of the board", func(t *testing.T) {
		standing, err := svc.NeighborhoodAt(ctx, last.ID, 50)
		require.NoError(t, err)
		assert.Empty(t, standing.Above)
		assert.Empty(t, standing.Below)
		assert.Nil(t, standing.You)
		assert.Equal(t, int64(5), standing.Total)
	})
}

func TestService_Search(t *testing.T) {
	svc, store, users := setupService(t)

	seedPlayer(t, users, store, "Alice", 40)
	seedPlayer(t, users, store, "newAli99", -1) // matches the query but never played
	seedPlayer(t, users, store, "bob", 70)

	page, err := svc.Search(context.Background(), "ali")
	require.NoError(t, err)
	require.Len(t, page.Leaderboard, 1, "scoreless matches are excluded")
	assert.Equal(t, "Alice", page.Leaderboard[0].Username)
	assert.Equal(t, 40, page.Leaderboard[0].BestScore)
	assert.Equal(t, int64(2), page.Leaderboard[0].Rank, "rank reflects the full board")
	assert.Equal(t, int64(1), page.Total)

	empty, err := svc.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, empty.Leaderboard)
	assert.Equal(t, int64(0), empty.Total)
}
