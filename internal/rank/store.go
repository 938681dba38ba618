package rank

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey  = "leaderboard:best"
	topPageCacheKey = "leaderboard:top100"

	// TopPageTTL bounds how stale the cached first page may get.
	TopPageTTL = 10 * time.Second

	// TokenCooldownTTL is the minimum gap between token issuances per user.
	TokenCooldownTTL = 3 * time.Second

	// RateWindow is the rolling window for submission counters.
	RateWindow = time.Hour
)

// Entry is one member of the sorted rank index.
type Entry struct {
	UserID uint
	Score  int
	// Rank is zero-based; position 0 is the best score.
	Rank int64
}

// Store wraps the Redis structures derived from the relational store:
// the best-score sorted set, the hot-page cache and the TTL counters
// used for cooldowns and rate limits. None of it is authoritative.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func member(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

func parseMember(m string) (uint, error) {
	id, err := strconv.ParseUint(m, 10, 64)
	return uint(id), err
}

// UpsertBest writes a user's best score into the index. GT semantics
// make the write safe to repeat and to race: the stored score never
// goes down.
func (s *Store) UpsertBest(ctx context.Context, userID uint, score int) error {
	return s.rdb.ZAddGT(ctx, leaderboardKey, redis.Z{
		Score:  float64(score),
		Member: member(userID),
	}).Err()
}

// Rank returns the user's zero-based rank and score, with ok=false when
// the user has no recorded score yet.
func (s *Store) Rank(ctx context.Context, userID uint) (rank int64, score int, ok bool, err error) {
	pipe := s.rdb.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, leaderboardKey, member(userID))
	scoreCmd := pipe.ZScore(ctx, leaderboardKey, member(userID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, false, err
	}
	if errors.Is(rankCmd.Err(), redis.Nil) || errors.Is(scoreCmd.Err(), redis.Nil) {
		return 0, 0, false, nil
	}
	return rankCmd.Val(), int(scoreCmd.Val()), true, nil
}

// Range returns index entries for the zero-based rank interval
// [start, stop], best score first.
func (s *Store) Range(ctx context.Context, start, stop int64) ([]Entry, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, leaderboardKey, start, stop).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(zs))
	for i, z := range zs {
		id, err := parseMember(fmt.Sprint(z.Member))
		if err != nil {
			continue
		}
		entries = append(entries, Entry{UserID: id, Score: int(z.Score), Rank: start + int64(i)})
	}
	return entries, nil
}

// Card returns the number of users with a recorded best score.
func (s *Store) Card(ctx context.Context) (int64, error) {
	return s.rdb.ZCard(ctx, leaderboardKey).Result()
}

// ScoresAndRanks batch-resolves score and rank for a candidate set in
// one pipelined round trip. Users with no recorded score are omitted.
func (s *Store) ScoresAndRanks(ctx context.Context, userIDs []uint) (map[uint]Entry, error) {
	if len(userIDs) == 0 {
		return map[uint]Entry{}, nil
	}

	pipe := s.rdb.Pipeline()
	scoreCmds := make([]*redis.FloatCmd, len(userIDs))
	rankCmds := make([]*redis.IntCmd, len(userIDs))
	for i, id := range userIDs {
		scoreCmds[i] = pipe.ZScore(ctx, leaderboardKey, member(id))
		rankCmds[i] = pipe.ZRevRank(ctx, leaderboardKey, member(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	out := make(map[uint]Entry, len(userIDs))
	for i, id := range userIDs {
		if errors.Is(scoreCmds[i].Err(), redis.Nil) || errors.Is(rankCmds[i].Err(), redis.Nil) {
			continue
		}
		out[id] = Entry{UserID: id, Score: int(scoreCmds[i].Val()), Rank: rankCmds[i].Val()}
	}
	return out, nil
}

// AcquireTokenCooldown sets the per-user issuance marker; false means a
// live marker already exists and the caller must wait it out.
func (s *Store) AcquireTokenCooldown(ctx context.Context, userID uint) (bool, error) {
	key := fmt.Sprintf("cooldown:token:%d", userID)
	return s.rdb.SetNX(ctx, key, 1, TokenCooldownTTL).Result()
}

// IncrWindow atomically bumps a rolling-window counter, arming the TTL
// on the first increment. Approximate windowing is all that is needed.
func (s *Store) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// GetTopPageCache returns the cached top-100 snapshot, ok=false on miss.
func (s *Store) GetTopPageCache(ctx context.Context) ([]byte, bool, error) {
	payload, err := s.rdb.Get(ctx, topPageCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// SetTopPageCache stores the top-100 snapshot under the page TTL.
func (s *Store) SetTopPageCache(ctx context.Context, payload []byte) error {
	return s.rdb.Set(ctx, topPageCacheKey, payload, TopPageTTL).Err()
}
