package leaderboard

import (
	"context"
	"encoding/json"
	"sort"

	"wingit/score/internal/rank"
	"wingit/score/internal/repositories"

	"go.uber.org/zap"
)

const (
	// MaxPageSize caps a single top-page read.
	MaxPageSize = 100
	// MaxSearchResults caps name-search candidate sets.
	MaxSearchResults = 50
	// neighborhood half-width around the caller's rank.
	neighborWindow = 2
)

// Entry is one leaderboard row, ranks one-based for display.
type Entry struct {
	Rank      int64  `json:"rank"`
	UserID    uint   `json:"userId"`
	Username  string `json:"username"`
	BestScore int    `json:"bestScore"`
}

// Page is a ranked slice of the leaderboard. Total is always read live
// so pagination stays accurate even when the page itself came from the
// cache.
type Page struct {
	Leaderboard []Entry `json:"leaderboard"`
	Total       int64   `json:"total"`
	Offset      int     `json:"offset"`
	Limit       int     `json:"limit"`
}

// Standing is the caller-centric neighborhood view. Rank and BestScore
// are nil when the user has not played yet; that is a valid state, not
// an error.
type Standing struct {
	Rank      *int64  `json:"rank"`
	BestScore *int    `json:"bestScore"`
	Above     []Entry `json:"above"`
	You       *Entry  `json:"you"`
	Below     []Entry `json:"below"`
	Total     int64   `json:"totalPlayers"`
}

// Service blends rank-store lookups with display-name joins from the
// relational store, memoizing the hottest page for a short TTL.
type Service struct {
	ranks  *rank.Store
	users  *repositories.UserRepository
	logger *zap.Logger
}

func NewService(ranks *rank.Store, users *repositories.UserRepository, logger *zap.Logger) *Service {
	return &Service{ranks: ranks, users: users, logger: logger}
}

// TopPage serves a contiguous rank range. Requests for the first page
// go through the cached top-100 snapshot; only a full top-100 read
// repopulates it on a miss, so partial reads never poison the cache.
func (s *Service) TopPage(ctx context.Context, offset, limit int) (*Page, error) {
	total, err := s.ranks.Card(ctx)
	if err != nil {
		return nil, err
	}

	page := &Page{Leaderboard: []Entry{}, Total: total, Offset: offset, Limit: limit}
	if total == 0 {
		return page, nil
	}

	cacheable := offset == 0 && limit <= MaxPageSize
	if cacheable {
		if cached, ok := s.cachedTopPage(ctx); ok {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			page.Leaderboard = cached
			return page, nil
		}
	}

	entries, err := s.rangeWithNames(ctx, int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, err
	}
	page.Leaderboard = entries

	if offset == 0 && limit >= MaxPageSize {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.ranks.SetTopPageCache(ctx, payload); err != nil {
				s.logger.Warn("failed to repopulate top page cache", zap.Error(err))
			}
		}
	}
	return page, nil
}

// Neighborhood returns the caller's rank plus a small window of
// adjacent players, clipped at the ends of the board.
func (s *Service) Neighborhood(ctx context.Context, userID uint) (*Standing, error) {
	total, err := s.ranks.Card(ctx)
	if err != nil {
		return nil, err
	}

	standing := &Standing{Above: []Entry{}, Below: []Entry{}, Total: total}

	userRank, score, ok, err := s.ranks.Rank(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return standing, nil
	}

	start := userRank - neighborWindow
	if start < 0 {
		start = 0
	}
	entries, err := s.rangeWithNames(ctx, start, userRank+neighborWindow)
	if err != nil {
		return nil, err
	}

	displayRank := userRank + 1
	standing.Rank = &displayRank
	standing.BestScore = &score
	for i := range entries {
		e := entries[i]
		switch {
		case e.Rank < displayRank:
			standing.Above = append(standing.Above, e)
		case e.Rank > displayRank:
			standing.Below = append(standing.Below, e)
		default:
			standing.You = &e
		}
	}
	return standing, nil
}

// NeighborhoodAt returns the window of players around an arbitrary
// display rank instead of the caller's own. The caller's standing is
// still reported so the client can highlight them when the window
// happens to contain them.
func (s *Service) NeighborhoodAt(ctx context.Context, userID uint, centerRank int64) (*Standing, error) {
	total, err := s.ranks.Card(ctx)
	if err != nil {
		return nil, err
	}
	standing := &Standing{Above: []Entry{}, Below: []Entry{}, Total: total}

	userRank, score, ok, err := s.ranks.Rank(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		displayRank := userRank + 1
		standing.Rank = &displayRank
		standing.BestScore = &score
	}

	start := centerRank - 1 - neighborWindow
	if start < 0 {
		start = 0
	}
	entries, err := s.rangeWithNames(ctx, start, centerRank-1+neighborWindow)
	if err != nil {
		return nil, err
	}

	// Split around the caller when they fall inside the window,
	// otherwise around the requested rank, so the flattened order
	// stays sorted either way.
	anchor := centerRank
	for i := range entries {
		if entries[i].UserID == userID {
			standing.You = &entries[i]
			anchor = entries[i].Rank
		}
	}
	for i := range entries {
		e := entries[i]
		switch {
		case e.UserID == userID:
		case e.Rank < anchor, standing.You == nil && e.Rank == anchor:
			standing.Above = append(standing.Above, e)
		default:
			standing.Below = append(standing.Below, e)
		}
	}
	return standing, nil
}

// Search matches display names case-insensitively, resolves each
// candidate's score and rank in one pipelined round trip, drops users
// with no recorded score and sorts the rest by score descending.
// Results are never cached.
func (s *Service) Search(ctx context.Context, query string) (*Page, error) {
	users, err := s.users.SearchByUsername(query, MaxSearchResults)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(users))
	names := make(map[uint]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
		names[u.ID] = u.Username
	}

	scored, err := s.ranks.ScoresAndRanks(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(scored))
	for id, e := range scored {
		entries = append(entries, Entry{
			Rank:      e.Rank + 1,
			UserID:    id,
			Username:  names[id],
			BestScore: e.Score,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].BestScore > entries[j].BestScore })

	return &Page{
		Leaderboard: entries,
		Total:       int64(len(entries)),
		Offset:      0,
		Limit:       MaxSearchResults,
	}, nil
}

func (s *Service) cachedTopPage(ctx context.Context) ([]Entry, bool) {
	payload, ok, err := s.ranks.GetTopPageCache(ctx)
	if err != nil {
		s.logger.Warn("top page cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// rangeWithNames reads a rank interval and joins display names from the
// relational store. Ranks come back one-based.
func (s *Service) rangeWithNames(ctx context.Context, start, stop int64) ([]Entry, error) {
	raw, err := s.ranks.Range(ctx, start, stop)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(raw))
	for i, e := range raw {
		ids[i] = e.UserID
	}
	names, err := s.users.GetUsernames(ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, Entry{
			Rank:      e.Rank + 1,
			UserID:    e.UserID,
			Username:  names[e.UserID],
			BestScore: e.Score,
		})
	}
	return entries, nil
}
