package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wingit/score/internal/anticheat"
	"wingit/score/internal/leaderboard"
	"wingit/score/internal/models"
	"wingit/score/internal/rank"
	"wingit/score/internal/repositories"
	"wingit/score/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenValidity is the window in which an issued run token can be redeemed.
const TokenValidity = 10 * time.Minute

var (
	ErrRateLimited  = errors.New("rate limited")
	ErrInvalidToken = errors.New("run token not found")
	ErrForbidden    = errors.New("run token belongs to another user")
	ErrTokenExpired = errors.New("run token expired")
	ErrInvalidRun   = errors.New("run rejected by validation")
)

// IssuedToken is the result of a successful token issuance.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// YourStanding is the caller-specific slice of a submission result.
type YourStanding struct {
	Rank      *int64 `json:"rank"`
	BestScore int    `json:"bestScore"`
	IsNewBest bool   `json:"isNewBest"`
}

// Result is returned to the client after an accepted submission.
type Result struct {
	Top10         []leaderboard.Entry `json:"top10"`
	You           YourStanding        `json:"you"`
	PointsEarned  int                 `json:"pointsEarned"`
	PointsBalance int64               `json:"pointsBalance"`
}

// Coordinator orchestrates the submission pipeline: rate limits, token
// redemption, anti-cheat validation, the atomic relational commit and
// the best-effort rank index update.
type Coordinator struct {
	tokens *repositories.TokenRepository
	runs   *repositories.RunRepository
	ranks  *rank.Store
	board  *leaderboard.Service
	logger *zap.Logger

	userLimit int64
	ipLimit   int64
}

func NewCoordinator(
	tokens *repositories.TokenRepository,
	runs *repositories.RunRepository,
	ranks *rank.Store,
	board *leaderboard.Service,
	logger *zap.Logger,
	userLimit, ipLimit int64,
) *Coordinator {
	return &Coordinator{
		tokens:    tokens,
		runs:      runs,
		ranks:     ranks,
		board:     board,
		logger:    logger,
		userLimit: userLimit,
		ipLimit:   ipLimit,
	}
}

// IssueToken grants a single-use run token, at most once per user per
// cooldown window. The cooldown marker stays set whether or not the
// run is ever submitted; a stray marker only costs an extra wait.
func (c *Coordinator) IssueToken(ctx context.Context, userID uint) (*IssuedToken, error) {
	acquired, err := c.ranks.AcquireTokenCooldown(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("token cooldown check: %w", err)
	}
	if !acquired {
		return nil, ErrRateLimited
	}

	token := &models.RunToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(TokenValidity),
	}
	if err := c.tokens.Create(token); err != nil {
		return nil, fmt.Errorf("persist run token: %w", err)
	}
	return &IssuedToken{Token: token.Token, ExpiresAt: token.ExpiresAt}, nil
}

// Submit runs the full pipeline for one claimed run. All failures are
// terminal for the request; retry policy belongs to the caller.
func (c *Coordinator) Submit(ctx context.Context, userID uint, remoteAddr, tokenStr string, score int, durationMs int64) (*Result, error) {
	ipHash := utils.HashIP(remoteAddr)
	if err := c.checkSubmitLimits(ctx, userID, ipHash); err != nil {
		return nil, err
	}

	token, err := c.tokens.GetByToken(tokenStr)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up run token: %w", err)
	}
	if token.UserID != userID {
		return nil, ErrForbidden
	}
	if token.Used {
		return nil, repositories.ErrTokenUsed
	}
	if time.Now().After(token.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	verdict := anticheat.Validate(score, durationMs)
	run := &models.Run{
		UserID:     userID,
		Score:      score,
		DurationMs: durationMs,
		Token:      token.Token,
		IPHash:     ipHash,
		Flagged:    verdict.Flagged,
		FlagReason: verdict.FlagReason,
	}

	if !verdict.Valid {
		// The token is consumed even on rejection so a rejected run
		// cannot be farmed by resubmission.
		if err := c.runs.CommitRejected(token, run); err != nil {
			if errors.Is(err, repositories.ErrTokenUsed) {
				return nil, err
			}
			return nil, fmt.Errorf("record rejected run: %w", err)
		}
		c.logger.Info("run rejected",
			zap.Uint("userId", userID),
			zap.Int("score", score),
			zap.Int64("durationMs", durationMs),
			zap.String("reason", string(verdict.FlagReason)))
		return nil, ErrInvalidRun
	}

	outcome, err := c.runs.CommitAccepted(token, run)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("commit run: %w", err)
	}

	c.logger.Info("run accepted",
		zap.Uint("userId", userID),
		zap.Uint("runId", outcome.RunID),
		zap.Int("score", score),
		zap.Bool("isNewBest", outcome.IsNewBest),
		zap.Bool("flagged", verdict.Flagged))

	// Best-effort: the relational commit is authoritative and the rank
	// index self-heals on the next write touching this user.
	if err := c.ranks.UpsertBest(ctx, userID, outcome.BestScore); err != nil {
		c.logger.Warn("rank index update failed after commit",
			zap.Uint("userId", userID), zap.Error(err))
	}

	return c.assembleResult(ctx, userID, score, outcome), nil
}

func (c *Coordinator) checkSubmitLimits(ctx context.Context, userID uint, ipHash string) error {
	userKey := fmt.Sprintf("rate:run:user:%d", userID)
	n, err := c.ranks.IncrWindow(ctx, userKey, rank.RateWindow)
	if err != nil {
		return fmt.Errorf("user rate counter: %w", err)
	}
	if n > c.userLimit {
		return ErrRateLimited
	}

	ipKey := "rate:run:ip:" + ipHash
	n, err = c.ranks.IncrWindow(ctx, ipKey, rank.RateWindow)
	if err != nil {
		return fmt.Errorf("ip rate counter: %w", err)
	}
	if n > c.ipLimit {
		return ErrRateLimited
	}
	return nil
}

// assembleResult never fails the request: the run is already committed,
// so read-side hiccups degrade the response instead of erroring it.
func (c *Coordinator) assembleResult(ctx context.Context, userID uint, score int, outcome *repositories.SubmitOutcome) *Result {
	result := &Result{
		Top10:         []leaderboard.Entry{},
		You:           YourStanding{BestScore: outcome.BestScore, IsNewBest: outcome.IsNewBest},
		PointsEarned:  score,
		PointsBalance: outcome.NewBalance,
	}

	if userRank, _, ok, err := c.ranks.Rank(ctx, userID); err != nil {
		c.logger.Warn("rank lookup failed", zap.Uint("userId", userID), zap.Error(err))
	} else if ok {
		displayRank := userRank + 1
		result.You.Rank = &displayRank
	}

	if page, err := c.board.TopPage(ctx, 0, 10); err != nil {
		c.logger.Warn("top10 fetch failed", zap.Error(err))
	} else {
		result.Top10 = page.Leaderboard
	}
	return result
}
