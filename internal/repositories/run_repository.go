package repositories

import (
	"errors"

	"wingit/score/internal/models"

	"gorm.io/gorm"
)

// ErrTokenUsed is returned when the submission lost the race to consume
// its run token. The guarded update below guarantees at most one winner.
var ErrTokenUsed = errors.New("run token already used")

type RunRepository struct {
	DB *gorm.DB
}

// SubmitOutcome reports what the accepted-run transaction changed.
type SubmitOutcome struct {
	RunID      uint
	BestScore  int
	IsNewBest  bool
	NewBalance int64
}

// CommitAccepted performs the all-or-nothing update for an accepted run:
// consume the token, insert the Run row, credit the score to the user's
// balance, append the ledger entry and replace the best score if beaten.
func (r *RunRepository) CommitAccepted(token *models.RunToken, run *models.Run) (*SubmitOutcome, error) {
	outcome := &SubmitOutcome{}

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := consumeToken(tx, token.ID); err != nil {
			return err
		}

		if err := tx.Create(run).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", run.UserID).
			UpdateColumn("points", gorm.Expr("points + ?", run.Score)).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, run.UserID).Error; err != nil {
			return err
		}
		outcome.NewBalance = user.Points

		ledger := models.PointTransaction{
			UserID:      run.UserID,
			Delta:       int64(run.Score),
			Reason:      models.PointReasonRun,
			ReferenceID: &run.ID,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}

		var best models.UserBestScore
		err := tx.Where("user_id = ?", run.UserID).First(&best).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			best = models.UserBestScore{UserID: run.UserID, BestScore: run.Score, AchievedAt: run.CreatedAt}
			if err := tx.Create(&best).Error; err != nil {
				return err
			}
			outcome.IsNewBest = true
			outcome.BestScore = run.Score
		case err != nil:
			return err
		case run.Score > best.BestScore:
			if err := tx.Model(&best).Updates(map[string]any{
				"best_score":  run.Score,
				"achieved_at": run.CreatedAt,
			}).Error; err != nil {
				return err
			}
			outcome.IsNewBest = true
			outcome.BestScore = run.Score
		default:
			outcome.BestScore = best.BestScore
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome.RunID = run.ID
	return outcome, nil
}

// CommitRejected consumes the token and records the flagged run without
// touching points or best scores. Rejected runs must not be retryable
// with the same token.
func (r *RunRepository) CommitRejected(token *models.RunToken, run *models.Run) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := consumeToken(tx, token.ID); err != nil {
			return err
		}
		return tx.Create(run).Error
	})
}

// consumeToken flips used=false to true; a zero rows-affected result
// means a concurrent submission got there first.
func consumeToken(tx *gorm.DB, tokenID uint) error {
	res := tx.Model(&models.RunToken{}).
		Where("id = ? AND used = ?", tokenID, false).
		Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenUsed
	}
	return nil
}
