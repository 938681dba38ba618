package anticheat

import (
	"wingit/score/internal/models"
)

// Bounds derived from the client's pacing: the fastest obstacle cadence
// is one scoring event per MinEventIntervalMs, so a claimed score fixes
// a floor on the run's duration. The validator encodes the inverse of
// the client physics, not the renderer.
const (
	MaxScore           = 10000
	MinDurationMs      = int64(0)
	MaxDurationMs      = int64(3_600_000)
	MinEventIntervalMs = int64(300)

	// Accepted runs above this share of the theoretical maximum are
	// kept but flagged for review.
	suspicionRatio = 0.95
)

// Verdict is the validator's decision for one claimed run.
type Verdict struct {
	Valid      bool
	Flagged    bool
	FlagReason models.FlagReason
}

// Validate decides accept/reject/flag for a claimed score and duration.
// Pure: no I/O, no shared state, safe to call concurrently. Rules are
// evaluated in order and the first invalid match wins.
func Validate(score int, durationMs int64) Verdict {
	if score < 0 || score > MaxScore {
		return Verdict{Valid: false, Flagged: true, FlagReason: models.FlagScoreOutOfBounds}
	}
	if durationMs < MinDurationMs || durationMs > MaxDurationMs {
		return Verdict{Valid: false, Flagged: true, FlagReason: models.FlagDurationOutOfBounds}
	}
	if durationMs < int64(score)*MinEventIntervalMs {
		return Verdict{Valid: false, Flagged: true, FlagReason: models.FlagImpossibleTiming}
	}

	// Accept-but-flag: near the physical ceiling for this duration.
	maxAchievable := float64(durationMs) / float64(MinEventIntervalMs)
	if score > 0 && float64(score) > suspicionRatio*maxAchievable {
		return Verdict{Valid: true, Flagged: true, FlagReason: models.FlagSuspiciouslyFast}
	}
	return Verdict{Valid: true}
}
