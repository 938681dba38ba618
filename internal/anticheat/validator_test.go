package anticheat

import (
	"testing"

	"wingit/score/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		durationMs int64
		valid      bool
		flagged    bool
		reason     models.FlagReason
	}{
		{"zero score short run", 0, 1000, true, false, ""},
		{"typical run", 50, 60000, true, false, ""},
		{"negative score", -1, 60000, false, true, models.FlagScoreOutOfBounds},
		{"score above ceiling", MaxScore + 1, 60000, false, true, models.FlagScoreOutOfBounds},
		{"negative duration", 10, -5, false, true, models.FlagDurationOutOfBounds},
		{"duration above ceiling", 10, MaxDurationMs + 1, false, true, models.FlagDurationOutOfBounds},
		{"impossible timing", 100, 1, false, true, models.FlagImpossibleTiming},
		{"exactly at timing floor", 10, 10 * MinEventIntervalMs, true, true, models.FlagSuspiciouslyFast},
		{"suspiciously fast", 100, 30300, true, true, models.FlagSuspiciouslyFast},
		{"fast but plausible", 50, 30000, true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.score, tt.durationMs)
			if v.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v", v.Valid, tt.valid)
			}
			if v.Flagged != tt.flagged {
				t.Fatalf("Flagged = %v, want %v", v.Flagged, tt.flagged)
			}
			if v.FlagReason != tt.reason {
				t.Fatalf("FlagReason = %q, want %q", v.FlagReason, tt.reason)
			}
		})
	}
}

func TestValidateOrderOfRules(t *testing.T) {
	// A run failing both the score bound and the timing floor must
	// report the score bound; rules are ordered and first match wins.
	v := Validate(MaxScore+1, 1)
	if v.FlagReason != models.FlagScoreOutOfBounds {
		t.Fatalf("expected score bound to win, got %q", v.FlagReason)
	}
}
