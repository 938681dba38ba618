package repositories

import (
	"testing"
	"time"

	"wingit/score/internal/models"
	"wingit/score/internal/testhelpers"
)

func TestTokenRepository_CreateAndGet(t *testing.T) {
	repo := &TokenRepository{DB: testhelpers.SetupTestDB(t)}

	token := &models.RunToken{Token: "tok-1", UserID: 1, ExpiresAt: time.Now().Add(10 * time.Minute)}
	if err := repo.Create(token); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := repo.GetByToken("tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != 1 || got.Used {
		t.Fatalf("unexpected token state: %+v", got)
	}

	if _, err := repo.GetByToken("missing"); err != ErrTokenNotFound {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	repo := &TokenRepository{DB: testhelpers.SetupTestDB(t)}

	now := time.Now()
	stale := &models.RunToken{Token: "stale", UserID: 1, ExpiresAt: now.Add(-time.Minute)}
	live := &models.RunToken{Token: "live", UserID: 1, ExpiresAt: now.Add(10 * time.Minute)}
	for _, tok := range []*models.RunToken{stale, live} {
		if err := repo.Create(tok); err != nil {
			t.Fatalf("failed to seed token: %v", err)
		}
	}

	n, err := repo.DeleteExpired(now)
	if err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deletion, got %d", n)
	}
	if _, err := repo.GetByToken("live"); err != nil {
		t.Fatalf("live token must survive: %v", err)
	}
}

func TestTokenRepository_DeleteUsedBefore(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	repo := &TokenRepository{DB: db}

	used := &models.RunToken{Token: "used", UserID: 1, ExpiresAt: time.Now().Add(10 * time.Minute), Used: true}
	if err := repo.Create(used); err != nil {
		t.Fatalf("failed to seed token: %v", err)
	}

	// Not yet past the retention window.
	n, err := repo.DeleteUsedBefore(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteUsedBefore returned error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no deletions inside retention, got %d", n)
	}

	n, err = repo.DeleteUsedBefore(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteUsedBefore returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deletion past retention, got %d", n)
	}
}
