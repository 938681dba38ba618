package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"wingit/score/internal/models"
	"wingit/score/internal/repositories"
	"wingit/score/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler manages authentication endpoints. The game core only
// needs a stable user id out of this; everything else is account
// plumbing.
type AuthHandler struct {
	Repo      *repositories.UserRepository
	JWTSecret string
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing fields")
		return
	}
	if n := utf8.RuneCountInString(req.Username); n < 2 || n > 50 {
		utils.JSONError(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}

	// Early check for a friendly error; the unique index on the
	// normalized name is what actually holds under concurrency.
	if _, err := h.Repo.GetUserByUsername(req.Username); err == nil {
		utils.JSONError(w, http.StatusConflict, "username taken")
		return
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		utils.JSONError(w, http.StatusInternalServerError, "failed to check username")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user := &models.User{Username: req.Username, PasswordHash: string(hash)}
	if err := h.Repo.CreateUser(user); err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			utils.JSONError(w, http.StatusConflict, "username taken")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	signed, err := h.signToken(user)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	utils.JSON(w, http.StatusCreated, authResponse{ID: user.ID, Username: user.Username, Token: signed})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := h.Repo.GetUserByUsername(req.Username)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		utils.JSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	signed, err := h.signToken(user)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	utils.JSON(w, http.StatusOK, authResponse{ID: user.ID, Username: user.Username, Token: signed})
}

// GuestHandler creates a throwaway account so a player can hit the
// leaderboard without registering.
func (h *AuthHandler) GuestHandler(w http.ResponseWriter, r *http.Request) {
	name := "guest-" + uuid.NewString()[:8]
	user := &models.User{Username: name, PasswordHash: "-", IsGuest: true}
	if err := h.Repo.CreateUser(user); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to create guest")
		return
	}

	signed, err := h.signToken(user)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	utils.JSON(w, http.StatusCreated, authResponse{ID: user.ID, Username: user.Username, Token: signed})
}

func (h *AuthHandler) signToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
