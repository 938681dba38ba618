package handlers

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"wingit/score/internal/leaderboard"
	"wingit/score/internal/utils"
)

// LeaderboardHandler serves ranked pages, name search and the
// caller-centric neighborhood view.
type LeaderboardHandler struct {
	Board     *leaderboard.Service
	JWTSecret string
}

// GetLeaderboardHandler handles both paged reads and name search;
// a non-empty search parameter selects the search mode.
func (h *LeaderboardHandler) GetLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if search := query.Get("search"); search != "" {
		if n := utf8.RuneCountInString(search); n < 2 || n > 50 {
			utils.JSONError(w, http.StatusBadRequest, "search must be 2-50 characters")
			return
		}
		page, err := h.Board.Search(r.Context(), search)
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "server_error")
			return
		}
		utils.JSON(w, http.StatusOK, page)
		return
	}

	offset := 0
	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.JSONError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = n
	}

	limit := 10
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > leaderboard.MaxPageSize {
			utils.JSONError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	page, err := h.Board.TopPage(r.Context(), offset, limit)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server_error")
		return
	}
	utils.JSON(w, http.StatusOK, page)
}

type nearbyPlayer struct {
	Rank      int64  `json:"rank"`
	Username  string `json:"username"`
	BestScore int    `json:"bestScore"`
	IsYou     bool   `json:"isYou"`
}

type standingResponse struct {
	Rank          *int64         `json:"rank"`
	BestScore     *int           `json:"bestScore"`
	NearbyPlayers []nearbyPlayer `json:"nearbyPlayers"`
	TotalPlayers  int64          `json:"totalPlayers"`
}

// MyStandingHandler returns a rank neighborhood: around the caller by
// default, or around an explicit rank when the query names one. A user
// who has not played yet gets null rank and an empty window, not an
// error.
func (h *LeaderboardHandler) MyStandingHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := utils.VerifyToken(r, h.JWTSecret)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, err := utils.GetUserIDFromClaims(claims)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var standing *leaderboard.Standing
	if raw := r.URL.Query().Get("rank"); raw != "" {
		center, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || center < 1 {
			utils.JSONError(w, http.StatusBadRequest, "rank must be a positive integer")
			return
		}
		standing, err = h.Board.NeighborhoodAt(r.Context(), userID, center)
	} else {
		standing, err = h.Board.Neighborhood(r.Context(), userID)
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := standingResponse{
		Rank:          standing.Rank,
		BestScore:     standing.BestScore,
		NearbyPlayers: []nearbyPlayer{},
		TotalPlayers:  standing.Total,
	}
	for _, e := range standing.Above {
		resp.NearbyPlayers = append(resp.NearbyPlayers, nearbyPlayer{Rank: e.Rank, Username: e.Username, BestScore: e.BestScore})
	}
	if standing.You != nil {
		resp.NearbyPlayers = append(resp.NearbyPlayers, nearbyPlayer{
			Rank: standing.You.Rank, Username: standing.You.Username, BestScore: standing.You.BestScore, IsYou: true,
		})
	}
	for _, e := range standing.Below {
		resp.NearbyPlayers = append(resp.NearbyPlayers, nearbyPlayer{Rank: e.Rank, Username: e.Username, BestScore: e.BestScore})
	}
	utils.JSON(w, http.StatusOK, resp)
}
