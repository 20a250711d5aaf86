package controllers

import (
	"net/http"

	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// MatchController serves the matches list and the pen-pal consent
// transitions.
type MatchController struct {
	MatchService *services.MatchService
}

func NewMatchController(service *services.MatchService) *MatchController {
	return &MatchController{MatchService: service}
}

func (c *MatchController) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	matches, err := c.MatchService.ListActive(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (c *MatchController) RequestPenPal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	match, err := c.MatchService.RequestPenPal(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (c *MatchController) ConfirmPenPal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	match, err := c.MatchService.ConfirmPenPal(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (c *MatchController) EndMatch(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	match, err := c.MatchService.End(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}
