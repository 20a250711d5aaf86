package controllers

import (
	"encoding/json"
	"net/http"

	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// LetterController serves physical-letter tracking events.
type LetterController struct {
	LetterService *services.LetterService
}

func NewLetterController(service *services.LetterService) *LetterController {
	return &LetterController{LetterService: service}
}

func (c *LetterController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	var req struct {
		EventType string `json:"eventType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	event, err := c.LetterService.CreateEvent(r.Context(), matchID, userID, req.EventType)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (c *LetterController) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	events, err := c.LetterService.ListEvents(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (c *LetterController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	eventID := mux.Vars(r)["eventId"]

	var req struct {
		EventType string `json:"eventType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	event, err := c.LetterService.UpdateEvent(r.Context(), eventID, userID, req.EventType)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
