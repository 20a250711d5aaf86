package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// MessageController serves in-match messaging.
type MessageController struct {
	MessageService *services.MessageService
}

func NewMessageController(service *services.MessageService) *MessageController {
	return &MessageController{MessageService: service}
}

func (c *MessageController) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	message, err := c.MessageService.Send(r.Context(), matchID, userID, req.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (c *MessageController) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	before := r.URL.Query().Get("before")

	messages, err := c.MessageService.List(r.Context(), matchID, userID, int32(limit), before)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (c *MessageController) MarkMessagesAsRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	if err := c.MessageService.MarkRead(r.Context(), matchID, userID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
