package controllers

import (
	"encoding/json"
	"net/http"

	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// SafetyController handles blocks and reports.
type SafetyController struct {
	SafetyService *services.SafetyService
}

func NewSafetyController(service *services.SafetyService) *SafetyController {
	return &SafetyController{SafetyService: service}
}

func (c *SafetyController) BlockUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	if err := c.SafetyService.Block(r.Context(), userID, req.UserID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

func (c *SafetyController) UnblockUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	blockedID := mux.Vars(r)["userId"]

	if err := c.SafetyService.Unblock(r.Context(), userID, blockedID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

func (c *SafetyController) ListBlocked(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	blocks, err := c.SafetyService.ListBlocked(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (c *SafetyController) ReportUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req struct {
		UserID   string `json:"userId"`
		Category string `json:"category"`
		Context  string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	report, err := c.SafetyService.Report(r.Context(), userID, req.UserID, req.Category, req.Context)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}
