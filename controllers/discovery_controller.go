package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// DiscoveryController serves the discovery feed and connection requests.
type DiscoveryController struct {
	DiscoveryService *services.DiscoveryService
}

func NewDiscoveryController(service *services.DiscoveryService) *DiscoveryController {
	return &DiscoveryController{DiscoveryService: service}
}

func (c *DiscoveryController) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	profiles, err := c.DiscoveryService.GetFeed(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (c *DiscoveryController) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req struct {
		ToUser string `json:"toUser"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ToUser == "" {
		http.Error(w, `{"error": "toUser is required"}`, http.StatusBadRequest)
		return
	}

	request, err := c.DiscoveryService.SendRequest(r.Context(), userID, req.ToUser)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (c *DiscoveryController) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	requestID := mux.Vars(r)["requestId"]

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	match, err := c.DiscoveryService.Respond(r.Context(), requestID, userID, req.Action)
	if err != nil {
		respondError(w, err)
		return
	}
	if match == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (c *DiscoveryController) PendingRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	requests, err := c.DiscoveryService.PendingFor(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}
