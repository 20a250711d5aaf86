package controllers

import (
	"encoding/json"
	"net/http"

	"penpal_server/middleware"
	"penpal_server/models"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// AddressController handles encrypted address storage and the two-phase
// reveal protocol.
type AddressController struct {
	RevealService *services.RevealService
}

func NewAddressController(service *services.RevealService) *AddressController {
	return &AddressController{RevealService: service}
}

func (c *AddressController) SaveAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var addr models.AddressRecord
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	record, err := c.RevealService.SaveAddress(r.Context(), userID, addr)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "saved",
		"updatedAt": record.CreatedAt,
	})
}

func (c *AddressController) GetMyAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	addr, updatedAt, err := c.RevealService.GetMyAddress(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":   addr,
		"updatedAt": updatedAt,
	})
}

func (c *AddressController) RequestReveal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	match, err := c.RevealService.RequestReveal(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (c *AddressController) ConfirmReveal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	match, err := c.RevealService.ConfirmReveal(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (c *AddressController) GetPartnerAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	addr, err := c.RevealService.GetPartnerAddress(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"address": addr})
}
