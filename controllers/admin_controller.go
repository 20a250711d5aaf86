package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// AdminController serves the moderation surface. All routes sit behind
// the admin middleware.
type AdminController struct {
	AdminService *services.AdminService
	AuditService *services.AuditService
}

func NewAdminController(admin *services.AdminService, audit *services.AuditService) *AdminController {
	return &AdminController{AdminService: admin, AuditService: audit}
}

func (c *AdminController) ListReports(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	reports, err := c.AdminService.ListReports(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (c *AdminController) GetReportDetails(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["reportId"]

	details, err := c.AdminService.GetReportDetails(r.Context(), reportID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *AdminController) TakeAction(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.UserID(r.Context())

	var req struct {
		UserID string `json:"userId"`
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	if err := c.AdminService.TakeAction(r.Context(), adminID, req.UserID, req.Action, req.Reason); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "done"})
}

func (c *AdminController) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	if userID := r.URL.Query().Get("userId"); userID != "" {
		entries, err := c.AuditService.ListByUser(r.Context(), userID, int32(limit))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	entries, err := c.AuditService.ListAll(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
