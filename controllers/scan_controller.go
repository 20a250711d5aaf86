package controllers

import (
	"io"
	"net/http"

	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// ScanController handles letter scan uploads and retrieval URLs.
type ScanController struct {
	ScanService *services.ScanService
}

func NewScanController(service *services.ScanService) *ScanController {
	return &ScanController{ScanService: service}
}

// UploadScan accepts a multipart form with a "file" part and a
// "letterEventId" field.
func (c *ScanController) UploadScan(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	if err := r.ParseMultipartForm(services.MaxScanSize); err != nil {
		http.Error(w, `{"error": "Invalid multipart form"}`, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error": "file is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxScanSize+1))
	if err != nil {
		http.Error(w, `{"error": "Failed to read file"}`, http.StatusBadRequest)
		return
	}

	letterEventID := r.FormValue("letterEventId")
	contentType := header.Header.Get("Content-Type")

	asset, err := c.ScanService.Upload(r.Context(), userID, letterEventID, header.Filename, contentType, data)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (c *ScanController) ListScans(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	matchID := mux.Vars(r)["matchId"]

	scans, err := c.ScanService.ListByMatch(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

func (c *ScanController) GetScanURL(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	scanID := mux.Vars(r)["scanId"]

	url, err := c.ScanService.GetURL(r.Context(), scanID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
