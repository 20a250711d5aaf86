package routes

import (
	"penpal_server/controllers"
	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// RegisterLetterRoutes sets up standalone letter-event edits and scan
// uploads under /api/letters and /api/scans.
func RegisterLetterRoutes(r *mux.Router, letterService *services.LetterService, scanService *services.ScanService, jwtSecret string) {
	letterController := controllers.NewLetterController(letterService)
	scanController := controllers.NewScanController(scanService)

	letterRouter := r.PathPrefix("/api/letters").Subrouter()
	letterRouter.Use(middleware.Auth(jwtSecret))
	letterRouter.HandleFunc("/{eventId}", letterController.UpdateEvent).Methods("PUT")

	scanRouter := r.PathPrefix("/api/scans").Subrouter()
	scanRouter.Use(middleware.Auth(jwtSecret))
	scanRouter.HandleFunc("", scanController.UploadScan).Methods("POST")
	scanRouter.HandleFunc("/match/{matchId}", scanController.ListScans).Methods("GET")
	scanRouter.HandleFunc("/{scanId}/url", scanController.GetScanURL).Methods("GET")
}
