package routes

import (
	"penpal_server/controllers"
	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// RegisterSafetyRoutes sets up blocks and reports under /api/safety.
func RegisterSafetyRoutes(r *mux.Router, safetyService *services.SafetyService, jwtSecret string) {
	controller := controllers.NewSafetyController(safetyService)

	safetyRouter := r.PathPrefix("/api/safety").Subrouter()
	safetyRouter.Use(middleware.Auth(jwtSecret))

	safetyRouter.HandleFunc("/blocks", controller.BlockUser).Methods("POST")
	safetyRouter.HandleFunc("/blocks", controller.ListBlocked).Methods("GET")
	safetyRouter.HandleFunc("/blocks/{userId}", controller.UnblockUser).Methods("DELETE")
	safetyRouter.HandleFunc("/reports", controller.ReportUser).Methods("POST")
}
