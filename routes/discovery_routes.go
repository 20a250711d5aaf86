package routes

import (
	"penpal_server/controllers"
	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// RegisterDiscoveryRoutes sets up the feed and connection-request routes
// under /api/discovery.
func RegisterDiscoveryRoutes(r *mux.Router, discoveryService *services.DiscoveryService, jwtSecret string) {
	controller := controllers.NewDiscoveryController(discoveryService)

	discoveryRouter := r.PathPrefix("/api/discovery").Subrouter()
	discoveryRouter.Use(middleware.Auth(jwtSecret))

	discoveryRouter.HandleFunc("/feed", controller.GetFeed).Methods("GET")
	discoveryRouter.HandleFunc("/requests", controller.SendRequest).Methods("POST")
	discoveryRouter.HandleFunc("/requests", controller.PendingRequests).Methods("GET")
	discoveryRouter.HandleFunc("/requests/{requestId}", controller.RespondToRequest).Methods("POST")
}
