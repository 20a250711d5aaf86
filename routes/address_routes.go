package routes

import (
	"penpal_server/controllers"
	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// RegisterAddressRoutes sets up address storage and the reveal protocol.
func RegisterAddressRoutes(r *mux.Router, revealService *services.RevealService, jwtSecret string) {
	controller := controllers.NewAddressController(revealService)

	addressRouter := r.PathPrefix("/api/address").Subrouter()
	addressRouter.Use(middleware.Auth(jwtSecret))
	addressRouter.HandleFunc("", controller.SaveAddress).Methods("PUT")
	addressRouter.HandleFunc("", controller.GetMyAddress).Methods("GET")

	revealRouter := r.PathPrefix("/api/matches").Subrouter()
	revealRouter.Use(middleware.Auth(jwtSecret))
	revealRouter.HandleFunc("/{matchId}/request-reveal", controller.RequestReveal).Methods("POST")
	revealRouter.HandleFunc("/{matchId}/confirm-reveal", controller.ConfirmReveal).Methods("POST")
	revealRouter.HandleFunc("/{matchId}/partner-address", controller.GetPartnerAddress).Methods("GET")
}
