package routes

import (
	"penpal_server/controllers"
	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// RegisterProfileRoutes sets up profile routes under /api/profile.
func RegisterProfileRoutes(r *mux.Router, profileService *services.ProfileService, jwtSecret string) {
	controller := controllers.NewProfileController(profileService)

	profileRouter := r.PathPrefix("/api/profile").Subrouter()
	profileRouter.Use(middleware.Auth(jwtSecret))

	profileRouter.HandleFunc("", controller.GetProfile).Methods("GET")
	profileRouter.HandleFunc("", controller.UpdateProfile).Methods("PUT")
	profileRouter.HandleFunc("/preferences", controller.UpdatePreferences).Methods("PUT")
}
