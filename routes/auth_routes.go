package routes

import (
	"penpal_server/controllers"
	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// RegisterAuthRoutes sets up registration, login and the current-user
// endpoint under /api/auth.
func RegisterAuthRoutes(r *mux.Router, authService *services.AuthService, jwtSecret string) {
	controller := controllers.NewAuthController(authService)

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", controller.Register).Methods("POST")
	authRouter.HandleFunc("/login", controller.Login).Methods("POST")
	authRouter.HandleFunc("/admin/login", controller.AdminLogin).Methods("POST")

	meRouter := r.PathPrefix("/api/auth").Subrouter()
	meRouter.Use(middleware.Auth(jwtSecret))
	meRouter.HandleFunc("/me", controller.Me).Methods("GET")
}
