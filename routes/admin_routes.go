package routes

import (
	"penpal_server/controllers"
	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// RegisterAdminRoutes sets up the moderation surface under /api/admin.
// Every route requires an admin token.
func RegisterAdminRoutes(r *mux.Router, adminService *services.AdminService, auditService *services.AuditService, jwtSecret string) {
	controller := controllers.NewAdminController(adminService, auditService)

	adminRouter := r.PathPrefix("/api/admin").Subrouter()
	adminRouter.Use(middleware.Auth(jwtSecret))
	adminRouter.Use(middleware.AdminOnly)

	adminRouter.HandleFunc("/reports", controller.ListReports).Methods("GET")
	adminRouter.HandleFunc("/reports/{reportId}", controller.GetReportDetails).Methods("GET")
	adminRouter.HandleFunc("/actions", controller.TakeAction).Methods("POST")
	adminRouter.HandleFunc("/audit", controller.GetAuditLog).Methods("GET")
}
