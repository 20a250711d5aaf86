package routes

import (
	"penpal_server/controllers"
	"penpal_server/middleware"
	"penpal_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up match listing, consent transitions,
// messaging and letter tracking under /api/matches.
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService, messageService *services.MessageService, letterService *services.LetterService, jwtSecret string) {
	matchController := controllers.NewMatchController(matchService)
	messageController := controllers.NewMessageController(messageService)
	letterController := controllers.NewLetterController(letterService)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.Use(middleware.Auth(jwtSecret))

	matchRouter.HandleFunc("", matchController.ListMatches).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/request-pen-pal", matchController.RequestPenPal).Methods("POST")
	matchRouter.HandleFunc("/{matchId}/confirm-pen-pal", matchController.ConfirmPenPal).Methods("POST")
	matchRouter.HandleFunc("/{matchId}/end", matchController.EndMatch).Methods("POST")

	matchRouter.HandleFunc("/{matchId}/messages", messageController.GetMessages).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/messages", messageController.SendMessage).Methods("POST")
	matchRouter.HandleFunc("/{matchId}/messages/mark-as-read", messageController.MarkMessagesAsRead).Methods("POST")

	matchRouter.HandleFunc("/{matchId}/letters", letterController.ListEvents).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/letters", letterController.CreateEvent).Methods("POST")
}
