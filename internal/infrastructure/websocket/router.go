package websocket

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter serves the auction rooms and a health probe.
func NewRouter(handler *WebSocketHandler, middlewares ...mux.MiddlewareFunc) *mux.Router {
	router := mux.NewRouter()
	router.Use(middlewares...)

	router.HandleFunc("/ws/auctions/{auctionID}", handler.HandleConnection).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	return router
}
