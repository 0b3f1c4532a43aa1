package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/subletme/sublet-api/internal/config"
)

// StartHTTPServer boots the REST server and mounts all provided registrars
// under /api. Blocks until the listener fails.
func StartHTTPServer(cfg *config.Config, parser TokenParser, registrars ...Registrar) error {
	root := mux.NewRouter()
	root.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := root.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(parser))

	for _, r := range registrars {
		r.Register(api)
	}

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
