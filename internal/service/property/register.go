package property

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/db"
	"github.com/subletme/sublet-api/internal/server"
)

// Registrar ties the discovery and requests views into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (reg *Registrar) Register(r *mux.Router) {
	h := &handler{svc: NewService(reg.appCtx)}

	r.HandleFunc("/properties/feed", h.feed).Methods(http.MethodGet)
	r.HandleFunc("/properties/my-requests", h.myRequests).Methods(http.MethodGet)
	r.HandleFunc("/host/requests", h.hostInbox).Methods(http.MethodGet)
}

type handler struct {
	svc *Service
}

func (h *handler) feed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var token *string
	if t := q.Get("pagination_token"); t != "" {
		token = &t
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	properties, next, err := h.svc.Feed(r.Context(), server.UserID(r), token, limit)
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"properties":       properties,
		"pagination_token": next,
	})
}

func (h *handler) myRequests(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(r)
	if !ok {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid status filter")
		return
	}

	rows, err := h.svc.MyRequests(r.Context(), server.UserID(r), status)
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"properties": rows})
}

func (h *handler) hostInbox(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(r)
	if !ok {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid status filter")
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, err := h.svc.HostInbox(r.Context(), server.UserID(r), status, limit, offset)
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"requests": rows})
}

func statusFilter(r *http.Request) (*db.SwipeStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	status := db.SwipeStatus(raw)
	switch status {
	case db.StatusPending, db.StatusApproved, db.StatusRejected, db.StatusWithdrawn:
		return &status, true
	}
	return nil, false
}
