package swipe

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/server"
)

// Registrar ties the swipe engine into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (reg *Registrar) Register(r *mux.Router) {
	svc := NewService(reg.appCtx)
	h := &handler{svc: svc}

	r.HandleFunc("/properties/{id}/like", h.act(svc.LikeProperty)).Methods(http.MethodPost)
	r.HandleFunc("/properties/{id}/unlike", h.act(svc.UnlikeProperty)).Methods(http.MethodPost)
	r.HandleFunc("/properties/{id}/withdraw", h.act(svc.WithdrawRequest)).Methods(http.MethodPost)
	r.HandleFunc("/properties/{id}/requests/{userId}/approve", h.approve).Methods(http.MethodPost)
	r.HandleFunc("/requests/{userId}/reject", h.reject).Methods(http.MethodPost)
	r.HandleFunc("/properties/{id}/interested-count", h.interestedCount).Methods(http.MethodGet)
	r.HandleFunc("/profiles/favorites", h.favoriteProfiles).Methods(http.MethodGet)
	r.HandleFunc("/profiles/{id}/like", h.act(svc.LikeProfile)).Methods(http.MethodPost)
	r.HandleFunc("/profiles/{id}/unlike", h.act(svc.UnlikeProfile)).Methods(http.MethodPost)
}

type handler struct {
	svc *Service
}

// act adapts the common (actor, target-id) action shape shared by the
// like/unlike/withdraw endpoints.
func (h *handler) act(fn func(ctx context.Context, actorID, targetID uint64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := server.PathID(r, "id")
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, "VALIDATION", "id must be a valid integer")
			return
		}
		if err := fn(r.Context(), server.UserID(r), targetID); err != nil {
			server.WriteServiceError(w, err)
			return
		}
		server.WriteJSON(w, http.StatusOK, map[string]bool{"result": true})
	}
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	propertyID, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "id must be a valid integer")
		return
	}
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "userId must be a valid integer")
		return
	}

	swipeID, err := h.svc.ApproveRequest(r.Context(), server.UserID(r), userID, propertyID)
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]uint64{"swipe_id": swipeID})
}

func (h *handler) reject(w http.ResponseWriter, r *http.Request) {
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "userId must be a valid integer")
		return
	}

	if err := h.svc.RejectRequest(r.Context(), server.UserID(r), userID); err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"result": true})
}

func (h *handler) favoriteProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.FavoriteProfiles(r.Context(), server.UserID(r))
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (h *handler) interestedCount(w http.ResponseWriter, r *http.Request) {
	propertyID, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "id must be a valid integer")
		return
	}

	count, err := h.svc.InterestedCount(r.Context(), propertyID)
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}
