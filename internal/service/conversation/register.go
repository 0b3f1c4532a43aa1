package conversation

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/server"
)

// Registrar ties the conversation resolver into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (reg *Registrar) Register(r *mux.Router) {
	h := &handler{svc: NewService(reg.appCtx)}

	r.HandleFunc("/conversations/messages", h.sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/unread-count", h.unreadCount).Methods(http.MethodGet)
	r.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}", h.getConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/messages", h.getMessages).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/other-user", h.otherUser).Methods(http.MethodGet)
	r.HandleFunc("/properties/{id}/other-user", h.otherUserFromProperty).Methods(http.MethodGet)
}

type handler struct {
	svc *Service
}

type sendMessageRequest struct {
	ConversationID *uint64 `json:"conversation_id"`
	PropertyID     *uint64 `json:"property_id"`
	Content        string  `json:"content"`
	CounterpartyID *uint64 `json:"counterparty_id"`
}

func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := server.ReadJSON(r, &req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}

	result, err := h.svc.SendMessage(r.Context(), SendMessageInput{
		ConversationID: req.ConversationID,
		PropertyID:     req.PropertyID,
		SenderID:       server.UserID(r),
		Content:        req.Content,
		CounterpartyID: req.CounterpartyID,
	})
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}

func (h *handler) listConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.GetConversations(r.Context(), server.UserID(r))
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"conversations": summaries})
}

func (h *handler) getConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "id must be a valid integer")
		return
	}

	summary, err := h.svc.GetConversation(r.Context(), conversationID, server.UserID(r))
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, summary)
}

func (h *handler) getMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "id must be a valid integer")
		return
	}

	messages, err := h.svc.GetMessages(r.Context(), conversationID, server.UserID(r))
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *handler) otherUser(w http.ResponseWriter, r *http.Request) {
	conversationID, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "id must be a valid integer")
		return
	}

	other, err := h.svc.GetOtherUser(r.Context(), conversationID, server.UserID(r))
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, other)
}

func (h *handler) otherUserFromProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "id must be a valid integer")
		return
	}

	other, err := h.svc.GetOtherUserFromProperty(r.Context(), propertyID, server.UserID(r))
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, other)
}

func (h *handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.UnreadTotal(r.Context(), server.UserID(r))
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}
