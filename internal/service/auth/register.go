package auth

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/config"
	"github.com/subletme/sublet-api/internal/db"
	"github.com/subletme/sublet-api/internal/server"
)

// Registrar ties account and device endpoints into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(appCtx *app.AppContext, cfg *config.Config) *Registrar {
	return &Registrar{svc: NewService(appCtx, cfg)}
}

// Service exposes the underlying auth service so the server middleware can
// borrow its token parser.
func (reg *Registrar) Service() *Service {
	return reg.svc
}

func (reg *Registrar) Register(r *mux.Router) {
	h := &handler{svc: reg.svc}

	r.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/social", h.social).Methods(http.MethodPost)
	r.HandleFunc("/devices", h.registerDevice).Methods(http.MethodPost)
}

type handler struct {
	svc *Service
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type socialRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Provider  string `json:"provider"`
}

type deviceRequest struct {
	FirebaseToken string `json:"firebase_token"`
	DeviceInfo    string `json:"device_info"`
}

type authResponse struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := server.ReadJSON(r, &req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}

	user, token, err := h.svc.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := server.ReadJSON(r, &req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *handler) social(w http.ResponseWriter, r *http.Request) {
	var req socialRequest
	if err := server.ReadJSON(r, &req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}
	if req.Provider == "" {
		req.Provider = "google"
	}

	user, token, err := h.svc.FindOrCreateUser(r.Context(), req.Email, req.FirstName, req.LastName, req.Provider)
	if err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := server.ReadJSON(r, &req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}

	if err := h.svc.RegisterDevice(r.Context(), server.UserID(r), req.FirebaseToken, req.DeviceInfo); err != nil {
		server.WriteServiceError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"result": true})
}
