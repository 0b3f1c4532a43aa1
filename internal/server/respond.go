package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	svcErr "github.com/subletme/sublet-api/internal/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a structured error body.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorBody{Code: code, Message: message})
}

// WriteServiceError maps a service error to its HTTP status and body.
// Infrastructure causes never leak their internals.
func WriteServiceError(w http.ResponseWriter, err error) {
	status := svcErr.HTTPStatus(err)
	code := svcErr.CodeOf(err)
	message := err.Error()
	if code == svcErr.CodeInfrastructure {
		message = "internal error"
	}
	WriteError(w, status, string(code), message)
}

// PathID parses a numeric path variable.
func PathID(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)[name], 10, 64)
}

// ReadJSON decodes the request body into v, rejecting unknown fields.
func ReadJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
