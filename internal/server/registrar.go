package server

import "github.com/gorilla/mux"

// Registrar is the common interface all route registrars implement.
type Registrar interface {
	Register(r *mux.Router)
}
