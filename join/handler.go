package join

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Feedback is a user facing message of a Response.
type Feedback struct {
	Level   string `json:"level"`
	Message string `json:"msg"`
}

// Response is the JSON envelope of the join endpoint.
type Response struct {
	Success   bool       `json:"success"`
	Feedbacks []Feedback `json:"feedbacks"`
}

// Handler serves join set replacement over HTTP.
type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, "malformed request body")
		return
	}

	_, err := h.resolver.Replace(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, Response{Success: true, Feedbacks: []Feedback{}})
	case errors.Is(err, ErrInvalidRequest):
		writeResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrObjectNotFound):
		writeResponse(w, http.StatusNotFound, "object could not be loaded")
	default:
		writeResponse(w, http.StatusInternalServerError, "joins could not be saved")
	}
}

func writeResponse(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{
		Success:   false,
		Feedbacks: []Feedback{{Level: "error", Message: msg}},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
