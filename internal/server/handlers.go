package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/leapstack-labs/sql2nl/internal/translate"
	"github.com/leapstack-labs/sql2nl/pkg/explain"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// translateRequest is the body of POST /translate.
type translateRequest struct {
	SQL   *string `json:"sql"`
	Model string  `json:"model,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !s.decode(w, r, &req) {
		return
	}

	res := s.translator.Translate(r.Context(), translate.Request{
		SQL:   *req.SQL,
		Model: req.Model,
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, explain.Analyze(*req.SQL))
}

// decode reads a JSON body into req and writes an error response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, req *translateRequest) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
		return false
	}
	if req.SQL == nil {
		writeError(w, http.StatusBadRequest, `field "sql" is required`)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
