package web

import (
	"encoding/json"
	"net/http"
)

// APIListPosts returns the posts exactly as stored, escaped text included.
func (s *Server) APIListPosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.List(r.Context()))
}

func (s *Server) APIGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	post, ok := s.Store.Get(r.Context(), id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
