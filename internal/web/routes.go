package web

import "net/http"

// PublicRoutes serves the read-only pages. The static generator crawls these,
// so pages rendered here leave out the like, update and delete controls.
func (s *Server) PublicRoutes() http.Handler {
	mux := http.NewServeMux()
	s.registerPublic(mux)
	return s.requestLogger(readOnly(mux))
}

// Routes serves everything, including the endpoints that change posts.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	s.registerPublic(mux)

	mux.HandleFunc("GET /add", s.AddForm)
	mux.HandleFunc("POST /add", s.AddPost)
	mux.HandleFunc("GET /update/{id}", s.UpdateForm)
	mux.HandleFunc("POST /update/{id}", s.UpdatePost)
	// GET is kept so plain links in templates keep working.
	mux.HandleFunc("GET /delete/{id}", s.DeletePost)
	mux.HandleFunc("POST /delete/{id}", s.DeletePost)
	mux.HandleFunc("GET /like/{id}", s.LikePost)
	mux.HandleFunc("POST /like/{id}", s.LikePost)

	return s.requestLogger(mux)
}

func (s *Server) registerPublic(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.Index)
	mux.HandleFunc("GET /posts/{id}", s.PostDetail)
	mux.HandleFunc("GET /feed", s.RSS)
	mux.HandleFunc("GET /sitemap.xml", s.Sitemap)
	mux.HandleFunc("GET /api/posts", s.APIListPosts)
	mux.HandleFunc("GET /api/posts/{id}", s.APIGetPost)
	mux.HandleFunc("GET /healthz", s.Health)
}
