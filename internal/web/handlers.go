package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/Helvanljar/masterblog/internal/blog"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	data := s.baseData(r)
	data["Posts"] = rawPosts(s.Store.List(r.Context()))
	s.render(w, http.StatusOK, "index.html", data)
}

func (s *Server) PostDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	post, ok := s.Store.Get(r.Context(), id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	raw := post.Raw()
	data := s.baseData(r)
	data["Post"] = raw
	data["PostHTML"] = template.HTML(renderMarkdown(raw.Content))
	data["Title"] = raw.Title + " - " + s.Config.Site.Title
	s.render(w, http.StatusOK, "post.html", data)
}

func (s *Server) AddForm(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, http.StatusOK, "New post", "/add", blog.Post{}, "")
}

func (s *Server) AddPost(w http.ResponseWriter, r *http.Request) {
	input := parsePostForm(r)
	_, err := s.Store.Create(r.Context(), input.Author, input.Title, input.Content)
	if err != nil {
		s.formError(w, r, err, "New post", "/add", input)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	post, ok := s.Store.Get(r.Context(), id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.renderForm(w, r, http.StatusOK, "Edit post", "/update/"+strconv.Itoa(id), post.Raw(), "")
}

func (s *Server) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	input := parsePostForm(r)
	input.ID = id
	if _, err := s.Store.Update(r.Context(), id, input.Author, input.Title, input.Content); err != nil {
		s.formError(w, r, err, "Edit post", "/update/"+strconv.Itoa(id), input)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) LikePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, err := s.Store.Like(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formError re-renders the form for validation failures and falls back to
// fail for everything else.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, err error, pageTitle, action string, input blog.Post) {
	var verr *blog.ValidationError
	if errors.As(err, &verr) {
		s.renderForm(w, r, http.StatusBadRequest, pageTitle, action, input, verr.Message)
		return
	}
	s.fail(w, r, err)
}

// fail maps store errors onto status codes. Internal detail only goes to the log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *blog.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, blog.ErrNotFound):
		http.NotFound(w, r)
	default:
		s.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "Something went wrong while saving. Please try again.", http.StatusInternalServerError)
	}
}

// logger prefers the request-scoped logger installed by requestLogger.
func (s *Server) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Log
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, pageTitle, action string, post blog.Post, msg string) {
	data := s.baseData(r)
	data["PageTitle"] = pageTitle
	data["Action"] = action
	data["Post"] = post
	data["Error"] = msg
	data["MaxAuthor"] = blog.MaxAuthorLen
	data["MaxTitle"] = blog.MaxTitleLen
	data["MaxContent"] = blog.MaxContentLen
	s.render(w, status, "form.html", data)
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data map[string]any) {
	t, err := s.templateFor(page)
	if err != nil {
		s.Log.Error().Err(err).Str("template", page).Msg("template parse error")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.Log.Error().Err(err).Str("template", page).Msg("template execution error")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) templateFor(page string) (*template.Template, error) {
	s.templateMu.Lock()
	defer s.templateMu.Unlock()

	if t, ok := s.templateCache[page]; ok {
		return t, nil
	}

	t, err := template.New("").Funcs(template.FuncMap{
		"excerpt": excerpt,
	}).ParseFS(templateFS, "templates/base.html", "templates/"+page)
	if err != nil {
		return nil, err
	}
	s.templateCache[page] = t
	return t, nil
}

func (s *Server) baseData(r *http.Request) map[string]any {
	return map[string]any{
		"Title":       s.Config.Site.Title,
		"SiteTitle":   s.Config.Site.Title,
		"SiteURL":     s.Config.Site.BaseURL,
		"CurrentPath": r.URL.Path,
		"ReadOnly":    isReadOnly(r),
	}
}

func parsePostForm(r *http.Request) blog.Post {
	_ = r.ParseForm()
	return blog.Post{
		Author:  r.FormValue("author"),
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}
}

func postID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// rawPosts unescapes stored values so html/template escapes them exactly once.
func rawPosts(posts []blog.Post) []blog.Post {
	out := make([]blog.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Raw()
	}
	return out
}

func excerpt(input string, n int) string {
	runes := []rune(strings.TrimSpace(input))
	if len(runes) <= n {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// renderMarkdown converts post content to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func renderMarkdown(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	var b strings.Builder
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	if err := md.Convert([]byte(input), &b); err != nil {
		return template.HTMLEscapeString(input)
	}
	return b.String()
}
