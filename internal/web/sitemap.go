package web

import (
	"encoding/xml"
	"net/http"
	"strconv"
)

type URL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type URLSet struct {
	XMLName xml.Name `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []URL    `xml:"url"`
}

func (s *Server) Sitemap(w http.ResponseWriter, r *http.Request) {
	baseURL := s.Config.Site.BaseURL
	posts := s.Store.List(r.Context())

	urls := []URL{{
		Loc:        baseURL + "/",
		ChangeFreq: "daily",
		Priority:   "1.0",
	}}
	for _, post := range posts {
		urls = append(urls, URL{
			Loc:        baseURL + "/posts/" + strconv.Itoa(post.ID),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(URLSet{URLs: urls}); err != nil {
		s.Log.Error().Err(err).Msg("sitemap error")
	}
}
