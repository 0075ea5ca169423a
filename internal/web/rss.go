package web

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/feeds"
)

const feedSize = 20

func (s *Server) RSS(w http.ResponseWriter, r *http.Request) {
	siteURL := s.Config.Site.BaseURL

	feed := &feeds.Feed{
		Title:       s.Config.Site.Title,
		Link:        &feeds.Link{Href: siteURL},
		Description: s.Config.Site.Title + " posts",
		Created:     time.Now(),
	}

	// Posts carry no timestamps; higher ids are newer.
	posts := rawPosts(s.Store.List(r.Context()))
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].ID > posts[j].ID
	})
	if len(posts) > feedSize {
		posts = posts[:feedSize]
	}

	for _, post := range posts {
		link := siteURL + "/posts/" + strconv.Itoa(post.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       post.Title,
			Link:        &feeds.Link{Href: link},
			Author:      &feeds.Author{Name: post.Author},
			Description: excerpt(post.Content, 200),
			Content:     renderMarkdown(post.Content),
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := feed.WriteRss(w); err != nil {
		s.Log.Error().Err(err).Msg("RSS error")
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
	}
}
