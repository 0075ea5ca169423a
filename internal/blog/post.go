package blog

import (
	"fmt"
	"html"
)

type Post struct {
	ID      int    `json:"id"`
	Author  string `json:"author"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Likes   int    `json:"likes"`
}

// Raw returns the post with its text fields unescaped, suitable for
// prefilling an edit form.
func (p Post) Raw() Post {
	p.Author = html.UnescapeString(p.Author)
	p.Title = html.UnescapeString(p.Title)
	p.Content = html.UnescapeString(p.Content)
	return p
}

func (p Post) LikesLabel() string {
	if p.Likes == 1 {
		return "1 like"
	}
	return fmt.Sprintf("%d likes", p.Likes)
}

// defaultPosts is what Load hands back when storage is missing or corrupt.
// A fresh slice is built on every call so callers may mutate it freely.
func defaultPosts() []Post {
	return []Post{
		{ID: 1, Author: "John Doe", Title: "First Post", Content: "This is my first post.", Likes: 0},
		{ID: 2, Author: "Jane Doe", Title: "Second Post", Content: "This is another post.", Likes: 0},
	}
}

func nextID(posts []Post) int {
	max := 0
	for _, p := range posts {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

func indexOf(posts []Post, id int) int {
	for i, p := range posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
