package blog

import (
	"fmt"
	"unicode/utf8"
)

const (
	MaxAuthorLen  = 100
	MaxTitleLen   = 200
	MaxContentLen = 10000
)

// Validate checks the user-supplied text fields before they are escaped.
// Emptiness, encoding and length are checked; whitespace is not trimmed.
func Validate(author, title, content string) error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"author", author, MaxAuthorLen},
		{"title", title, MaxTitleLen},
		{"content", content, MaxContentLen},
	}

	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name, Message: fmt.Sprintf("%s is required", f.name)}
		}
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return &ValidationError{Field: f.name, Message: fmt.Sprintf("%s is not valid UTF-8", f.name)}
		}
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > f.max {
			return &ValidationError{
				Field:   f.name,
				Message: fmt.Sprintf("%s must be at most %d characters", f.name, f.max),
			}
		}
	}
	return nil
}

// checkCollection enforces the invariants a loaded collection must hold
// beyond field types: positive unique ids and non-negative likes.
func checkCollection(posts []Post) error {
	seen := make(map[int]struct{}, len(posts))
	for i, p := range posts {
		if p.ID <= 0 {
			return corruptf("post %d: id %d is not positive", i, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return corruptf("post %d: duplicate id %d", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Likes < 0 {
			return corruptf("post %d: negative likes", i)
		}
	}
	return nil
}
