package blog

import (
	"bytes"
	"encoding/json"
	"strings"
)

var postFields = []string{"id", "author", "title", "content", "likes"}

// decodePosts parses a JSON array of post records, rejecting any record
// that is missing a field or carries a field of the wrong type.
func decodePosts(data []byte) ([]Post, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, corruptf("empty document")
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, corruptf("top level is not a list: %v", err)
	}
	// Unmarshal maps a bare null onto a nil slice without error.
	if records == nil {
		return nil, corruptf("top level is not a list")
	}

	posts := make([]Post, 0, len(records))
	for i, raw := range records {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, corruptf("post %d is not an object", i)
		}

		var p Post
		for _, name := range postFields {
			value, ok := fields[name]
			if !ok {
				return nil, corruptf("post %d: missing %q", i, name)
			}
			var err error
			switch name {
			case "id":
				p.ID, err = decodeInt(value)
			case "likes":
				p.Likes, err = decodeInt(value)
			case "author":
				p.Author, err = decodeString(value)
			case "title":
				p.Title, err = decodeString(value)
			case "content":
				p.Content, err = decodeString(value)
			}
			if err != nil {
				return nil, corruptf("post %d: field %q: %v", i, name, err)
			}
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func encodePosts(posts []Post) ([]byte, error) {
	if posts == nil {
		posts = []Post{}
	}
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decodeInt(raw json.RawMessage) (int, error) {
	// json.Number accepts "1.0" and "1e3"; only plain integer literals count.
	if s := strings.TrimSpace(string(raw)); s == "null" || strings.ContainsAny(s, ".eE\"") {
		return 0, errNotInteger
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, errNotInteger
	}
	return n, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", errNotString
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errNotString
	}
	return s, nil
}

type decodeError string

func (e decodeError) Error() string { return string(e) }

const (
	errNotInteger = decodeError("not an integer")
	errNotString  = decodeError("not a string")
)
