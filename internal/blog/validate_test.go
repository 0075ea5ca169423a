package blog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		author  string
		title   string
		content string
		field   string
	}{
		{"minimal", "a", "t", "c", ""},
		{"author at cap", strings.Repeat("a", 100), "t", "c", ""},
		{"author over cap", strings.Repeat("a", 101), "t", "c", "author"},
		{"title at cap", "a", strings.Repeat("t", 200), "c", ""},
		{"title over cap", "a", strings.Repeat("t", 201), "c", "title"},
		{"content at cap", "a", "t", strings.Repeat("c", 10000), ""},
		{"content over cap", "a", "t", strings.Repeat("c", 10001), "content"},
		{"empty author", "", "t", "c", "author"},
		{"empty title", "a", "", "c", "title"},
		{"empty title with long author", strings.Repeat("a", 500), "", "c", "title"},
		{"empty content", "a", "t", "", "content"},
		{"whitespace title passes", "a", "   ", "c", ""},
		{"multibyte counted as characters", strings.Repeat("ж", 100), "t", "c", ""},
		{"invalid utf-8 author", "a\xff", "t", "c", "author"},
		{"invalid utf-8 content", "a", "t", "c\xc3", "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.author, tt.title, tt.content)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			if assert.ErrorAs(t, err, &verr) {
				assert.Equal(t, tt.field, verr.Field)
				assert.NotEmpty(t, verr.Error())
			}
		})
	}
}
