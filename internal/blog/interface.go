package blog

import "context"

// Storage persists the whole post collection as one ordered list.
// Load returns ErrNotExist when nothing has been saved yet and an error
// wrapping ErrCorrupt when the stored data cannot be decoded.
type Storage interface {
	Load(ctx context.Context) ([]Post, error)
	Save(ctx context.Context, posts []Post) error
}
