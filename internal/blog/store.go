package blog

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"

	"github.com/rs/zerolog"
)

// Store is the post repository every handler goes through. Each call
// reloads the full collection from Storage and every mutation rewrites it.
//
// Without WithWriteLock, concurrent mutations race: two callers may load
// the same snapshot and the later Save wins, discarding the earlier change.
type Store struct {
	storage Storage
	log     zerolog.Logger

	// mu is nil unless WithWriteLock was given.
	mu *sync.Mutex
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

// WithWriteLock serialises load-modify-save so that no mutation is lost.
func WithWriteLock() Option {
	return func(s *Store) {
		s.mu = &sync.Mutex{}
	}
}

func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{storage: storage, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted posts, or the two default posts when storage is
// missing, unreadable or fails validation. It never fails and never writes.
func (s *Store) Load(ctx context.Context) []Post {
	posts, err := s.storage.Load(ctx)
	if err == nil {
		err = checkCollection(posts)
	}
	if err != nil {
		ev := s.log.Warn()
		if errors.Is(err, ErrNotExist) {
			ev = s.log.Info()
		}
		ev.Err(err).Msg("using default posts")
		return defaultPosts()
	}
	return posts
}

// Save overwrites the stored collection. Failures come back wrapping ErrPersist.
func (s *Store) Save(ctx context.Context, posts []Post) error {
	if err := s.storage.Save(ctx, posts); err != nil {
		s.log.Error().Err(err).Int("posts", len(posts)).Msg("save failed")
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) []Post {
	return s.Load(ctx)
}

func (s *Store) Get(ctx context.Context, id int) (Post, bool) {
	posts := s.Load(ctx)
	if i := indexOf(posts, id); i >= 0 {
		return posts[i], true
	}
	return Post{}, false
}

func (s *Store) Create(ctx context.Context, author, title, content string) (Post, error) {
	if err := Validate(author, title, content); err != nil {
		return Post{}, err
	}

	var created Post
	err := s.mutate(ctx, func(posts []Post) ([]Post, error) {
		created = Post{
			ID:      nextID(posts),
			Author:  html.EscapeString(author),
			Title:   html.EscapeString(title),
			Content: html.EscapeString(content),
			Likes:   0,
		}
		return append(posts, created), nil
	})
	if err != nil {
		return Post{}, err
	}
	s.log.Info().Int("id", created.ID).Msg("post created")
	return created, nil
}

func (s *Store) Update(ctx context.Context, id int, author, title, content string) (Post, error) {
	if err := Validate(author, title, content); err != nil {
		return Post{}, err
	}

	var updated Post
	err := s.mutate(ctx, func(posts []Post) ([]Post, error) {
		i := indexOf(posts, id)
		if i == -1 {
			return nil, ErrNotFound
		}
		posts[i].Author = html.EscapeString(author)
		posts[i].Title = html.EscapeString(title)
		posts[i].Content = html.EscapeString(content)
		updated = posts[i]
		return posts, nil
	})
	if err != nil {
		return Post{}, err
	}
	s.log.Info().Int("id", id).Msg("post updated")
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id int) error {
	err := s.mutate(ctx, func(posts []Post) ([]Post, error) {
		i := indexOf(posts, id)
		if i == -1 {
			return nil, ErrNotFound
		}
		return append(posts[:i], posts[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Int("id", id).Msg("post deleted")
	return nil
}

func (s *Store) Like(ctx context.Context, id int) (Post, error) {
	var liked Post
	err := s.mutate(ctx, func(posts []Post) ([]Post, error) {
		i := indexOf(posts, id)
		if i == -1 {
			return nil, ErrNotFound
		}
		posts[i].Likes++
		liked = posts[i]
		return posts, nil
	})
	if err != nil {
		return Post{}, err
	}
	return liked, nil
}

// mutate runs one load-modify-save cycle. When apply returns an error the
// collection is not saved.
func (s *Store) mutate(ctx context.Context, apply func([]Post) ([]Post, error)) error {
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	posts, err := apply(s.Load(ctx))
	if err != nil {
		return err
	}
	return s.Save(ctx, posts)
}
