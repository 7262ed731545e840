// Package testutil provides in-memory repositories that honour the same
// query semantics as the MongoDB implementations.
package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aryan0dhankhar/bloggingapi/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store holds users and blogs in memory. It implements both repository interfaces
// through Users() and Blogs().
type Store struct {
	mu       sync.Mutex
	users    map[bson.ObjectID]*domain.User
	blogs    map[bson.ObjectID]*domain.Blog
	lastTime time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[bson.ObjectID]*domain.User),
		blogs: make(map[bson.ObjectID]*domain.Blog),
	}
}

func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }
func (s *Store) Blogs() *BlogRepo { return &BlogRepo{s: s} }

// now returns strictly increasing timestamps so creation order is always observable
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastTime) {
		t = s.lastTime.Add(time.Millisecond)
	}
	s.lastTime = t
	return t
}

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return domain.ErrConflict
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id bson.ObjectID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email = domain.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepo) FindIDsByName(_ context.Context, fragment string) ([]bson.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	fragment = strings.ToLower(fragment)
	ids := []bson.ObjectID{}
	for id, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.FirstName), fragment) ||
			strings.Contains(strings.ToLower(u.LastName), fragment) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *UserRepo) GetAuthors(_ context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*domain.Author, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[bson.ObjectID]*domain.Author, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u.Author()
		}
	}
	return out, nil
}

// DeleteUser removes a user, leaving their blogs in place
func (s *Store) DeleteUser(id bson.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

type BlogRepo struct{ s *Store }

func cloneBlog(b *domain.Blog) *domain.Blog {
	cp := *b
	cp.Tags = slices.Clone(b.Tags)
	cp.Author = nil
	return &cp
}

func (r *BlogRepo) Create(_ context.Context, blog *domain.Blog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if blog.ID.IsZero() {
		blog.ID = bson.NewObjectID()
	}
	now := r.s.now()
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = now
	}
	blog.UpdatedAt = now
	if blog.Tags == nil {
		blog.Tags = []string{}
	}
	r.s.blogs[blog.ID] = cloneBlog(blog)
	return nil
}

func (r *BlogRepo) GetByID(_ context.Context, id bson.ObjectID) (*domain.Blog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.blogs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBlog(b), nil
}

func (r *BlogRepo) Update(_ context.Context, blog *domain.Blog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.blogs[blog.ID]
	if !ok {
		return domain.ErrNotFound
	}
	blog.UpdatedAt = r.s.now()
	cur.Title = blog.Title
	cur.Description = blog.Description
	cur.Body = blog.Body
	cur.Tags = slices.Clone(blog.Tags)
	if cur.Tags == nil {
		cur.Tags = []string{}
	}
	cur.State = blog.State
	cur.ReadingTime = blog.ReadingTime
	cur.UpdatedAt = blog.UpdatedAt
	return nil
}

func (r *BlogRepo) Delete(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.blogs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.blogs, id)
	return nil
}

func (r *BlogRepo) IncrementReadCount(_ context.Context, id bson.ObjectID) (*domain.Blog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.blogs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b.ReadCount++
	return cloneBlog(b), nil
}

func (r *BlogRepo) List(_ context.Context, q domain.BlogQuery) ([]*domain.Blog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := []*domain.Blog{}
	for _, b := range r.s.blogs {
		if matches(b, q) {
			matched = append(matched, cloneBlog(b))
		}
	}

	sortFields := q.Sort
	if len(sortFields) == 0 {
		sortFields = []domain.SortField{{Field: domain.FieldCreatedAt, Desc: true}}
	}
	slices.SortStableFunc(matched, func(a, b *domain.Blog) int {
		for _, f := range sortFields {
			c := compareField(a, b, f.Field)
			if f.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	total := int64(len(matched))
	start := min(q.Skip, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matched[start:end], total, nil
}

func matches(b *domain.Blog, q domain.BlogQuery) bool {
	if q.State != "" && b.State != q.State {
		return false
	}
	if q.Text != "" && !matchesText(b, q.Text) {
		return false
	}
	if len(q.Tags) > 0 && !slices.ContainsFunc(q.Tags, func(t string) bool { return slices.Contains(b.Tags, t) }) {
		return false
	}
	if q.FilterAuthors && !slices.Contains(q.AuthorIn, b.AuthorID) {
		return false
	}
	return true
}

// matchesText approximates a text index: any search term present as a word, ignoring case
func matchesText(b *domain.Blog, text string) bool {
	words := strings.Fields(strings.ToLower(b.Title + " " + b.Description + " " + b.Body))
	for _, term := range strings.Fields(strings.ToLower(text)) {
		if slices.Contains(words, term) {
			return true
		}
	}
	return false
}

func compareField(a, b *domain.Blog, field string) int {
	switch field {
	case domain.FieldReadCount:
		return cmpInt(a.ReadCount, b.ReadCount)
	case domain.FieldReadingTime:
		return cmpInt(int64(a.ReadingTime), int64(b.ReadingTime))
	case domain.FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
