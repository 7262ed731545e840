package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// State is the visibility of a blog
type State string

const (
	StateDraft     State = "draft"
	StatePublished State = "published"
)

// Valid reports whether s is draft or published
func (s State) Valid() bool {
	return s == StateDraft || s == StatePublished
}

// CoerceState returns s when it is a known state and draft otherwise
func CoerceState(s string) State {
	if st := State(s); st.Valid() {
		return st
	}
	return StateDraft
}

// Blog is a post owned by exactly one author
type Blog struct {
	ID          bson.ObjectID `bson:"_id" json:"_id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Body        string        `bson:"body" json:"body"`
	Tags        []string      `bson:"tags" json:"tags"`
	AuthorID    bson.ObjectID `bson:"author" json:"-"`
	State       State         `bson:"state" json:"state"`
	ReadCount   int64         `bson:"read_count" json:"read_count"`
	ReadingTime int           `bson:"reading_time" json:"reading_time"` // minutes
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`

	// Author is set when the author reference has been expanded.
	Author *Author `bson:"-" json:"-"`
}

// IsOwnedBy reports whether u authored the blog. A nil user owns nothing.
func (b *Blog) IsOwnedBy(u *User) bool {
	return u != nil && b.AuthorID == u.ID
}

// MarshalJSON renders author as the expanded projection when present and as the raw id otherwise
func (b Blog) MarshalJSON() ([]byte, error) {
	type plain Blog
	var author any = b.AuthorID
	if b.Author != nil {
		author = b.Author
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return json.Marshal(struct {
		plain
		AuthorRef any `json:"author"`
	}{plain(b), author})
}

// TagList decodes tags given either as a JSON array or a comma-separated string
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*t = NormalizeTags(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("tags must be an array of strings or a comma-separated string")
	}
	*t = ParseTags(s)
	return nil
}

// ParseTags splits a comma-separated list, trimming entries and dropping empty ones
func ParseTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags trims entries and drops empty ones; the result is never nil
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Sortable blog fields, named as stored.
const (
	FieldReadCount   = "read_count"
	FieldReadingTime = "reading_time"
	FieldCreatedAt   = "createdAt"
)

// SortField orders a listing by one stored field
type SortField struct {
	Field string
	Desc  bool
}

// BlogQuery is a storage-neutral filter, sort and pagination triple
type BlogQuery struct {
	State State  // empty matches any state
	Text  string // full-text search over title, description and body
	Tags  []string

	// When FilterAuthors is set only blogs by AuthorIn match; an empty AuthorIn matches nothing.
	FilterAuthors bool
	AuthorIn      []bson.ObjectID

	Sort  []SortField
	Skip  int64
	Limit int64
}

// BlogRepository defines data access for blogs
type BlogRepository interface {
	Create(ctx context.Context, blog *Blog) error
	GetByID(ctx context.Context, id bson.ObjectID) (*Blog, error)
	// Update persists the mutable fields: title, description, body, tags, state and reading_time.
	Update(ctx context.Context, blog *Blog) error
	Delete(ctx context.Context, id bson.ObjectID) error
	// IncrementReadCount atomically adds one read and returns the updated blog.
	IncrementReadCount(ctx context.Context, id bson.ObjectID) (*Blog, error)
	List(ctx context.Context, q BlogQuery) ([]*Blog, int64, error)
}
