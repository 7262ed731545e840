package repository

import (
	"regexp"
	"testing"

	"github.com/aryan0dhankhar/bloggingapi/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestBuildBlogFilterEmpty(t *testing.T) {
	assert.Equal(t, bson.D{}, BuildBlogFilter(domain.BlogQuery{}))
}

func TestBuildBlogFilterPublishedListing(t *testing.T) {
	author := bson.NewObjectID()
	got := BuildBlogFilter(domain.BlogQuery{
		State:         domain.StatePublished,
		Text:          "golang",
		Tags:          []string{"a", "b"},
		FilterAuthors: true,
		AuthorIn:      []bson.ObjectID{author},
	})

	want := bson.D{
		{Key: "state", Value: domain.StatePublished},
		{Key: "$text", Value: bson.D{{Key: "$search", Value: "golang"}}},
		{Key: "tags", Value: bson.D{{Key: "$in", Value: []string{"a", "b"}}}},
		{Key: "author", Value: bson.D{{Key: "$in", Value: []bson.ObjectID{author}}}},
	}
	assert.Equal(t, want, got)
}

func TestBuildBlogFilterNoMatchingAuthors(t *testing.T) {
	got := BuildBlogFilter(domain.BlogQuery{FilterAuthors: true})

	want := bson.D{{Key: "author", Value: bson.D{{Key: "$in", Value: []bson.ObjectID{}}}}}
	assert.Equal(t, want, got)
}

func TestBuildAuthorNameFilter(t *testing.T) {
	got := BuildAuthorNameFilter("o.b")

	re := bson.Regex{Pattern: `o\.b`, Options: "i"}
	want := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "first_name", Value: re}},
		bson.D{{Key: "last_name", Value: re}},
	}}}
	assert.Equal(t, want, got)
}

func TestAuthorNamePatternIsLiteralAndCaseInsensitive(t *testing.T) {
	tests := []struct {
		fragment string
		name     string
		match    bool
	}{
		{"jan", "Jane", true},
		{"DOE", "doe", true},
		{"an", "Joanna", true},
		{"o.b", "Bob", false},
		{"o.b", "Jo.Bo", true},
		{"(", "O(Brien", true},
		{"[a-z]+", "smith", false},
		{"x", "Jane", false},
	}
	for _, tt := range tests {
		or := BuildAuthorNameFilter(tt.fragment)[0].Value.(bson.A)
		re := or[0].(bson.D)[0].Value.(bson.Regex)
		compiled := regexp.MustCompile("(?" + re.Options + ")" + re.Pattern)
		assert.Equal(t, tt.match, compiled.MatchString(tt.name), "fragment %q name %q", tt.fragment, tt.name)
	}
}

func TestReadCountIncrement(t *testing.T) {
	want := bson.D{{Key: "$inc", Value: bson.D{{Key: "read_count", Value: 1}}}}
	assert.Equal(t, want, ReadCountIncrement())
}

func TestBuildSort(t *testing.T) {
	tests := []struct {
		name   string
		fields []domain.SortField
		want   bson.D
	}{
		{
			name: "default newest first",
			want: bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			name: "mixed directions keep order",
			fields: []domain.SortField{
				{Field: domain.FieldReadCount, Desc: true},
				{Field: domain.FieldReadingTime},
			},
			want: bson.D{{Key: "read_count", Value: -1}, {Key: "reading_time", Value: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSort(tt.fields))
		})
	}
}
