package repository

import (
	"regexp"

	"github.com/aryan0dhankhar/bloggingapi/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// BuildBlogFilter renders a BlogQuery as a MongoDB filter document
func BuildBlogFilter(q domain.BlogQuery) bson.D {
	filter := bson.D{}
	if q.State != "" {
		filter = append(filter, bson.E{Key: "state", Value: q.State})
	}
	if q.Text != "" {
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: q.Text}}})
	}
	if len(q.Tags) > 0 {
		filter = append(filter, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: q.Tags}}})
	}
	if q.FilterAuthors {
		// $in with an empty array matches nothing, which is the intended result
		in := q.AuthorIn
		if in == nil {
			in = []bson.ObjectID{}
		}
		filter = append(filter, bson.E{Key: "author", Value: bson.D{{Key: "$in", Value: in}}})
	}
	return filter
}

// BuildAuthorNameFilter matches users whose first or last name contains fragment
// literally, ignoring case
func BuildAuthorNameFilter(fragment string) bson.D {
	re := bson.Regex{Pattern: regexp.QuoteMeta(fragment), Options: "i"}
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "first_name", Value: re}},
		bson.D{{Key: "last_name", Value: re}},
	}}}
}

// ReadCountIncrement is the update applied when a published blog is read
func ReadCountIncrement() bson.D {
	return bson.D{{Key: "$inc", Value: bson.D{{Key: "read_count", Value: 1}}}}
}

// BuildSort renders sort fields in order; with none it sorts newest first
func BuildSort(fields []domain.SortField) bson.D {
	if len(fields) == 0 {
		return bson.D{{Key: domain.FieldCreatedAt, Value: -1}}
	}
	sort := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return sort
}
