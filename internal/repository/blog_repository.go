package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/bloggingapi/internal/domain"
	"github.com/aryan0dhankhar/bloggingapi/internal/infrastructure/mongodb"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoBlogRepository implements domain.BlogRepository using MongoDB
type MongoBlogRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
}

// NewMongoBlogRepository creates a new blog repository
func NewMongoBlogRepository(client *mongodb.Client, logger *slog.Logger) *MongoBlogRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &MongoBlogRepository{
		col:    client.Collection(mongodb.ColBlogs),
		logger: logger,
	}
}

// Create inserts a blog, assigning an id and timestamps when unset
func (r *MongoBlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	if blog.ID.IsZero() {
		blog.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = now
	}
	blog.UpdatedAt = now
	if blog.Tags == nil {
		blog.Tags = []string{}
	}

	if _, err := r.col.InsertOne(ctx, blog); err != nil {
		r.logger.Error("failed to create blog",
			slog.String("author", blog.AuthorID.Hex()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create blog: %w", wrapError(err))
	}
	return nil
}

// GetByID retrieves a blog by ID
func (r *MongoBlogRepository) GetByID(ctx context.Context, id bson.ObjectID) (*domain.Blog, error) {
	return findOne[domain.Blog](ctx, r.col, bson.D{{Key: "_id", Value: id}})
}

// Update writes the mutable fields of blog. Author and read_count are never touched here.
func (r *MongoBlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	blog.UpdatedAt = time.Now().UTC()
	if blog.Tags == nil {
		blog.Tags = []string{}
	}

	err := updateFields(ctx, r.col, blog.ID, bson.D{
		{Key: "title", Value: blog.Title},
		{Key: "description", Value: blog.Description},
		{Key: "body", Value: blog.Body},
		{Key: "tags", Value: blog.Tags},
		{Key: "state", Value: blog.State},
		{Key: "reading_time", Value: blog.ReadingTime},
		{Key: "updatedAt", Value: blog.UpdatedAt},
	})
	if err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}
	return nil
}

// Delete removes a blog by ID
func (r *MongoBlogRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	if err := deleteByID(ctx, r.col, id); err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	return nil
}

// IncrementReadCount applies $inc in a single round trip so concurrent readers never lose counts
func (r *MongoBlogRepository) IncrementReadCount(ctx context.Context, id bson.ObjectID) (*domain.Blog, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var blog domain.Blog
	if err := r.col.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, ReadCountIncrement(), opts).Decode(&blog); err != nil {
		return nil, fmt.Errorf("failed to increment read count: %w", wrapError(err))
	}
	return &blog, nil
}

// List returns one page of blogs matching q together with the total match count
func (r *MongoBlogRepository) List(ctx context.Context, q domain.BlogQuery) ([]*domain.Blog, int64, error) {
	filter := BuildBlogFilter(q)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count blogs: %w", err)
	}

	opts := options.Find().SetSort(BuildSort(q.Sort)).SetSkip(q.Skip)
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	blogs, err := findMany[domain.Blog](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list blogs: %w", err)
	}
	return blogs, total, nil
}
