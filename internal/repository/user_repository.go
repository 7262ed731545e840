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

// MongoUserRepository implements domain.UserRepository using MongoDB
type MongoUserRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
}

// NewMongoUserRepository creates a new user repository
func NewMongoUserRepository(client *mongodb.Client, logger *slog.Logger) *MongoUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &MongoUserRepository{
		col:    client.Collection(mongodb.ColUsers),
		logger: logger,
	}
}

// Create inserts a new user; a taken email yields domain.ErrConflict
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		err = wrapError(err)
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *MongoUserRepository) GetByID(ctx context.Context, id bson.ObjectID) (*domain.User, error) {
	return findOne[domain.User](ctx, r.col, bson.D{{Key: "_id", Value: id}})
}

// GetByEmail retrieves a user by normalized email
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.col, bson.D{{Key: "email", Value: domain.NormalizeEmail(email)}})
}

// FindIDsByName matches fragment literally against first and last names, ignoring case
func (r *MongoUserRepository) FindIDsByName(ctx context.Context, fragment string) ([]bson.ObjectID, error) {
	filter := BuildAuthorNameFilter(fragment)

	type idOnly struct {
		ID bson.ObjectID `bson:"_id"`
	}
	rows, err := findMany[idOnly](ctx, r.col, filter, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to match authors: %w", err)
	}

	ids := make([]bson.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// GetAuthors loads display projections for ids, never reading password hashes
func (r *MongoUserRepository) GetAuthors(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*domain.Author, error) {
	authors := make(map[bson.ObjectID]*domain.Author, len(ids))
	if len(ids) == 0 {
		return authors, nil
	}

	projection := bson.D{
		{Key: "first_name", Value: 1},
		{Key: "last_name", Value: 1},
		{Key: "email", Value: 1},
	}
	users, err := findMany[domain.User](ctx, r.col,
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}},
		options.Find().SetProjection(projection),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}

	for _, u := range users {
		authors[u.ID] = u.Author()
	}
	return authors, nil
}
