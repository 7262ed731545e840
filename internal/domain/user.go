package domain

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is a registered author
type User struct {
	ID           bson.ObjectID `bson:"_id" json:"id"`
	FirstName    string        `bson:"first_name" json:"first_name"`
	LastName     string        `bson:"last_name" json:"last_name"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"password" json:"-"` // bcrypt, never returned
	Bio          string        `bson:"bio,omitempty" json:"bio,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// FullName returns "first last"
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Summary is the user subset returned by signup and login
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID.Hex(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// Author returns the display projection embedded into blogs
func (u *User) Author() *Author {
	return &Author{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// UserSummary is the public view of a user in auth responses
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Author is the expanded author reference on a blog
type Author struct {
	ID        bson.ObjectID `json:"_id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
}

// NormalizeEmail lowercases and trims an address; emails are unique case-insensitively
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id bson.ObjectID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// FindIDsByName returns ids of users whose first or last name contains fragment, case-insensitively.
	FindIDsByName(ctx context.Context, fragment string) ([]bson.ObjectID, error)
	// GetAuthors resolves display projections for the given ids; unknown ids are absent from the map.
	GetAuthors(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*Author, error)
}
