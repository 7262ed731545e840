package security

import (
	"log/slog"

	"github.com/aryan0dhankhar/bloggingapi/internal/domain"
)

// Action is an operation a viewer attempts on a blog
type Action string

const (
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
)

// AuthorizationService handles blog ownership checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// CanAccess reports whether viewer may perform action on blog. Anyone may read a
// published blog; drafts and every mutation are reserved for the author.
func (as *AuthorizationService) CanAccess(viewer *domain.User, blog *domain.Blog, action Action) bool {
	if blog.IsOwnedBy(viewer) {
		return true
	}
	return action == ActionRead && blog.State == domain.StatePublished
}

// ValidateBlogAccess returns a forbidden error when viewer may not perform action on blog
func (as *AuthorizationService) ValidateBlogAccess(viewer *domain.User, blog *domain.Blog, action Action) error {
	if as.CanAccess(viewer, blog, action) {
		return nil
	}

	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID.Hex()
	}
	as.logger.Warn("blog access denied",
		slog.String("action", string(action)),
		slog.String("blog_id", blog.ID.Hex()),
		slog.String("viewer_id", viewerID),
	)

	if action == ActionRead {
		return domain.Forbidden("Not allowed to view this blog")
	}
	return domain.Forbidden("Not owner")
}
