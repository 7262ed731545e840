package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/bloggingapi/internal/domain"
	"github.com/aryan0dhankhar/bloggingapi/internal/observability/metrics"
	"github.com/aryan0dhankhar/bloggingapi/internal/readingtime"
	"github.com/aryan0dhankhar/bloggingapi/internal/security"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/audit"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// BlogService orchestrates blog reads and mutations
type BlogService struct {
	blogs          domain.BlogRepository
	users          domain.UserRepository
	authz          *security.AuthorizationService
	audit          *audit.Logger
	defLimit       int
	maxLimit       int
	skipOwnerReads bool
	logger         *slog.Logger
}

// BlogOptions are the startup settings of a BlogService
type BlogOptions struct {
	DefaultLimit int
	MaxLimit     int
	// SkipOwnerReads stops authors from inflating read_count on their own posts.
	// Off by default, in which case every read of a published post counts.
	SkipOwnerReads bool
}

// NewBlogService creates a new blog service
func NewBlogService(
	blogs domain.BlogRepository,
	users domain.UserRepository,
	authz *security.AuthorizationService,
	auditLog *audit.Logger,
	opts BlogOptions,
	logger *slog.Logger,
) *BlogService {
	if logger == nil {
		logger = slog.Default()
	}
	if authz == nil {
		authz = security.NewAuthorizationService(logger)
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	defaultLimit, maxLimit := opts.DefaultLimit, opts.MaxLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}

	return &BlogService{
		blogs:          blogs,
		users:          users,
		authz:          authz,
		audit:          auditLog,
		defLimit:       defaultLimit,
		maxLimit:       maxLimit,
		skipOwnerReads: opts.SkipOwnerReads,
		logger:         logger,
	}
}

// Page is one page of a listing
type Page struct {
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
	Data  []*domain.Blog `json:"data"`
}

// CreateBlogInput is the payload for a new blog
type CreateBlogInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Body        string         `json:"body"`
	Tags        domain.TagList `json:"tags"`
}

// UpdateBlogInput carries only the fields present in the request
type UpdateBlogInput struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Body        *string         `json:"body"`
	Tags        *domain.TagList `json:"tags"`
	State       *string         `json:"state"`
}

// ListPublished returns published blogs filtered by text, tags and author name
func (s *BlogService) ListPublished(ctx context.Context, p ListParams) (*Page, error) {
	pg := ParsePagination(p.Page, p.Limit, s.defLimit, s.maxLimit)
	q := domain.BlogQuery{
		State: domain.StatePublished,
		Text:  strings.TrimSpace(p.Q),
		Tags:  domain.ParseTags(p.Tags),
		Sort:  ParseSort(p.Sort),
		Skip:  pg.Skip(),
		Limit: int64(pg.Limit),
	}

	if name := strings.TrimSpace(p.Author); name != "" {
		ids, err := s.users.FindIDsByName(ctx, name)
		if err != nil {
			return nil, err
		}
		q.FilterAuthors = true
		q.AuthorIn = ids
	}

	blogs, total, err := s.blogs.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.populateAuthors(ctx, blogs...); err != nil {
		return nil, err
	}
	return &Page{Page: pg.Page, Limit: pg.Limit, Total: total, Data: blogs}, nil
}

// GetPublished returns a blog visible to viewer (nil when anonymous). Reading a
// published blog increments its read_count.
func (s *BlogService) GetPublished(ctx context.Context, viewer *domain.User, id string) (*domain.Blog, error) {
	blog, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateBlogAccess(viewer, blog, security.ActionRead); err != nil {
		return nil, err
	}

	if blog.State == domain.StatePublished && !(s.skipOwnerReads && blog.IsOwnedBy(viewer)) {
		blog, err = s.blogs.IncrementReadCount(ctx, blog.ID)
		if err != nil {
			return nil, notFoundAs(err, "Blog not found")
		}
		metrics.ObserveRead()
	}

	if err := s.populateAuthors(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

// Create stores a new draft owned by viewer
func (s *BlogService) Create(ctx context.Context, viewer *domain.User, in CreateBlogInput) (*domain.Blog, error) {
	if viewer == nil {
		return nil, domain.Unauthenticated("Authentication required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Body) == "" {
		metrics.ObserveBlogOperation(audit.ActionCreate, "invalid")
		return nil, domain.Validation("Title and body required")
	}

	blog := &domain.Blog{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Body:        in.Body,
		Tags:        domain.NormalizeTags(in.Tags),
		AuthorID:    viewer.ID,
		State:       domain.StateDraft,
		ReadingTime: readingtime.Estimate(in.Body),
	}
	if err := s.blogs.Create(ctx, blog); err != nil {
		metrics.ObserveBlogOperation(audit.ActionCreate, "error")
		return nil, err
	}

	metrics.ObserveBlogOperation(audit.ActionCreate, "success")
	s.audit.LogBlog(ctx, viewer.ID.Hex(), audit.ActionCreate, blog.ID.Hex(), "success")
	return blog, nil
}

// Update applies the present fields of in to a blog owned by viewer
func (s *BlogService) Update(ctx context.Context, viewer *domain.User, id string, in UpdateBlogInput) (*domain.Blog, error) {
	blog, err := s.loadOwned(ctx, viewer, id, security.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		blog.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		blog.Description = strings.TrimSpace(*in.Description)
	}
	if in.Body != nil {
		blog.Body = *in.Body
	}
	if blog.Title == "" || strings.TrimSpace(blog.Body) == "" {
		metrics.ObserveBlogOperation(audit.ActionUpdate, "invalid")
		return nil, domain.Validation("Title and body required")
	}
	if in.Body != nil {
		blog.ReadingTime = readingtime.Estimate(blog.Body)
	}
	if in.Tags != nil {
		blog.Tags = domain.NormalizeTags(*in.Tags)
	}
	if in.State != nil {
		blog.State = domain.CoerceState(*in.State)
	}
	if !blog.State.Valid() {
		blog.State = domain.StateDraft
	}

	if err := s.blogs.Update(ctx, blog); err != nil {
		metrics.ObserveBlogOperation(audit.ActionUpdate, "error")
		return nil, notFoundAs(err, "Blog not found")
	}

	metrics.ObserveBlogOperation(audit.ActionUpdate, "success")
	s.audit.LogBlog(ctx, viewer.ID.Hex(), audit.ActionUpdate, blog.ID.Hex(), "success")
	return blog, nil
}

// Delete removes a blog owned by viewer
func (s *BlogService) Delete(ctx context.Context, viewer *domain.User, id string) error {
	blog, err := s.loadOwned(ctx, viewer, id, security.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.blogs.Delete(ctx, blog.ID); err != nil {
		metrics.ObserveBlogOperation(audit.ActionDelete, "error")
		return notFoundAs(err, "Blog not found")
	}

	metrics.ObserveBlogOperation(audit.ActionDelete, "success")
	s.audit.LogBlog(ctx, viewer.ID.Hex(), audit.ActionDelete, blog.ID.Hex(), "success")
	return nil
}

// Publish moves a blog owned by viewer to the published state
func (s *BlogService) Publish(ctx context.Context, viewer *domain.User, id string) (*domain.Blog, error) {
	blog, err := s.loadOwned(ctx, viewer, id, security.ActionPublish)
	if err != nil {
		return nil, err
	}

	blog.State = domain.StatePublished
	if err := s.blogs.Update(ctx, blog); err != nil {
		metrics.ObserveBlogOperation(audit.ActionPublish, "error")
		return nil, notFoundAs(err, "Blog not found")
	}

	metrics.ObserveBlogOperation(audit.ActionPublish, "success")
	s.audit.LogBlog(ctx, viewer.ID.Hex(), audit.ActionPublish, blog.ID.Hex(), "success")
	return blog, nil
}

// ListUserBlogs pages through viewer's own blogs, newest first, optionally by state.
// A state other than draft or published matches nothing.
func (s *BlogService) ListUserBlogs(ctx context.Context, viewer *domain.User, page, limit, state string) (*Page, error) {
	if viewer == nil {
		return nil, domain.Unauthenticated("Authentication required")
	}
	pg := ParsePagination(page, limit, s.defLimit, s.maxLimit)
	q := domain.BlogQuery{
		State:         domain.State(strings.TrimSpace(state)),
		FilterAuthors: true,
		AuthorIn:      []bson.ObjectID{viewer.ID},
		Sort:          []domain.SortField{{Field: domain.FieldCreatedAt, Desc: true}},
		Skip:          pg.Skip(),
		Limit:         int64(pg.Limit),
	}

	blogs, total, err := s.blogs.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Page{Page: pg.Page, Limit: pg.Limit, Total: total, Data: blogs}, nil
}

func (s *BlogService) load(ctx context.Context, id string) (*domain.Blog, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.Validation("Invalid ID")
	}
	blog, err := s.blogs.GetByID(ctx, oid)
	if err != nil {
		return nil, notFoundAs(err, "Blog not found")
	}
	return blog, nil
}

func (s *BlogService) loadOwned(ctx context.Context, viewer *domain.User, id string, action security.Action) (*domain.Blog, error) {
	if viewer == nil {
		return nil, domain.Unauthenticated("Authentication required")
	}
	blog, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateBlogAccess(viewer, blog, action); err != nil {
		metrics.ObserveBlogOperation(string(action), "denied")
		s.audit.LogDenied(ctx, viewer.ID.Hex(), string(action), blog.ID.Hex(), err.Error())
		return nil, err
	}
	return blog, nil
}

// populateAuthors expands author references; authors that no longer exist stay as ids
func (s *BlogService) populateAuthors(ctx context.Context, blogs ...*domain.Blog) error {
	seen := make(map[bson.ObjectID]struct{}, len(blogs))
	ids := make([]bson.ObjectID, 0, len(blogs))
	for _, b := range blogs {
		if _, ok := seen[b.AuthorID]; !ok {
			seen[b.AuthorID] = struct{}{}
			ids = append(ids, b.AuthorID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	authors, err := s.users.GetAuthors(ctx, ids)
	if err != nil {
		return err
	}
	for _, b := range blogs {
		b.Author = authors[b.AuthorID]
	}
	return nil
}

func notFoundAs(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(msg)
	}
	return err
}
