package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aryan0dhankhar/bloggingapi/internal/security/auth"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/ratelimit"
	"github.com/aryan0dhankhar/bloggingapi/internal/service"
	"github.com/aryan0dhankhar/bloggingapi/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

type apiServer struct {
	t       *testing.T
	handler http.Handler
	tokens  *auth.TokenManager
}

func newAPIServer(t *testing.T, limiter ratelimit.RateLimiter, checks map[string]Pinger) *apiServer {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	store := testutil.NewStore()
	tm := auth.NewTokenManager("test-secret", "", time.Hour)

	authSvc := service.NewAuthService(store.Users(), tm, bcrypt.MinCost, log)
	blogSvc := service.NewBlogService(store.Blogs(), store.Users(), nil, nil, service.BlogOptions{DefaultLimit: 20, MaxLimit: 100}, log)

	return &apiServer{
		t:      t,
		tokens: tm,
		handler: NewRouter(Deps{
			Auth:        authSvc,
			Blogs:       blogSvc,
			AuthLimiter: limiter,
			Checks:      checks,
			Logger:      log,
		}),
	}
}

func (s *apiServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID        string `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"user"`
}

type blogBody struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Body        string          `json:"body"`
	Tags        []string        `json:"tags"`
	State       string          `json:"state"`
	ReadCount   int64           `json:"read_count"`
	ReadingTime int             `json:"reading_time"`
	Author      json.RawMessage `json:"author"`
}

type pageBody struct {
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Total int64      `json:"total"`
	Data  []blogBody `json:"data"`
}

func (s *apiServer) signup(first, last, email string) authBody {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"first_name": first, "last_name": last, "email": email, "password": "pw-" + first,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](s.t, rec)
}

func (s *apiServer) createBlog(token string, body map[string]any) blogBody {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/blogs", token, body)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[blogBody](s.t, rec)
}

func (s *apiServer) publish(token, id string) {
	s.t.Helper()
	rec := s.do(http.MethodPatch, "/api/blogs/"+id+"/publish", token, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, rec).Error
}

func TestEndToEndScenario(t *testing.T) {
	s := newAPIServer(t, nil, nil)
	jane := s.signup("Jane", "Doe", "jane@example.com")

	created := s.createBlog(jane.Token, map[string]any{"title": "T", "body": "short text"})
	assert.Equal(t, "draft", created.State)
	assert.Equal(t, 1, created.ReadingTime)
	assert.Equal(t, int64(0), created.ReadCount)
	assert.Equal(t, `"`+jane.User.ID+`"`, string(created.Author))

	s.publish(jane.Token, created.ID)

	for want := int64(1); want <= 2; want++ {
		rec := s.do(http.MethodGet, "/api/blogs/"+created.ID, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[blogBody](t, rec)
		assert.Equal(t, want, got.ReadCount)

		var author map[string]any
		require.NoError(t, json.Unmarshal(got.Author, &author))
		assert.Equal(t, "Jane", author["first_name"])
		assert.Equal(t, jane.User.ID, author["_id"])
		assert.NotContains(t, author, "password")
	}

	rec := s.do(http.MethodPatch, "/api/blogs/"+created.ID, jane.Token, map[string]any{"title": "T2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "T2", decode[blogBody](t, rec).Title)

	rec = s.do(http.MethodDelete, "/api/blogs/"+created.ID, jane.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/blogs/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Blog not found", errorMessage(t, rec))
}

func TestSignupTwiceConflicts(t *testing.T) {
	s := newAPIServer(t, nil, nil)
	first := s.signup("Jane", "Doe", "jane@example.com")

	uid, err := s.tokens.ValidateToken(first.Token)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, uid)

	rec := s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"first_name": "J", "last_name": "D", "email": "JANE@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already in use", errorMessage(t, rec))

	rec = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", errorMessage(t, rec))
}

func TestSignupPasswordTooLong(t *testing.T) {
	s := newAPIServer(t, nil, nil)

	rec := s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"first_name": "Jane", "last_name": "Doe", "email": "jane@example.com",
		"password": strings.Repeat("p", 80),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password too long", errorMessage(t, rec))

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": strings.Repeat("p", 80),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newAPIServer(t, nil, nil)
	jane := s.signup("Jane", "Doe", "jane@example.com")

	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@example.com", "password": "pw-Jane"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[authBody](t, rec)
	uid, err := s.tokens.ValidateToken(body.Token)
	require.NoError(t, err)
	assert.Equal(t, jane.User.ID, uid)
	assert.Equal(t, "jane@example.com", body.User.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	wrong := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@example.com", "password": "nope"})
	unknown := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "pw-Jane"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing credentials", errorMessage(t, rec))
}

func TestCreateBlogValidation(t *testing.T) {
	s := newAPIServer(t, nil, nil)
	jane := s.signup("Jane", "Doe", "jane@example.com")

	rec := s.do(http.MethodPost, "/api/blogs", "", map[string]any{"title": "T", "body": "b"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", errorMessage(t, rec))

	rec = s.do(http.MethodPost, "/api/blogs", jane.Token, map[string]any{"body": "b"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title and body required", errorMessage(t, rec))

	rec = s.do(http.MethodPost, "/api/blogs", jane.Token, map[string]any{"title": "T"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	created := s.createBlog(jane.Token, map[string]any{"title": "T", "body": strings.Repeat("w ", 201), "tags": "go, web,,"})
	assert.Equal(t, []string{"go", "web"}, created.Tags)
	assert.Equal(t, 2, created.ReadingTime)

	req := httptest.NewRequest(http.MethodPost, "/api/blogs", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+jane.Token)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", errorMessage(t, rec))
}

func TestDraftVisibility(t *testing.T) {
	s := newAPIServer(t, nil, nil)
	jane := s.signup("Jane", "Doe", "jane@example.com")
	john := s.signup("John", "Smith", "john@example.com")
	draft := s.createBlog(jane.Token, map[string]any{"title": "Draft", "body": "wip"})

	rec := s.do(http.MethodGet, "/api/blogs/"+draft.ID, john.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not allowed to view this blog", errorMessage(t, rec))

	rec = s.do(http.MethodGet, "/api/blogs/"+draft.ID, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/blogs/"+draft.ID, "not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "an invalid token is treated as anonymous")

	for i := 0; i < 2; i++ {
		rec = s.do(http.MethodGet, "/api/blogs/"+draft.ID, jane.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, decode[blogBody](t, rec).ReadCount)
	}

	rec = s.do(http.MethodGet, "/api/blogs/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid ID", errorMessage(t, rec))

	rec = s.do(http.MethodGet, "/api/blogs/"+bson.NewObjectID().Hex(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnerOnlyMutations(t *testing.T) {
	s := newAPIServer(t, nil, nil)
	jane := s.signup("Jane", "Doe", "jane@example.com")
	john := s.signup("John", "Smith", "john@example.com")
	b := s.createBlog(jane.Token, map[string]any{"title": "Mine", "body": "text", "tags": []string{"a"}})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPatch, "/api/blogs/" + b.ID},
		{http.MethodDelete, "/api/blogs/" + b.ID},
		{http.MethodPatch, "/api/blogs/" + b.ID + "/publish"},
	} {
		var body any
		if tc.path == "/api/blogs/"+b.ID && tc.method == http.MethodPatch {
			body = map[string]any{"title": "Hijack"}
		}
		rec := s.do(tc.method, tc.path, john.Token, body)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "Not owner", errorMessage(t, rec))

		rec = s.do(tc.method, tc.path, "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s anonymous", tc.method, tc.path)
	}

	rec := s.do(http.MethodPatch, "/api/blogs/"+b.ID, jane.Token, map[string]any{
		"body": strings.Repeat("w ", 450), "state": "bogus", "tags": []string{"x", "y"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[blogBody](t, rec)
	assert.Equal(t, "Mine", updated.Title)
	assert.Equal(t, 3, updated.ReadingTime)
	assert.Equal(t, "draft", updated.State)
	assert.Equal(t, []string{"x", "y"}, updated.Tags)

	rec = s.do(http.MethodPatch, "/api/blogs/"+b.ID+"/publish", jane.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	published := decode[blogBody](t, rec)
	assert.Equal(t, "published", published.State)
	assert.Equal(t, updated.Title, published.Title)
	assert.Equal(t, updated.Body, published.Body)
	assert.Equal(t, updated.ReadingTime, published.ReadingTime)
	assert.Equal(t, updated.ReadCount, published.ReadCount)

	rec = s.do(http.MethodGet, "/api/blogs/"+b.ID, john.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[blogBody](t, rec).ReadCount)

	rec = s.do(http.MethodPatch, "/api/blogs/bad-id", jane.Token, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodDelete, "/api/blogs/"+bson.NewObjectID().Hex(), jane.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPublishedFiltersAndSort(t *testing.T) {
	s := newAPIServer(t, nil, nil)
	jane := s.signup("Jane", "Doe", "jane@example.com")
	john := s.signup("John", "Smith", "john@example.com")

	ids := map[string]string{}
	for _, tc := range []struct {
		token, title string
		tags         []string
		reads        int
	}{
		{jane.Token, "A", []string{"a"}, 1},
		{jane.Token, "B", []string{"b", "z"}, 3},
		{jane.Token, "C", []string{"c"}, 0},
		{john.Token, "D", []string{"a", "c"}, 2},
	} {
		b := s.createBlog(tc.token, map[string]any{"title": tc.title, "body": "body " + tc.title, "tags": tc.tags})
		s.publish(tc.token, b.ID)
		for i := 0; i < tc.reads; i++ {
			require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/blogs/"+b.ID, "", nil).Code)
		}
		ids[tc.title] = b.ID
	}
	s.createBlog(jane.Token, map[string]any{"title": "Hidden", "body": "draft", "tags": []string{"a"}})

	rec := s.do(http.MethodGet, "/api/blogs?tags=a,b", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageBody](t, rec)
	assert.Equal(t, int64(3), page.Total)
	for _, b := range page.Data {
		assert.Equal(t, "published", b.State)
		assert.NotEqual(t, "C", b.Title)
	}

	rec = s.do(http.MethodGet, "/api/blogs?sort=-read_count", "", nil)
	page = decode[pageBody](t, rec)
	require.Len(t, page.Data, 4)
	var titles []string
	for _, b := range page.Data {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"B", "D", "A", "C"}, titles)

	rec = s.do(http.MethodGet, "/api/blogs?author=smith", "", nil)
	page = decode[pageBody](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, ids["D"], page.Data[0].ID)
	assert.Contains(t, string(page.Data[0].Author), `"first_name":"John"`)

	rec = s.do(http.MethodGet, "/api/blogs?author=zzz", "", nil)
	page = decode[pageBody](t, rec)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Data)

	rec = s.do(http.MethodGet, "/api/blogs?page=2&limit=3", "", nil)
	page = decode[pageBody](t, rec)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Limit)
	assert.Equal(t, int64(4), page.Total)
	assert.Len(t, page.Data, 1)
}

func TestListOwnBlogs(t *testing.T) {
	s := newAPIServer(t, nil, nil)
	jane := s.signup("Jane", "Doe", "jane@example.com")
	john := s.signup("John", "Smith", "john@example.com")

	first := s.createBlog(jane.Token, map[string]any{"title": "First", "body": "x"})
	second := s.createBlog(jane.Token, map[string]any{"title": "Second", "body": "y"})
	s.createBlog(john.Token, map[string]any{"title": "Other", "body": "z"})
	s.publish(jane.Token, first.ID)

	rec := s.do(http.MethodGet, "/api/blogs/user/me/blogs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/blogs/user/me/blogs", jane.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageBody](t, rec)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, second.ID, page.Data[0].ID)
	assert.Equal(t, first.ID, page.Data[1].ID)

	rec = s.do(http.MethodGet, "/api/blogs/user/me/blogs?state=draft", jane.Token, nil)
	page = decode[pageBody](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, second.ID, page.Data[0].ID)
}

func TestAuthRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(2, time.Minute)
	defer limiter.Stop()
	s := newAPIServer(t, limiter, nil)

	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = s.do(http.MethodGet, "/api/blogs", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "blog routes are not rate limited")
}

func TestAuthRateLimitIgnoresForwardedFor(t *testing.T) {
	limiter := ratelimit.NewLimiter(2, time.Minute)
	defer limiter.Stop()
	s := newAPIServer(t, limiter, nil)

	var codes []int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.c","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{401, 401, 429, 429, 429, 429}, codes)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthEndpoints(t *testing.T) {
	healthy := newAPIServer(t, nil, map[string]Pinger{
		"mongodb": pingFunc(func(context.Context) error { return nil }),
	})

	rec := healthy.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = healthy.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = healthy.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newAPIServer(t, nil, map[string]Pinger{
		"mongodb": pingFunc(func(context.Context) error { return errors.New("no reachable servers") }),
	})
	rec = down.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", decode[ReadinessResponse](t, rec).Status)

	rec = healthy.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
