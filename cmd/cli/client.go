package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// apiClient talks to the blogging API on behalf of the CLI
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// apiError is a non-2xx reply from the API
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// do sends payload (if any) as JSON and decodes a 2xx reply into out (if any)
func (c *apiClient) do(method, path string, query url.Values, payload, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type userSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type authResult struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

// blog mirrors the API's blog document. Author is either an id string or an
// expanded author object depending on the endpoint.
type blog struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Body        string          `json:"body"`
	Tags        []string        `json:"tags"`
	Author      json.RawMessage `json:"author"`
	State       string          `json:"state"`
	ReadCount   int64           `json:"read_count"`
	ReadingTime int             `json:"reading_time"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// AuthorName renders the author reference for display
func (b *blog) AuthorName() string {
	var a struct {
		ID        string `json:"_id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.Unmarshal(b.Author, &a); err == nil && a.FirstName != "" {
		return strings.TrimSpace(a.FirstName + " " + a.LastName)
	}
	var id string
	if err := json.Unmarshal(b.Author, &id); err == nil {
		return id
	}
	return a.ID
}

type blogPage struct {
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
	Total int64   `json:"total"`
	Data  []*blog `json:"data"`
}

func (c *apiClient) Signup(firstName, lastName, email, password, bio string) (*authResult, error) {
	payload := map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
		"password":   password,
	}
	if bio != "" {
		payload["bio"] = bio
	}
	var res authResult
	if err := c.do(http.MethodPost, "/api/auth/signup", nil, payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *apiClient) Login(email, password string) (*authResult, error) {
	var res authResult
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(http.MethodPost, "/api/auth/login", nil, payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *apiClient) ListBlogs(query url.Values) (*blogPage, error) {
	var page blogPage
	if err := c.do(http.MethodGet, "/api/blogs", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *apiClient) MyBlogs(query url.Values) (*blogPage, error) {
	var page blogPage
	if err := c.do(http.MethodGet, "/api/blogs/user/me/blogs", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *apiClient) GetBlog(id string) (*blog, error) {
	var b blog
	if err := c.do(http.MethodGet, "/api/blogs/"+url.PathEscape(id), nil, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *apiClient) CreateBlog(fields map[string]any) (*blog, error) {
	var b blog
	if err := c.do(http.MethodPost, "/api/blogs", nil, fields, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *apiClient) UpdateBlog(id string, fields map[string]any) (*blog, error) {
	var b blog
	if err := c.do(http.MethodPatch, "/api/blogs/"+url.PathEscape(id), nil, fields, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *apiClient) PublishBlog(id string) (*blog, error) {
	var b blog
	if err := c.do(http.MethodPatch, "/api/blogs/"+url.PathEscape(id)+"/publish", nil, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *apiClient) DeleteBlog(id string) error {
	return c.do(http.MethodDelete, "/api/blogs/"+url.PathEscape(id), nil, nil, nil)
}

// Token storage

func tokenFile() string {
	if p := os.Getenv("BLOGGINGAPI_TOKEN_FILE"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bloggingapi", "token")
}

func saveToken(token string) error {
	path := tokenFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func loadToken() string {
	data, err := os.ReadFile(tokenFile())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func getAPIURL() string {
	if u := os.Getenv("BLOGGINGAPI_API"); u != "" {
		return u
	}
	return "http://localhost:5000"
}
