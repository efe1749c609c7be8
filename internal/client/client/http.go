package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/exersio/internal/client/models"
)

// HTTPClient talks to the REST API. Authenticated calls go through a
// tokenTransport; auth calls use the bare transport.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	plain   *http.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewHTTPClient builds a client for baseURL (e.g. "http://127.0.0.1:8080").
// A zero timeout disables the per-request deadline.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server address %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{baseURL: strings.TrimRight(baseURL, "/")}
	base := http.DefaultTransport
	c.plain = &http.Client{Transport: base, Timeout: timeout}
	c.http = &http.Client{Transport: &tokenTransport{base: base, c: c}, Timeout: timeout}
	return c, nil
}

func (c *HTTPClient) tokens() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) setTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken, c.refreshToken = access, refresh
	c.mu.Unlock()
}

// SetTokens installs previously issued tokens.
func (c *HTTPClient) SetTokens(access, refresh string) { c.setTokens(access, refresh) }

func (c *HTTPClient) Logout() { c.setTokens("", "") }

func (c *HTTPClient) Close() error {
	c.Logout()
	c.plain.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) url(parts ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// do sends a JSON request and decodes a JSON answer into out (if non-nil).
func (c *HTTPClient) do(ctx context.Context, hc *http.Client, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, c.plain, http.MethodGet, c.url("ping"), nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, email, name, password string) error {
	in := map[string]string{"email": email, "name": name, "password": password}
	return c.do(ctx, c.plain, http.MethodPost, c.url("auth", "register"), in, nil)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Tokens, error) {
	in := map[string]string{"email": email, "password": password}
	var t Tokens
	if err := c.do(ctx, c.plain, http.MethodPost, c.url("auth", "login"), in, &t); err != nil {
		return nil, err
	}
	c.setTokens(t.AccessToken, t.RefreshToken)
	return &t, nil
}

func (c *HTTPClient) Refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return ErrUnauthorized
	}
	var t Tokens
	if err := c.do(ctx, c.plain, http.MethodPost, c.url("auth", "refresh"), map[string]string{"refreshToken": refresh}, &t); err != nil {
		return err
	}
	c.setTokens(t.AccessToken, t.RefreshToken)
	return nil
}

func (c *HTTPClient) Collection(kind models.Kind) Collection {
	return &collection{c: c, path: string(kind)}
}

type collection struct {
	c    *HTTPClient
	path string
}

func (r *collection) List(ctx context.Context) ([]json.RawMessage, error) {
	out := []json.RawMessage{}
	if err := r.c.do(ctx, r.c.http, http.MethodGet, r.c.url(r.path), nil, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.path, err)
	}
	return out, nil
}

func (r *collection) Get(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := r.c.do(ctx, r.c.http, http.MethodGet, r.c.url(r.path, id), nil, &out); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", r.path, id, err)
	}
	return out, nil
}

func (r *collection) Create(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := r.c.do(ctx, r.c.http, http.MethodPost, r.c.url(r.path), data, &out); err != nil {
		return nil, fmt.Errorf("create %s: %w", r.path, err)
	}
	return out, nil
}

func (r *collection) Update(ctx context.Context, id string, data json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := r.c.do(ctx, r.c.http, http.MethodPut, r.c.url(r.path, id), data, &out); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", r.path, id, err)
	}
	return out, nil
}

func (r *collection) Delete(ctx context.Context, id string) error {
	if err := r.c.do(ctx, r.c.http, http.MethodDelete, r.c.url(r.path, id), nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", r.path, id, err)
	}
	return nil
}

func (c *HTTPClient) ShareExercise(ctx context.Context, id, clubID string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, c.http, http.MethodPost, c.url("exercises", id, "share"), map[string]string{"clubId": clubID}, &out)
	return out, err
}

func (c *HTTPClient) ExercisePermissions(ctx context.Context, id string) (*Permissions, error) {
	var p Permissions
	if err := c.do(ctx, c.http, http.MethodGet, c.url("exercises", id, "permissions"), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) ExerciseImageUploadURL(ctx context.Context, id, contentType string) (*ImageUpload, error) {
	var u ImageUpload
	err := c.do(ctx, c.http, http.MethodPost, c.url("exercises", id, "image"), map[string]string{"contentType": contentType}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ExerciseImageURL(ctx context.Context, id string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, c.http, http.MethodGet, c.url("exercises", id, "image"), nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *HTTPClient) ListClubs(ctx context.Context) ([]Club, error) {
	out := []Club{}
	if err := c.do(ctx, c.http, http.MethodGet, c.url("clubs"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateClub(ctx context.Context, name string) (*Club, error) {
	var out Club
	if err := c.do(ctx, c.http, http.MethodPost, c.url("clubs"), map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) AddClubMember(ctx context.Context, clubID, userID, role string) error {
	in := map[string]string{"userId": userID, "role": role}
	return c.do(ctx, c.http, http.MethodPost, c.url("clubs", clubID, "members"), in, nil)
}

// tokenTransport injects the bearer token and, when the server reports an
// expired access token, refreshes it once and replays the request.
type tokenTransport struct {
	base http.RoundTripper
	c    *HTTPClient
}

func (t *tokenTransport) send(req *http.Request, token string) (*http.Response, error) {
	r := req.Clone(req.Context())
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(r)
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	access, refresh := t.c.tokens()

	resp, err := t.send(req, access)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || refresh == "" {
		return resp, err
	}

	apiErr := decodeError(resp)
	resp.Body.Close()
	if !errors.Is(apiErr, ErrTokenExpired) {
		return rewound(resp, apiErr), nil
	}

	if req.Body != nil && req.GetBody == nil {
		return rewound(resp, apiErr), nil
	}
	if err := t.c.Refresh(req.Context()); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			t.c.Logout()
			return rewound(resp, &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "session expired, log in again"}), nil
		}
		return nil, err
	}

	retry := req
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry = req.Clone(req.Context())
		retry.Body = body
	}

	access, _ = t.c.tokens()
	return t.send(retry, access)
}

// rewound re-creates a consumed error body so the caller can decode it again.
func rewound(resp *http.Response, e error) *http.Response {
	var apiErr *APIError
	if errors.As(e, &apiErr) {
		b, _ := json.Marshal(apiErr)
		resp.Body = io.NopCloser(bytes.NewReader(b))
	} else {
		resp.Body = http.NoBody
	}
	return resp
}
