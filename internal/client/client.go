// Package client is a typed Go client for the supporthub HTTP API.
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
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/domain/testimonial"
	"github.com/geocoder89/supporthub/internal/domain/user"
	"golang.org/x/sync/singleflight"
)

// ErrMissingBaseURL indicates the client was configured without a server address.
var ErrMissingBaseURL = errors.New("client: base url is required")

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

type Options struct {
	BaseURL        string
	Token          string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client calls the API. Concurrent identical GETs made with the same token
// share one round trip.
type Client struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	requestTimeout time.Duration
	reads          *singleflight.Group
}

// APIError is a non-2xx answer decoded from the server's error envelope.
type APIError struct {
	Status    int                 `json:"-"`
	Message   string              `json:"message"`
	Code      string              `json:"code"`
	Errors    map[string][]string `json:"errors,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:        baseURL,
		token:          opts.Token,
		httpClient:     httpClient,
		requestTimeout: timeout,
		reads:          &singleflight.Group{},
	}, nil
}

// WithToken returns a client that authenticates as token. The copy shares
// the transport and the read de-duplication group.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// get fetches path, collapsing concurrent calls for the same path and
// token. Each caller waits on its own ctx. The shared request keeps the
// first caller's values but not its cancellation, and is bounded by the
// request timeout instead.
func (c *Client) get(ctx context.Context, path string, out any) error {
	key := c.token + " " + path

	ch := c.reads.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.requestTimeout)
		defer cancel()
		return c.do(shared, http.MethodGet, path, nil)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return decode(res.Val.([]byte), out)
	}
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(raw) == 0 || json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	return raw, nil
}

func decode(raw []byte, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// Session is what register and login answer with.
type Session struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func (c *Client) Register(ctx context.Context, req user.RegisterRequest) (Session, error) {
	var s Session
	err := c.send(ctx, http.MethodPost, "/auth/register", req, &s)
	return s, err
}

func (c *Client) Login(ctx context.Context, req user.LoginRequest) (Session, error) {
	var s Session
	err := c.send(ctx, http.MethodPost, "/auth/login", req, &s)
	return s, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (user.User, error) {
	var resp struct {
		User user.User `json:"user"`
	}
	err := c.get(ctx, "/auth/me", &resp)
	return resp.User, err
}

func (c *Client) ListTestimonials(ctx context.Context) ([]testimonial.Testimonial, error) {
	var resp struct {
		Data []testimonial.Testimonial `json:"data"`
	}
	err := c.get(ctx, "/testimonials", &resp)
	return resp.Data, err
}

func (c *Client) GetTestimonial(ctx context.Context, id string) (testimonial.Testimonial, error) {
	var resp struct {
		Data testimonial.Testimonial `json:"data"`
	}
	err := c.get(ctx, "/testimonials/"+url.PathEscape(id), &resp)
	return resp.Data, err
}

func (c *Client) SubmitTestimonial(ctx context.Context, req testimonial.SubmitRequest) (testimonial.Testimonial, error) {
	var resp struct {
		Data testimonial.Testimonial `json:"data"`
	}
	err := c.send(ctx, http.MethodPost, "/testimonials", req, &resp)
	return resp.Data, err
}

func (c *Client) ListCategories(ctx context.Context) ([]donation.Category, error) {
	var resp struct {
		Data []donation.Category `json:"data"`
	}
	err := c.get(ctx, "/donation-categories", &resp)
	return resp.Data, err
}

func (c *Client) ListDonations(ctx context.Context, page int) (donation.PublicPage, error) {
	var p donation.PublicPage
	err := c.get(ctx, "/donations?page="+strconv.Itoa(page), &p)
	return p, err
}

func (c *Client) Donate(ctx context.Context, req donation.CreateRequest) (donation.Donation, error) {
	var resp struct {
		Data donation.Donation `json:"data"`
	}
	err := c.send(ctx, http.MethodPost, "/donations", req, &resp)
	return resp.Data, err
}

func (c *Client) ApproveTestimonial(ctx context.Context, id string) (testimonial.Testimonial, error) {
	var resp struct {
		Data testimonial.Testimonial `json:"data"`
	}
	err := c.send(ctx, http.MethodPut, "/admin/testimonials/"+url.PathEscape(id)+"/approve", nil, &resp)
	return resp.Data, err
}

func (c *Client) RejectTestimonial(ctx context.Context, id string) (testimonial.Testimonial, error) {
	var resp struct {
		Data testimonial.Testimonial `json:"data"`
	}
	err := c.send(ctx, http.MethodPut, "/admin/testimonials/"+url.PathEscape(id)+"/reject", nil, &resp)
	return resp.Data, err
}
