package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/errors"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/utils"
)

const (
	// DefaultPageSize is the directory API's page ceiling for user listings
	DefaultPageSize = 100

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// graphDateTime is the layout of dateTimeTimeZone values, which carry no offset
	graphDateTime = "2006-01-02T15:04:05.9999999"
)

// Observer is notified after every directory request.
type Observer interface {
	ObserveRequest(operation string, err error, duration time.Duration)
}

// Option configures the GraphClient.
type Option func(*GraphClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *GraphClient) {
		c.httpClient = httpClient
	}
}

// WithPageSize sets the $top used for user listings.
func WithPageSize(pageSize int) Option {
	return func(c *GraphClient) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
	}
}

// WithObserver sets a request observer
func WithObserver(observer Observer) Option {
	return func(c *GraphClient) {
		c.observer = observer
	}
}

// GraphClient implements Gateway over the directory's REST API.
type GraphClient struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
	observer   Observer
}

var _ Gateway = (*GraphClient)(nil)

// NewGraphClient creates a client for baseURL, e.g. "https://graph.microsoft.com/v1.0".
func NewGraphClient(baseURL string, opts ...Option) *GraphClient {
	c := &GraphClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		pageSize:   DefaultPageSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *GraphClient) Me(ctx context.Context, bearerToken string) (User, error) {
	var user User
	if err := c.do(ctx, "me", http.MethodGet, "/me?$select=id,displayName,mail,mobilePhone", bearerToken, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *GraphClient) UpdateUser(ctx context.Context, bearerToken, userID string, update UserUpdate) error {
	if userID == "" {
		return fmt.Errorf("[directory UpdateUser] user id is required")
	}
	return c.do(ctx, "update_user", http.MethodPatch, "/users/"+url.PathEscape(userID), bearerToken, update, nil)
}

type dateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventPage struct {
	Value []struct {
		Start dateTimeTimeZone `json:"start"`
		End   dateTimeTimeZone `json:"end"`
	} `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

func (c *GraphClient) CalendarEvents(ctx context.Context, bearerToken string) ([]Event, error) {
	var events []Event
	next := fmt.Sprintf("/me/events?$select=start,end&$top=%d", c.pageSize)
	seen := make(map[string]bool)

	for next != "" {
		seen[next] = true
		var page eventPage
		if err := c.do(ctx, "calendar_events", http.MethodGet, next, bearerToken, nil, &page); err != nil {
			return nil, err
		}

		for _, raw := range page.Value {
			start, err := parseDateTime(raw.Start)
			if err != nil {
				return nil, fmt.Errorf("[directory CalendarEvents] event start: %w: %v", errors.ErrUpstream, err)
			}
			end, err := parseDateTime(raw.End)
			if err != nil {
				return nil, fmt.Errorf("[directory CalendarEvents] event end: %w: %v", errors.ErrUpstream, err)
			}
			events = append(events, Event{Start: start, End: end})
		}
		var err error
		if next, err = c.followLink(page.NextLink, seen); err != nil {
			return nil, fmt.Errorf("[directory CalendarEvents] %w", err)
		}
	}

	return events, nil
}

// followLink vets a nextLink before the bearer token is sent to it. Links must stay on
// the API host and must not repeat.
func (c *GraphClient) followLink(link string, seen map[string]bool) (string, error) {
	if link == "" {
		return "", nil
	}
	if seen[link] {
		return "", fmt.Errorf("%w: nextLink %q repeats", errors.ErrUpstream, link)
	}

	next, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: invalid nextLink: %v", errors.ErrUpstream, err)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if next.Host != "" && !strings.EqualFold(next.Host, base.Host) {
		return "", fmt.Errorf("%w: nextLink host %q is not %q", errors.ErrUpstream, next.Host, base.Host)
	}
	return link, nil
}

func (c *GraphClient) SentMailCount(ctx context.Context, bearerToken, userID string) (int, error) {
	var folder struct {
		TotalItemCount *int `json:"totalItemCount"`
	}
	path := "/users/" + url.PathEscape(userID) + "/mailFolders/sentitems?$select=totalItemCount"
	err := c.do(ctx, "sent_mail_count", http.MethodGet, path, bearerToken, nil, &folder)
	if IsNotFound(err) {
		// Mailbox was never provisioned
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return utils.Value(folder.TotalItemCount), nil
}

type userPage struct {
	Value []User `json:"value"`
}

func (c *GraphClient) ListUsers(ctx context.Context, bearerToken string) ([]User, error) {
	var page userPage
	path := fmt.Sprintf("/users?$select=id,displayName,mail,mobilePhone&$top=%d", c.pageSize)
	if err := c.do(ctx, "list_users", http.MethodGet, path, bearerToken, nil, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

func (c *GraphClient) CountUsers(ctx context.Context, bearerToken string) (int, error) {
	var page userPage
	path := fmt.Sprintf("/users?$select=id&$top=%d", c.pageSize)
	if err := c.do(ctx, "count_users", http.MethodGet, path, bearerToken, nil, &page); err != nil {
		return 0, err
	}
	return len(page.Value), nil
}

func (c *GraphClient) LatestSignIn(ctx context.Context, bearerToken string) (SignIn, error) {
	var page struct {
		Value []struct {
			UserDisplayName string    `json:"userDisplayName"`
			CreatedDateTime time.Time `json:"createdDateTime"`
		} `json:"value"`
	}
	if err := c.do(ctx, "latest_sign_in", http.MethodGet, "/auditLogs/signIns?$top=1", bearerToken, nil, &page); err != nil {
		return SignIn{}, err
	}
	if len(page.Value) == 0 {
		return SignIn{}, nil
	}
	return SignIn{UserDisplayName: page.Value[0].UserDisplayName, CreatedAt: page.Value[0].CreatedDateTime}, nil
}

func (c *GraphClient) do(ctx context.Context, operation, method, target, bearerToken string, body, out any) error {
	start := time.Now()
	err := c.send(ctx, operation, method, target, bearerToken, body, out)
	if c.observer != nil {
		c.observer.ObserveRequest(operation, err, time.Since(start))
	}
	return err
}

func (c *GraphClient) send(ctx context.Context, operation, method, target, bearerToken string, body, out any) error {
	// nextLinks are absolute
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + target
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("[directory %s] failed to encode request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("[directory %s] failed to create request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("client-request-id", uuid.NewString())
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[directory %s] %w: %v", operation, errors.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(operation, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[directory %s] failed to decode response: %w: %v", operation, errors.ErrUpstream, err)
	}
	return nil
}

// parseDateTime accepts offset-less values in the given zone as well as RFC 3339.
func parseDateTime(v dateTimeTimeZone) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v.DateTime); err == nil {
		return t, nil
	}

	loc := time.UTC
	if v.TimeZone != "" {
		if l, err := time.LoadLocation(v.TimeZone); err == nil {
			loc = l
		}
	}
	return time.ParseInLocation(graphDateTime, v.DateTime, loc)
}
