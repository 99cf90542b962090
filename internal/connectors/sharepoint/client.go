package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// MaxRetries is the maximum number of retries for throttled requests.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries without a Retry-After hint.
	RetryDelay = time.Second

	// verboseJSON is the OData verbose media type.
	verboseJSON = "application/json;odata=verbose"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Verify interface compliance.
var _ driven.QueryTransport = (*Client)(nil)

// Client is the SharePoint REST query transport.
// It holds no session state and is safe for concurrent use.
type Client struct {
	base        *http.Client
	rateLimiter *RateLimiter
	maxRetries  int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped
// with bearer authentication per request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.base = hc
	}
}

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = rl
	}
}

// WithMaxRetries sets how many times a throttled request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// NewClient creates a SharePoint client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		base:        &http.Client{Timeout: DefaultTimeout},
		rateLimiter: NewRateLimiter(rate.Limit(ProactiveRate), ProactiveBurst, RetryDelay),
		maxRetries:  MaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one page of a search query against the session's tenant.
func (c *Client) Search(ctx context.Context, session *domain.Session, query domain.SearchQuery) ([]domain.Row, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}

	endpoint := trimURL(session.TenantURL) + "/_api/search/query?" + searchParams(query)

	var env searchEnvelope
	if err := c.getJSON(ctx, session, http.MethodGet, endpoint, nil, &env); err != nil {
		return nil, fmt.Errorf("search %q: %w", query.QueryText, err)
	}
	return env.rows(), nil
}

// OpenContainer resolves a document library by its title.
func (c *Client) OpenContainer(
	ctx context.Context, session *domain.Session, siteURL, library string,
) (*domain.Container, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}

	endpoint := listByTitleURL(siteURL, library) + "?$select=Id,Title"

	var env listEnvelope
	if err := c.getJSON(ctx, session, http.MethodGet, endpoint, nil, &env); err != nil {
		return nil, fmt.Errorf("open library %q: %w", library, err)
	}

	title := env.D.Title
	if title == "" {
		title = library
	}
	return &domain.Container{SiteURL: trimURL(siteURL), ListID: env.D.ID, Title: title}, nil
}

// QueryChanges returns one page of the library's change log from token onwards.
func (c *Client) QueryChanges(
	ctx context.Context, session *domain.Session, container *domain.Container, token domain.ChangeToken,
) ([]domain.RawChange, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	if container == nil {
		return nil, fmt.Errorf("query changes: nil container: %w", domain.ErrInvalidInput)
	}

	var endpoint string
	if container.ListID != "" {
		endpoint = fmt.Sprintf("%s/_api/web/lists(guid'%s')/GetChanges",
			trimURL(container.SiteURL), url.PathEscape(container.ListID))
	} else {
		endpoint = listByTitleURL(container.SiteURL, container.Title) + "/GetChanges"
	}

	var env changesEnvelope
	if err := c.getJSON(ctx, session, http.MethodPost, endpoint, changeQueryBody(token), &env); err != nil {
		return nil, fmt.Errorf("get changes: %w", err)
	}

	changes := make([]domain.RawChange, 0, len(env.D.Results))
	for _, row := range env.D.Results {
		changes = append(changes, decodeChange(row))
	}
	logger.Debug("sharepoint: %d changes from %s", len(changes), container.SiteURL)
	return changes, nil
}

// GetListItem fetches a library item by its numeric id.
func (c *Client) GetListItem(
	ctx context.Context, session *domain.Session, siteURL, library, itemID string,
) (*domain.ListItem, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	if _, err := strconv.Atoi(itemID); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, ErrInvalidItemID)
	}

	endpoint := listByTitleURL(siteURL, library) +
		"/items?$select=EncodedAbsUrl,FileSystemObjectType&$filter=" + rawQueryEscape("Id eq "+itemID)

	var env itemsEnvelope
	if err := c.getJSON(ctx, session, http.MethodGet, endpoint, nil, &env); err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	if len(env.D.Results) == 0 {
		return nil, fmt.Errorf("item %s in %q: %w", itemID, library, domain.ErrNotFound)
	}

	item := env.D.Results[0]
	return &domain.ListItem{
		ID:                   itemID,
		EncodedAbsURL:        item.EncodedAbsURL,
		FileSystemObjectType: item.FileSystemObjectType,
	}, nil
}

// Download streams a file's content by its server-relative path.
func (c *Client) Download(
	ctx context.Context, session *domain.Session, siteURL, relativePath string,
) (io.ReadCloser, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/_api/web/GetFileByServerRelativeUrl(%s)/$value?@target=%s",
		trimURL(siteURL),
		odataLiteral(relativePath),
		rawQueryEscape("'"+session.TenantURL+"'"),
	)

	resp, err := c.do(ctx, session, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", relativePath, err)
	}
	return resp.Body, nil
}

// getJSON performs a request and decodes the verbose JSON response into out.
func (c *Client) getJSON(ctx context.Context, session *domain.Session, method, endpoint string, body, out any) error {
	resp, err := c.do(ctx, session, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}
	return nil
}

// do executes a request with bearer authentication, retrying throttled
// responses. On success the caller owns the response body.
func (c *Client) do(
	ctx context.Context, session *domain.Session, method, endpoint string, body any,
) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	hc := c.authorized(session)

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
		}
		req.Header.Set("Accept", verboseJSON)
		if payload != nil {
			req.Header.Set("Content-Type", verboseJSON)
		}

		logger.Debug("sharepoint: %s %s", method, endpoint)
		resp, err := hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}

		if resp.StatusCode < 300 {
			return resp, nil
		}

		if isThrottleStatus(resp.StatusCode) {
			delay := c.rateLimiter.Delay(resp.Header, attempt)
			drain(resp)
			if attempt >= c.maxRetries {
				return nil, fmt.Errorf("%w: %w: %w", domain.ErrTransport, domain.ErrRateLimited,
					&RateLimitError{RetryAfter: delay, URL: endpoint})
			}
			logger.Warn("sharepoint: throttled (%d), retrying in %s", resp.StatusCode, delay)
			if err := c.rateLimiter.Backoff(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		return nil, apiError(resp, endpoint)
	}
}

// authorized returns an HTTP client presenting the session's token.
func (c *Client) authorized(session *domain.Session) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		Expiry:      session.Expiry,
	})
	return &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: c.base.Transport},
		Timeout:   c.base.Timeout,
	}
}

func apiError(resp *http.Response, endpoint string) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body, resp.Status),
		URL:        endpoint,
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w: %w", domain.ErrTransport, domain.ErrAuthInvalid, apiErr)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, apiErr)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}

func checkSession(session *domain.Session) error {
	if !session.Valid() {
		return domain.ErrAuthRequired
	}
	return nil
}

// searchParams encodes a search query. String values are single-quoted
// as the search API requires.
func searchParams(q domain.SearchQuery) string {
	params := []string{"querytext=" + rawQueryEscape(odataQuote(q.QueryText))}
	if len(q.SelectProperties) > 0 {
		params = append(params, "selectproperties="+rawQueryEscape(odataQuote(strings.Join(q.SelectProperties, ","))))
	}
	if q.SortList != "" {
		params = append(params, "sortlist="+rawQueryEscape(odataQuote(q.SortList)))
	}
	if q.RowLimit > 0 {
		params = append(params, "rowlimit="+strconv.Itoa(q.RowLimit))
	}
	params = append(params, "startrow="+strconv.Itoa(q.StartRow))
	return strings.Join(params, "&")
}

func listByTitleURL(siteURL, title string) string {
	return fmt.Sprintf("%s/_api/web/lists/getByTitle(%s)", trimURL(siteURL), odataLiteral(title))
}

// odataQuote wraps s in single quotes, doubling embedded quotes.
func odataQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// odataLiteral quotes s for use inside a path segment, percent-encoding its content.
func odataLiteral(s string) string {
	return "'" + url.PathEscape(strings.ReplaceAll(s, "'", "''")) + "'"
}

// rawQueryEscape percent-encodes s with %20 for spaces.
func rawQueryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func trimURL(u string) string {
	return strings.TrimRight(u, "/")
}
