package wallapop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wallascan/backend/config"
	"github.com/wallascan/backend/internal/domain"
	"golang.org/x/time/rate"
)

// defaultUserAgents are real browser strings rotated across attempts.
// Wallapop blocks clients that keep hammering with the same identity, so
// every attempt goes out with the next agent in the pool.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// Client handles communication with the Wallapop search API.
// One search drives it strictly sequentially; the header-rotation cursor
// is not safe for concurrent pagination and does not need to be.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
	maxPages    int
	rateLimiter *rate.Limiter
	userAgents  []string
	uaCursor    int
	debug       bool
}

// NewClient creates a new Wallapop API client
func NewClient(cfg config.WallapopConfig) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2.0
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:     cfg.BaseURL,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		backoffMax:  cfg.BackoffMax,
		maxPages:    cfg.MaxPages,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 5),
		userAgents:  defaultUserAgents,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SetUserAgents replaces the rotation pool (used by tests for determinism)
func (c *Client) SetUserAgents(agents []string) {
	if len(agents) > 0 {
		c.userAgents = agents
		c.uaCursor = 0
	}
}

// nextUserAgent advances the round-robin cursor. With a pool larger than
// one, consecutive attempts never reuse the same agent.
func (c *Client) nextUserAgent() string {
	ua := c.userAgents[c.uaCursor%len(c.userAgents)]
	c.uaCursor++
	return ua
}

// backoff returns the delay before the next attempt: base doubled per
// attempt, capped at backoffMax
func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase << uint(attempt-1)
	if c.backoffMax > 0 && d > c.backoffMax {
		d = c.backoffMax
	}
	return d
}

// doRequest executes one GET with retry and backoff. Transient outcomes
// (transport errors, 5xx, 429) are retried inside the attempt budget; 429
// waits twice the normal backoff. Any other non-200 fails immediately.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.nextUserAgent())
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("X-DeviceOS", "0")
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if c.debug {
				log.Printf("[WALLAPOP] Request error (attempt %d/%d): %v", attempt, c.maxRetries, err)
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrRequestFailed, err)
			if attempt < c.maxRetries {
				time.Sleep(c.backoff(attempt))
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrRequestFailed, readErr)
			if attempt < c.maxRetries {
				time.Sleep(c.backoff(attempt))
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if c.debug {
				log.Printf("[WALLAPOP] Rate limited (attempt %d/%d)", attempt, c.maxRetries)
			}
			lastErr = fmt.Errorf("%w: status 429 after %d attempt(s)", domain.ErrRequestFailed, attempt)
			if attempt < c.maxRetries {
				time.Sleep(2 * c.backoff(attempt))
			}

		case resp.StatusCode >= http.StatusInternalServerError:
			if c.debug {
				log.Printf("[WALLAPOP] Server error (attempt %d/%d) - Status: %d", attempt, c.maxRetries, resp.StatusCode)
			}
			lastErr = fmt.Errorf("%w: status %d after %d attempt(s)", domain.ErrRequestFailed, resp.StatusCode, attempt)
			if attempt < c.maxRetries {
				time.Sleep(c.backoff(attempt))
			}

		default:
			// Permanent client error, retrying will not help
			return nil, fmt.Errorf("%w: status %d", domain.ErrRequestFailed, resp.StatusCode)
		}
	}

	return nil, lastErr
}

// searchResponse mirrors the envelope of the Wallapop search API. Items
// live under data.section.payload.items and pagination is cursor-based
// via meta.next_page.
type searchResponse struct {
	Data struct {
		Section struct {
			Payload struct {
				Items []domain.RawItem `json:"items"`
			} `json:"payload"`
		} `json:"section"`
	} `json:"data"`
	Meta struct {
		NextPage string `json:"next_page"`
	} `json:"meta"`
}

// buildSearchURL constructs the first-page search URL from fetch params.
// Price bounds are sent as integers, the way the API expects them, and an
// unknown sort order falls back to newest.
func (c *Client) buildSearchURL(params domain.FetchParams) string {
	values := url.Values{}
	values.Set("source", "search_box")
	values.Set("keywords", params.ProductName)

	if params.MinPrice != nil {
		values.Set("min_sale_price", strconv.Itoa(int(*params.MinPrice)))
	}
	if params.MaxPrice != nil {
		values.Set("max_sale_price", strconv.Itoa(int(*params.MaxPrice)))
	}

	orderBy := params.OrderBy
	if !isAllowedOrderBy(orderBy) {
		if orderBy != "" && c.debug {
			log.Printf("[WALLAPOP] Invalid order_by %q, using %q", orderBy, domain.OrderNewest)
		}
		orderBy = domain.OrderNewest
	}
	values.Set("order_by", orderBy)

	if params.TimeFilter != "" {
		values.Set("time_filter", params.TimeFilter)
	}

	return c.baseURL + "?" + values.Encode()
}

func isAllowedOrderBy(orderBy string) bool {
	for _, allowed := range domain.AllowedOrderBy {
		if orderBy == allowed {
			return true
		}
	}
	return false
}

// nextPageURL rewrites the current URL with the continuation cursor
func nextPageURL(current, cursor string) (string, error) {
	parsed, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("start_cursor", cursor)
	query.Del("since")
	query.Del("next_page")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// FetchItems streams raw listings to yield, one page at a time, in API
// order. Pagination stops when yield returns false, a page comes back
// empty, the cursor runs out, or the page safety cap is hit.
//
// Failure policy: an error on the first page is returned to the caller;
// an error on a later page ends pagination and the items already streamed
// stand as a partial result.
func (c *Client) FetchItems(ctx context.Context, params domain.FetchParams, yield domain.ItemFunc) error {
	currentURL := c.buildSearchURL(params)

	for page := 1; page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.debug {
			log.Printf("[WALLAPOP] Fetching page %d", page)
		}

		body, err := c.doRequest(ctx, currentURL)
		if err != nil {
			if page == 1 {
				return fmt.Errorf("page %d: %w", page, err)
			}
			log.Printf("[WALLAPOP] Page %d failed, returning partial results: %v", page, err)
			return nil
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			if page == 1 {
				return fmt.Errorf("%w: page %d: %v", domain.ErrMalformedResponse, page, err)
			}
			log.Printf("[WALLAPOP] Page %d malformed, returning partial results: %v", page, err)
			return nil
		}

		items := resp.Data.Section.Payload.Items
		if len(items) == 0 {
			if c.debug {
				log.Printf("[WALLAPOP] Page %d empty, end of results", page)
			}
			return nil
		}

		for _, item := range items {
			cont, err := yield(item)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}

		if resp.Meta.NextPage == "" {
			if c.debug {
				log.Printf("[WALLAPOP] No continuation cursor after page %d", page)
			}
			return nil
		}

		currentURL, err = nextPageURL(currentURL, resp.Meta.NextPage)
		if err != nil {
			log.Printf("[WALLAPOP] Failed to build page %d URL: %v", page+1, err)
			return nil
		}
	}

	// Safety cap against a cursor that never terminates; what was
	// accumulated so far is returned as a normal result.
	log.Printf("[WALLAPOP] Page cap (%d) reached, stopping pagination", c.maxPages)
	return nil
}
