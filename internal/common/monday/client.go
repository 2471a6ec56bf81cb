// Package monday fetches board items from the monday.com GraphQL API.
package monday

import (
	"context"
	"errors"
	"fmt"
	"time"

	httpclient "founder-bi-agent/internal/common/http"

	"github.com/redis/go-redis/v9"
)

// MaxPageLimit is the largest items_page the API accepts.
const MaxPageLimit = 500

var ErrRequestFailed = errors.New("LIVE_SOURCE_FAILED")

const boardItemsQuery = `query { boards(ids: %s) { items_page(limit: %d) { items { id name column_values { id text value } } } } }`

type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

type Config struct {
	URL        string
	APIToken   string
	APIVersion string
	PageLimit  int
	Timeout    time.Duration
	CacheTTL   time.Duration
}

type Client struct {
	config Config
	http   *httpclient.Client
	redis  *redis.Client
	logger Logger
}

// NewClient builds a client. redisClient may be nil, which disables caching.
func NewClient(cfg Config, redisClient *redis.Client, log Logger) *Client {
	if cfg.PageLimit <= 0 || cfg.PageLimit > MaxPageLimit {
		cfg.PageLimit = MaxPageLimit
	}
	return &Client{
		config: cfg,
		http:   httpclient.NewClient(cfg.Timeout),
		redis:  redisClient,
		logger: log,
	}
}

// BoardItems returns the raw GraphQL response body for one board.
// The body is not validated here; callers decode the nested structure.
func (c *Client) BoardItems(ctx context.Context, boardID string) ([]byte, error) {
	if cached, ok := c.cached(ctx, boardID); ok {
		return cached, nil
	}

	payload := map[string]string{
		"query": fmt.Sprintf(boardItemsQuery, boardID, c.config.PageLimit),
	}
	headers := map[string]string{
		"Authorization": c.config.APIToken,
		"API-Version":   c.config.APIVersion,
	}

	resp, err := c.http.PostJSON(ctx, c.config.URL, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: board %s: %v", ErrRequestFailed, boardID, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: board %s: status %d", ErrRequestFailed, boardID, resp.StatusCode)
	}

	c.store(ctx, boardID, resp.Body)
	return resp.Body, nil
}

func cacheKey(boardID string) string {
	return "bi:board:" + boardID
}

func (c *Client) cached(ctx context.Context, boardID string) ([]byte, bool) {
	if c.redis == nil || c.config.CacheTTL <= 0 {
		return nil, false
	}
	val, err := c.redis.Get(ctx, cacheKey(boardID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("board cache read failed", map[string]interface{}{
				"boardId": boardID,
				"error":   err.Error(),
			})
		}
		return nil, false
	}
	return val, true
}

func (c *Client) store(ctx context.Context, boardID string, body []byte) {
	if c.redis == nil || c.config.CacheTTL <= 0 {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(boardID), body, c.config.CacheTTL).Err(); err != nil {
		c.logger.Warn("board cache write failed", map[string]interface{}{
			"boardId": boardID,
			"error":   err.Error(),
		})
	}
}
