package bibsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/config"
	"github.com/quartobooks/quarto/pkg/sourcecache"
)

// maxResponseBytes caps how much of a source response we'll read. The
// search endpoints are paginated, so anything larger indicates a problem.
const maxResponseBytes = 4 << 20

// Client reads the external bibliographic source. Every lookup flows
// through the source cache, so repeated lookups are cheap and a source
// outage degrades to stale data instead of failure.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	cache       *sourcecache.Service
	cacheTTL    time.Duration
	searchLimit int
}

func NewClient(cfg *config.Config, cache *sourcecache.Service) *Client {
	return &Client{
		baseURL: cfg.SourceBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.SourceTimeout,
		},
		cache:       cache,
		cacheTTL:    cfg.SourceCacheTTL,
		searchLimit: cfg.SourceSearchLimit,
	}
}

// AuthorByID fetches one author record by its external identifier.
func (c *Client) AuthorByID(ctx context.Context, externalID string) (*AuthorDetail, error) {
	path := fmt.Sprintf("/authors/%s.json", url.PathEscape(externalID))

	payload, err := c.fetch(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	raw := &rawAuthor{}
	if err := json.Unmarshal(payload, raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse author payload")
	}
	return raw.normalize(), nil
}

// SearchAuthors runs a name-prefix autocomplete search.
func (c *Client) SearchAuthors(ctx context.Context, namePrefix string) ([]*AuthorSummary, error) {
	params := url.Values{}
	params.Set("q", namePrefix)
	params.Set("limit", strconv.Itoa(c.searchLimit))

	payload, err := c.fetch(ctx, "/search/authors.json", params)
	if err != nil {
		return nil, err
	}

	raw := &rawAuthorSearch{}
	if err := json.Unmarshal(payload, raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse author search payload")
	}

	results := make([]*AuthorSummary, 0, len(raw.Docs))
	for _, doc := range raw.Docs {
		results = append(results, &AuthorSummary{
			ExternalID:     externalKey(doc.Key),
			Name:           string(doc.Name),
			AlternateNames: []string(doc.AlternateNames),
		})
	}
	return results, nil
}

// SearchWorks searches works by title, optionally narrowed by an author
// identifier or name.
func (c *Client) SearchWorks(ctx context.Context, title, authorRef string) ([]*WorkResult, error) {
	params := url.Values{}
	params.Set("title", title)
	if authorRef != "" {
		params.Set("author", authorRef)
	}
	params.Set("limit", strconv.Itoa(c.searchLimit))

	payload, err := c.fetch(ctx, "/search.json", params)
	if err != nil {
		return nil, err
	}

	raw := &rawWorkSearch{}
	if err := json.Unmarshal(payload, raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse work search payload")
	}

	results := make([]*WorkResult, 0, len(raw.Docs))
	for _, doc := range raw.Docs {
		results = append(results, &WorkResult{
			ExternalID:        externalKey(doc.Key),
			Title:             string(doc.Title),
			AuthorExternalIDs: []string(doc.AuthorKey),
			AuthorNames:       []string(doc.AuthorName),
		})
	}
	return results, nil
}

// fetch runs one GET through the cache. The live function validates that
// the body is JSON before returning it, so a garbled response counts as a
// fetch failure and stays eligible for the stale fallback.
func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	signature := sourcecache.Signature(http.MethodGet, path, params)

	return c.cache.Fetch(ctx, signature, c.cacheTTL, func(ctx context.Context) ([]byte, error) {
		u := c.baseURL + path
		if len(params) > 0 {
			u += "?" + params.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, errors.Errorf("source returned status %d for %s", resp.StatusCode, path)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if !json.Valid(body) {
			return nil, errors.Errorf("source returned invalid JSON for %s", path)
		}

		return body, nil
	})
}
