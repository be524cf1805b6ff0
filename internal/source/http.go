package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/jtorresq/pericias-console/internal/pericias"
)

// DataUnavailableError reports a fetch that came back with a non-success
// status. It degrades a single view, never the whole process.
type DataUnavailableError struct {
	Resource string
	Status   int
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable: %s returned status %d", e.Resource, e.Status)
}

// Options controls the data source client.
type Options struct {
	// BaseURL is the root under which index.json and casos/<id>.json live.
	BaseURL string
	Logger  *log.Logger

	// HTTPClient overrides the default client (used by tests).
	HTTPClient *http.Client
}

// Client is a read-only accessor over the case index and per-case detail
// resources. Every call fetches fresh: no caching, no retries, so
// out-of-band updates to the data are always reflected.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// NewClient constructs a data source client.
func NewClient(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[source] ", log.LstdFlags)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		logger:  opts.Logger,
	}
}

// LoadIndex fetches the case index. The body is parsed as a JSON array of
// summaries with no per-field validation; malformed records propagate
// as-is to the rendering layer.
func (c *Client) LoadIndex(ctx context.Context) ([]pericias.CaseSummary, error) {
	var index []pericias.CaseSummary
	if err := c.fetchJSON(ctx, c.baseURL+"/index.json", &index); err != nil {
		return nil, err
	}
	c.logger.Printf("Loaded index with %d cases", len(index))
	return index, nil
}

// LoadCase fetches the detail record for one case identifier.
func (c *Client) LoadCase(ctx context.Context, id string) (*pericias.CaseDetail, error) {
	var detail pericias.CaseDetail
	target := fmt.Sprintf("%s/casos/%s.json", c.baseURL, url.PathEscape(id))
	if err := c.fetchJSON(ctx, target, &detail); err != nil {
		return nil, err
	}
	c.logger.Printf("Loaded case %s with %d pericias", detail.Caso, len(detail.Pericias))
	return &detail, nil
}

func (c *Client) fetchJSON(ctx context.Context, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", target, err)
	}
	// Bypass intermediate caches so out-of-band data updates show up.
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &DataUnavailableError{Resource: target, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s: %w", target, err)
	}
	return nil
}
