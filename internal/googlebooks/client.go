// Package googlebooks queries the Google Books volumes API and normalizes
// its records into domain.Candidate values. The client holds no local state
// beyond pacing; candidates are never cached.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"shelfmark/pkg/domain"
)

const (
	// DefaultBaseURL is the public volumes endpoint root.
	DefaultBaseURL = "https://www.googleapis.com/books/v1"

	defaultMaxResults = 10
	maxMaxResults     = 40
	defaultTimeout    = 10 * time.Second
	defaultRPS        = 5
)

// Config carries explicit client settings. The API key is passed in rather
// than read from the environment so tests can inject fakes.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	RPS     int
}

// Client calls the Google Books volumes API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New constructs a client with bounded timeout and outbound pacing.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
	}
}

// volume mirrors the provider's item shape.
type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Authors             []string `json:"authors"`
		PublishedDate       string   `json:"publishedDate"`
		Publisher           string   `json:"publisher"`
		Description         string   `json:"description"`
		PageCount           int      `json:"pageCount"`
		Categories          []string `json:"categories"`
		AverageRating       float64  `json:"averageRating"`
		RatingsCount        int      `json:"ratingsCount"`
		Language            string   `json:"language"`
		PreviewLink         string   `json:"previewLink"`
		InfoLink            string   `json:"infoLink"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		ImageLinks struct {
			Thumbnail      string `json:"thumbnail"`
			SmallThumbnail string `json:"smallThumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

type searchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

// Search queries volumes by free text, ordered by provider relevance.
// maxResults is clamped to [1,40] and defaults to 10. The total reported by
// the provider is returned alongside the normalized page.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.Candidate, int, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var res searchResponse
	if err := c.get(ctx, c.baseURL+"/volumes?"+params.Encode(), &res); err != nil {
		return nil, 0, err
	}
	candidates := make([]domain.Candidate, 0, len(res.Items))
	for _, item := range res.Items {
		candidates = append(candidates, normalize(item))
	}
	return candidates, res.TotalItems, nil
}

// FetchByID retrieves one volume by its provider ID.
func (c *Client) FetchByID(ctx context.Context, volumeID string) (domain.Candidate, error) {
	if volumeID == "" {
		return domain.Candidate{}, fmt.Errorf("%w: volume id required", domain.ErrValidation)
	}
	u := c.baseURL + "/volumes/" + url.PathEscape(volumeID)
	if c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}
	var item volume
	if err := c.get(ctx, u, &item); err != nil {
		return domain.Candidate{}, err
	}
	return normalize(item), nil
}

// get issues a single attempt; upstream failures are not retried here, the
// caller decides how to surface them.
func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrUpstream, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: provider has no such record", domain.ErrNotFound)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: provider returned status %d", domain.ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

func normalize(item volume) domain.Candidate {
	info := item.VolumeInfo
	cand := domain.Candidate{
		Title:         info.Title,
		Authors:       info.Authors,
		PublishedDate: info.PublishedDate,
		Publisher:     info.Publisher,
		Description:   info.Description,
		PageCount:     info.PageCount,
		Categories:    info.Categories,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
		Language:      info.Language,
		PreviewLink:   info.PreviewLink,
		InfoLink:      info.InfoLink,
		Thumbnail:     info.ImageLinks.Thumbnail,
		VolumeID:      item.ID,
	}
	if cand.Thumbnail == "" {
		cand.Thumbnail = info.ImageLinks.SmallThumbnail
	}
	for _, ident := range info.IndustryIdentifiers {
		switch ident.Type {
		case "ISBN_10":
			cand.ISBN10 = ident.Identifier
		case "ISBN_13":
			cand.ISBN13 = ident.Identifier
		}
	}
	return cand
}
