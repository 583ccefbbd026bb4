package earendel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pscheid92/yggdrasil/internal/domain"
	"github.com/pscheid92/yggdrasil/internal/metrics"
	"github.com/pscheid92/yggdrasil/internal/platform/version"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

const (
	maxImageBytes = 32 << 20
	maxPageBytes  = 1 << 20
	maxAPIBytes   = 1 << 20

	targetAPI   = "apod_api"
	targetImage = "apod_image"
	targetPage  = "apod_page"
)

// Config points the client at the APOD endpoints.
type Config struct {
	APIURL  string
	APIKey  string
	PageURL string
	Timeout time.Duration
}

// Client fetches the picture of the day and scrapes its archive page.
type Client struct {
	http      *http.Client
	apiURL    string
	apiKey    string
	pageURL   *url.URL
	sanitizer *bluemonday.Policy
	pages     singleflight.Group
}

func NewClient(cfg Config) (*Client, error) {
	pageURL, err := url.Parse(cfg.PageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	if !strings.HasSuffix(pageURL.Path, "/") {
		pageURL.Path += "/"
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		apiURL:    cfg.APIURL,
		apiKey:    cfg.APIKey,
		pageURL:   pageURL,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

type apodResponse struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Copyright   string `json:"copyright"`
	Explanation string `json:"explanation"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
}

// Picture fetches today's picture. For image media the image bytes are downloaded too;
// other media (videos) are returned without bytes.
func (c *Client) Picture(ctx context.Context) (domain.Picture, error) {
	meta, err := c.fetchMetadata(ctx)
	if err != nil {
		return domain.Picture{}, err
	}

	picture := domain.Picture{
		Date:        meta.Date,
		Title:       c.clean(meta.Title),
		Copyright:   c.clean(meta.Copyright),
		Explanation: c.clean(meta.Explanation),
		MediaType:   meta.MediaType,
		URL:         meta.URL,
		HDURL:       meta.HDURL,
	}

	if meta.MediaType != "image" {
		return picture, nil
	}

	data, contentType, err := c.fetchImage(ctx, meta.URL)
	if err != nil {
		return domain.Picture{}, err
	}
	picture.Image = data
	picture.ContentType = contentType

	return picture, nil
}

func (c *Client) fetchMetadata(ctx context.Context) (apodResponse, error) {
	endpoint, err := url.Parse(c.apiURL)
	if err != nil {
		return apodResponse{}, fmt.Errorf("invalid api url: %w", err)
	}
	q := endpoint.Query()
	q.Set("api_key", c.apiKey)
	q.Set("thumbs", "true")
	endpoint.RawQuery = q.Encode()

	body, _, err := c.get(ctx, targetAPI, endpoint.String(), maxAPIBytes)
	if err != nil {
		return apodResponse{}, err
	}

	var meta apodResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return apodResponse{}, fmt.Errorf("failed to decode apod response: %w", err)
	}
	if meta.Date == "" || meta.URL == "" {
		return apodResponse{}, fmt.Errorf("apod response missing date or url")
	}
	return meta, nil
}

func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	body, header, err := c.get(ctx, targetImage, imageURL, maxImageBytes)
	if err != nil {
		return nil, "", err
	}

	contentType := header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedMedia, contentType)
	}
	return body, mediaType, nil
}

// get performs a GET and returns the body, read up to limit bytes.
func (c *Client) get(ctx context.Context, target, rawURL string, limit int64) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build %s request: %w", target, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(target, "error").Inc()
		return nil, nil, fmt.Errorf("%s request failed: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.UpstreamRequestsTotal.WithLabelValues(target, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s response: %w", target, err)
	}
	if int64(len(body)) > limit {
		return nil, nil, fmt.Errorf("%s response exceeds %d bytes", target, limit)
	}
	return body, resp.Header, nil
}

// clean strips markup from APOD text. The policy escapes entities, so they are decoded back for JSON.
func (c *Client) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}
