// Package places queries the Google Places Nearby Search API one category at a
// time, following continuation tokens up to a fixed page cap.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
)

const (
	// DefaultBaseURL is the Nearby Search JSON endpoint.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	// DefaultTimeout bounds every provider HTTP call.
	DefaultTimeout = 10 * time.Second
	// DefaultPageDelay is how long a continuation token needs before it becomes valid.
	DefaultPageDelay = 2 * time.Second
	// DefaultMaxRadius is the provider-side radius cap in meters.
	DefaultMaxRadius = 50000

	maxContinuations = 2
	tracerName       = "github.com/octobees/venue-finder/internal/places"
)

// ErrMalformedResponse indicates the provider returned a body that is not valid JSON.
var ErrMalformedResponse = errors.New("malformed provider response")

// Query describes one category lookup around a coordinate.
type Query struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Category     string
	Language     string
}

// Client fetches raw venue records from the provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pageDelay  time.Duration
	maxRadius  int
	logger     *slog.Logger
	tracer     trace.Tracer
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures optional client dependencies.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = strings.TrimSpace(baseURL)
		}
	}
}

// WithPageDelay overrides the continuation settle delay.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.pageDelay = d
		}
	}
}

// WithMaxRadius overrides the provider-side radius cap.
func WithMaxRadius(meters int) Option {
	return func(c *Client) {
		if meters > 0 {
			c.maxRadius = meters
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a provider client for the given credential.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		pageDelay:  DefaultPageDelay,
		maxRadius:  DefaultMaxRadius,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCategory returns the raw records for one category, across at most three pages.
//
// Provider-reported errors, HTTP failures and timeouts end pagination early and
// return whatever was accumulated; they are logged, not returned. Only a body that
// cannot be decoded is reported as an error.
func (c *Client) FetchCategory(ctx context.Context, q Query) ([]RawPlace, error) {
	ctx, span := c.tracer.Start(ctx, "places.FetchCategory", trace.WithAttributes(
		attribute.String("places.category", q.Category),
		attribute.Int("places.radius", q.RadiusMeters),
	))
	defer span.End()

	results := []RawPlace{}
	if !hasCredential(c.apiKey) {
		c.logger.Error("places api key is empty or missing", "category", q.Category)
		return results, nil
	}

	params := c.initialParams(q)

pages:
	for page := 0; page <= maxContinuations; page++ {
		resp, err := c.fetchPage(ctx, params)
		if err != nil {
			if errors.Is(err, ErrMalformedResponse) {
				span.RecordError(err)
				span.SetStatus(codes.Error, "malformed response")
				return nil, fmt.Errorf("fetch %s page %d: %w", q.Category, page+1, err)
			}
			c.logger.Error("places request failed", "category", q.Category, "page", page+1, "error", err)
			break
		}

		switch resp.Status {
		case StatusOK:
			results = append(results, resp.Results...)
		case StatusZeroResults:
			break pages
		default:
			c.logger.Error("places error",
				"category", q.Category,
				"page", page+1,
				"status", resp.Status,
				"error_message", resp.ErrorMessage,
			)
			break pages
		}

		if resp.NextPageToken == "" || page == maxContinuations {
			break
		}
		if err := c.sleep(ctx, c.pageDelay); err != nil {
			c.logger.Warn("places pagination interrupted", "category", q.Category, "error", err)
			break
		}
		params = url.Values{}
		params.Set("pagetoken", resp.NextPageToken)
		params.Set("key", c.apiKey)
	}

	span.SetAttributes(attribute.Int("places.results", len(results)))
	return results, nil
}

func (c *Client) initialParams(q Query) url.Values {
	radius := q.RadiusMeters
	if radius > c.maxRadius {
		radius = c.maxRadius
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%.6f,%.6f", q.Latitude, q.Longitude))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("type", q.Category)
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	params.Set("key", c.apiKey)
	return params
}

func (c *Client) fetchPage(ctx context.Context, params url.Values) (*NearbySearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create places request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request: %w", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("places http status: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read places response: %w", err)
	}

	var payload NearbySearchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &payload, nil
}

func hasCredential(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.EqualFold(key, "none")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// redactKey strips the credential from transport errors, which embed the request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
