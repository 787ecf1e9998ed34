// Package gmaps is a thin client for the Google Maps web service APIs:
// geocoding, directions, and static map images. It translates API status
// codes into the domain error taxonomy; caching and retry live in the
// service layer, not here.
package gmaps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

const defaultBaseURL = "https://maps.googleapis.com"

// pngMagic is the first bytes of any valid PNG file. The Static Maps API
// returns error text with a 200 status in some failure modes, so the body
// is checked rather than trusted.
var pngMagic = []byte("\x89PNG")

// Client calls the Google Maps web service APIs.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API host. Tests point this at an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient constructs a Client. The API key must be non-empty; its
// absence is a fatal startup condition checked by config loading.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode resolves a free-text address or place name to a formatted
// address with coordinates. Returns domain.ErrPlaceNotFound when the API
// has no result for the query.
func (c *Client) Geocode(ctx context.Context, query string) (domain.Address, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("language", "zh-TW")
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.getJSON(ctx, "/maps/api/geocode/json", params, &resp); err != nil {
		return domain.Address{}, fmt.Errorf("gmaps.Geocode: %w", err)
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults:
		return domain.Address{}, fmt.Errorf("gmaps.Geocode %q: %w", query, domain.ErrPlaceNotFound)
	default:
		return domain.Address{}, fmt.Errorf("gmaps.Geocode %q: %w", query, statusError(resp.Status, resp.ErrorMessage))
	}

	if len(resp.Results) == 0 {
		return domain.Address{}, fmt.Errorf("gmaps.Geocode %q: %w", query, domain.ErrPlaceNotFound)
	}

	first := resp.Results[0]
	return domain.Address{
		Name:      query,
		Formatted: first.FormattedAddress,
		Lat:       first.Geometry.Location.Lat,
		Lng:       first.Geometry.Location.Lng,
	}, nil
}

// Directions computes the primary route between two addresses.
// mode is a travel mode accepted by the API ("driving" or "transit").
func (c *Client) Directions(ctx context.Context, origin, destination, mode string) (Route, error) {
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("mode", mode)
	params.Set("language", "zh-TW")
	params.Set("alternatives", "true")
	params.Set("key", c.apiKey)

	var resp directionsResponse
	if err := c.getJSON(ctx, "/maps/api/directions/json", params, &resp); err != nil {
		return Route{}, fmt.Errorf("gmaps.Directions: %w", err)
	}

	switch resp.Status {
	case statusOK:
	case statusNotFound:
		// At least one endpoint failed to geocode, a data problem, not
		// a transient fault.
		return Route{}, fmt.Errorf("gmaps.Directions %s -> %s: %w", origin, destination, domain.ErrPlaceNotFound)
	default:
		return Route{}, fmt.Errorf("gmaps.Directions %s -> %s: %w", origin, destination, statusError(resp.Status, resp.ErrorMessage))
	}

	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("gmaps.Directions %s -> %s: empty route: %w", origin, destination, domain.ErrRouteUnavailable)
	}

	main := resp.Routes[0]
	leg := main.Legs[0]

	route := Route{
		DistanceMeters:  leg.Distance.Value,
		DurationSeconds: leg.Duration.Value,
		Polyline:        main.OverviewPolyline.Points,
	}
	for _, alt := range resp.Routes[1:] {
		if alt.OverviewPolyline.Points != "" {
			route.AlternativePolylines = append(route.AlternativePolylines, alt.OverviewPolyline.Points)
		}
	}
	return route, nil
}

// StaticMap fetches a PNG route map: the main polyline in blue,
// alternatives in grey, origin marked A and destination marked B.
// Returns domain.ErrMapUnavailable when no valid image can be fetched.
func (c *Client) StaticMap(ctx context.Context, req StaticMapRequest) ([]byte, error) {
	params := url.Values{}
	params.Set("size", "1200x800")
	params.Set("maptype", "roadmap")
	params.Set("format", "png")
	params.Set("key", c.apiKey)
	params.Add("path", fmt.Sprintf("color:0x4285F4|weight:6|enc:%s", req.Polyline))
	for _, alt := range req.AlternativePolylines {
		params.Add("path", fmt.Sprintf("color:0x808080|weight:4|enc:%s", alt))
	}
	params.Add("markers", fmt.Sprintf("color:0xFF0000|label:A|%f,%f", req.Origin.Lat, req.Origin.Lng))
	params.Add("markers", fmt.Sprintf("color:0xFF0000|label:B|%f,%f", req.Destination.Lat, req.Destination.Lng))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/maps/api/staticmap?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gmaps.StaticMap: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gmaps.StaticMap: %w: %w", domain.ErrMapUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gmaps.StaticMap: HTTP %d: %w", resp.StatusCode, domain.ErrMapUnavailable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gmaps.StaticMap: read body: %w: %w", domain.ErrMapUnavailable, err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, fmt.Errorf("gmaps.StaticMap: response is not a PNG: %w", domain.ErrMapUnavailable)
	}
	return data, nil
}

// getJSON performs a GET request and decodes the JSON response body.
// Network errors and 5xx responses map to domain.ErrRouteUnavailable so
// the retry policy treats them as transient.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("HTTP %d: %w", resp.StatusCode, domain.ErrRouteUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps a non-OK API status string to a domain error.
func statusError(status, message string) error {
	switch status {
	case statusOverQueryLimit, statusOverDailyLimit:
		return fmt.Errorf("%s: %w", status, domain.ErrQuotaExceeded)
	case statusZeroResults:
		return fmt.Errorf("no route between endpoints: %w", domain.ErrRouteUnavailable)
	default:
		if message != "" {
			return fmt.Errorf("%s (%s): %w", status, message, domain.ErrRouteUnavailable)
		}
		return fmt.Errorf("%s: %w", status, domain.ErrRouteUnavailable)
	}
}
