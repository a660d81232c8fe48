package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
)

// Client calls the external location suggestion service over HTTP.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

// NewClient builds a geocoding client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout: timeout,
	}
}

type suggestResponse struct {
	Locations []struct {
		Name          string  `json:"name"`
		Country       string  `json:"country"`
		Admin1        string  `json:"administrativeAreaLevel1"`
		Admin2        string  `json:"administrativeAreaLevel2"`
		Locality      string  `json:"locality"`
		GeoResolution string  `json:"geoResolution"`
		Latitude      float64 `json:"latitude"`
		Longitude     float64 `json:"longitude"`
	} `json:"locations"`
}

// Suggest queries the service for matches at the given resolution. The
// context deadline, when earlier than the client timeout, bounds the request.
func (c *Client) Suggest(ctx context.Context, query string, resolution Resolution) ([]Location, error) {
	uri := fmt.Sprintf("%s/geocode/suggest?q=%s&resolution=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(string(resolution)))

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("geocode: suggest request: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("geocode: suggest returned status %d", resp.StatusCode())
	}

	var parsed suggestResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("geocode: decoding suggest response: %w", err)
	}

	out := make([]Location, 0, len(parsed.Locations))
	for _, loc := range parsed.Locations {
		out = append(out, Location{
			Name:       loc.Name,
			Country:    loc.Country,
			Admin1:     loc.Admin1,
			Admin2:     loc.Admin2,
			Locality:   loc.Locality,
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			Resolution: Resolution(loc.GeoResolution),
		})
	}
	return out, nil
}
