package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/outfit-recommender/internal/domain/weather"
)

const defaultBaseURL = "https://api.weatherapi.com/v1"

// ErrMissingAPIKey is returned when the client has no key configured.
var ErrMissingAPIKey = errors.New("weatherapi key not configured")

// Client fetches current conditions from weatherapi.com.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient builds an API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(url, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Current implements weather.Provider.
func (c *Client) Current(ctx context.Context, city string) (weather.Reading, error) {
	if c.apiKey == "" {
		return weather.Reading{}, ErrMissingAPIKey
	}
	endpoint := fmt.Sprintf("%s/current.json?key=%s&q=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(city))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return weather.Reading{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return weather.Reading{}, fmt.Errorf("weather request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&raw); err != nil {
		return weather.Reading{}, fmt.Errorf("decode weather response: %w", err)
	}
	return normalize(raw, c.now()), nil
}

type apiResponse struct {
	Location apiLocation `json:"location"`
	Current  apiCurrent  `json:"current"`
}

type apiLocation struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type apiCurrent struct {
	TempC *float64 `json:"temp_c"`
}

// normalize maps the payload to a reading; a missing temperature yields no bucket.
func normalize(raw apiResponse, fetchedAt time.Time) weather.Reading {
	reading := weather.Reading{
		City:      strings.TrimSpace(raw.Location.Name),
		Country:   strings.TrimSpace(raw.Location.Country),
		FetchedAt: fetchedAt,
	}
	if raw.Current.TempC != nil {
		temp := *raw.Current.TempC
		reading.Temperature = &temp
		reading.Bucket = weather.Classify(temp)
	}
	return reading
}
