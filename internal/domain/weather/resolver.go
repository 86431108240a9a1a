package weather

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/outfit-recommender/pkg/errors"
	"github.com/yanqian/outfit-recommender/pkg/metrics"
)

const (
	defaultCity          = "Sydney"
	defaultLookupTimeout = 5 * time.Second
)

// Provider looks up current conditions for a city.
type Provider interface {
	Current(ctx context.Context, city string) (Reading, error)
}

// Resolver decides the active weather bucket for a request.
type Resolver struct {
	cfg      Config
	provider Provider
	logger   *slog.Logger
}

// NewResolver wires a resolver. A nil provider behaves as permanently unavailable.
func NewResolver(cfg Config, provider Provider, logger *slog.Logger) *Resolver {
	if strings.TrimSpace(cfg.DefaultCity) == "" {
		cfg.DefaultCity = defaultCity
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = defaultLookupTimeout
	}
	return &Resolver{cfg: cfg, provider: provider, logger: logger.With("component", "weather.resolver")}
}

// Resolve returns the bucket to filter on (BucketNone when weather is not
// applied) and the info record for the response. Provider failures never
// surface as errors.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Bucket, Info) {
	city := strings.TrimSpace(q.City)
	info := Info{Requested: q.UseWeather, City: optional(city)}
	if !q.UseWeather {
		return BucketNone, info
	}

	if q.Temperature != nil {
		bucket := Classify(*q.Temperature)
		temp := *q.Temperature
		info.Applied = true
		info.Tag = optional(string(bucket))
		info.Source = optional(string(SourceRequest))
		info.Temperature = &temp
		metrics.WeatherLookupsTotal.WithLabelValues(string(SourceRequest), "applied").Inc()
		return bucket, info
	}

	if city == "" {
		city = r.cfg.DefaultCity
	}
	reading, err := r.lookup(ctx, city)
	if err != nil {
		r.logger.Warn("weather lookup unavailable", "city", city, "error", err)
		metrics.WeatherLookupsTotal.WithLabelValues(string(SourceAPI), "unavailable").Inc()
		return BucketNone, info
	}

	if reading.Bucket != BucketNone {
		info.Applied = true
		info.Tag = optional(string(reading.Bucket))
		info.Source = optional(string(SourceAPI))
		info.Temperature = reading.Temperature
		metrics.WeatherLookupsTotal.WithLabelValues(string(SourceAPI), "applied").Inc()
	} else {
		metrics.WeatherLookupsTotal.WithLabelValues(string(SourceAPI), "no_bucket").Inc()
	}
	if resolved := firstNonEmpty(reading.City, city); resolved != "" {
		info.City = optional(resolved)
	}
	info.Country = optional(reading.Country)
	if !reading.FetchedAt.IsZero() {
		info.FetchedAt = optional(formatTimestamp(reading.FetchedAt))
	}
	return reading.Bucket, info
}

// Status reports current conditions for the status endpoint.
func (r *Resolver) Status(ctx context.Context, city string) (StatusResponse, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		city = r.cfg.DefaultCity
	}
	reading, err := r.lookup(ctx, city)
	if err != nil {
		return StatusResponse{City: city}, apperrors.Wrap(apperrors.CodeWeatherUnavailable, "weather provider did not return data", err)
	}
	resp := StatusResponse{
		Status:      "ok",
		Temperature: reading.Temperature,
		City:        firstNonEmpty(reading.City, city),
		Country:     optional(reading.Country),
	}
	if reading.Bucket == BucketNone {
		resp.Status = "no_bucket"
	} else {
		resp.Bucket = optional(string(reading.Bucket))
	}
	if !reading.FetchedAt.IsZero() {
		resp.FetchedAt = formatTimestamp(reading.FetchedAt)
	}
	return resp, nil
}

func (r *Resolver) lookup(ctx context.Context, city string) (Reading, error) {
	if r.provider == nil {
		return Reading{}, apperrors.Wrap(apperrors.CodeWeatherUnavailable, "weather provider not configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()
	return r.provider.Current(ctx, city)
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
