package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/outfit-recommender/internal/domain/auth"
	"github.com/yanqian/outfit-recommender/internal/domain/recommend"
	"github.com/yanqian/outfit-recommender/internal/domain/replenish"
	"github.com/yanqian/outfit-recommender/internal/domain/wardrobe"
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
	"github.com/yanqian/outfit-recommender/internal/infra/config"
	"github.com/yanqian/outfit-recommender/internal/infra/wardroberepo"
	apperrors "github.com/yanqian/outfit-recommender/pkg/errors"
)

const testSecret = "router-secret"

func TestRouter_RecommendSuccess(t *testing.T) {
	deps := newRouterDeps()
	deps.recommender.recommendFn = func(ctx context.Context, userID string, req recommend.Request) (recommend.Response, error) {
		require.Empty(t, userID)
		require.Equal(t, []string{"casual"}, req.Styles)
		require.Equal(t, 3, req.ImageCount)
		return recommend.Response{
			Outfits: []recommend.Outfit{{Name: "casual___a.png", Image: "https://cdn.example.com/casual___a.png", Tags: []string{"casual"}}},
		}, nil
	}

	recorder := performRequest(http.MethodPost, "/api/v1/recommendations", `{"style":"casual","image_count":"3"}`, "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got recommend.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Outfits, 1)
	require.Equal(t, "casual___a.png", got.Outfits[0].Name)
	require.False(t, got.UniqueExhausted)
}

func TestRouter_RecommendPassesAuthenticatedUser(t *testing.T) {
	deps := newRouterDeps()
	var seenUser string
	deps.recommender.recommendFn = func(ctx context.Context, userID string, req recommend.Request) (recommend.Response, error) {
		seenUser = userID
		return recommend.Response{Outfits: []recommend.Outfit{}}, nil
	}
	server := newRouterUnderTest(t, deps)

	recorder := performRequest(http.MethodPost, "/api/v1/recommendations", `{}`, issueToken(t, deps.auth, "user-7"), server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "user-7", seenUser)

	recorder = performRequest(http.MethodPost, "/api/v1/recommendations", `{}`, "not-a-jwt", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Empty(t, seenUser)
}

func TestRouter_RecommendInvalidBody(t *testing.T) {
	deps := newRouterDeps()

	for _, body := range []string{`[1,2]`, `{"styles":`, `"casual"`} {
		recorder := performRequest(http.MethodPost, "/api/v1/recommendations", body, "", newRouterUnderTest(t, deps))
		require.Equal(t, http.StatusBadRequest, recorder.Code, body)

		errBody := decodeErrorBody(t, recorder.Body.Bytes())
		require.Equal(t, "invalid_request", errBody["error"]["code"])
		require.NotEmpty(t, errBody["error"]["message"])
	}
	require.Zero(t, deps.recommender.calls)
}

func TestRouter_RecommendFailure(t *testing.T) {
	deps := newRouterDeps()
	deps.recommender.recommendFn = func(ctx context.Context, userID string, req recommend.Request) (recommend.Response, error) {
		return recommend.Response{}, apperrors.Wrap(apperrors.CodeStorageError, "store offline", nil)
	}

	recorder := performRequest(http.MethodPost, "/api/v1/recommendations", `{}`, "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "recommend_failed", errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "store offline")
}

func TestRouter_Generated(t *testing.T) {
	deps := newRouterDeps()
	deps.recommender.generatedFn = func(ctx context.Context, req recommend.Request) (recommend.GeneratedResponse, error) {
		require.Equal(t, []string{"party"}, req.Occasions)
		return recommend.GeneratedResponse{Outfits: []recommend.Outfit{{Name: "GENERATED_party___ai___x.png"}}}, nil
	}

	recorder := performRequest(http.MethodPost, "/api/v1/outfits/generated", `{"occasion":"party"}`, "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got recommend.GeneratedResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Outfits, 1)
}

func TestRouter_GenerateMapsRequest(t *testing.T) {
	deps := newRouterDeps()
	deps.generator.fn = func(ctx context.Context, req replenish.GenerateRequest) (replenish.GenerateResponse, error) {
		require.Equal(t, []string{"boho"}, req.Styles)
		require.Equal(t, []string{"pear"}, req.BodyShapes)
		require.Equal(t, 2, req.ImageCount)
		return replenish.GenerateResponse{Outfits: []replenish.GeneratedOutfit{{Name: "GENERATED_boho___pear___ai___x.png", Image: "data:image/png;base64,AA=="}}}, nil
	}

	recorder := performRequest(http.MethodPost, "/api/v1/outfits/generate", `{"styles":["boho"],"bodyShape":"pear","image_count":2}`, "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string][]map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got["outfits"], 1)
	require.Nil(t, got["outfits"][0]["source_url"])
}

func TestRouter_GenerateUnavailable(t *testing.T) {
	deps := newRouterDeps()
	deps.generator.fn = func(ctx context.Context, req replenish.GenerateRequest) (replenish.GenerateResponse, error) {
		return replenish.GenerateResponse{}, apperrors.Wrap(apperrors.CodeGenerationError, "image generation is not configured", nil)
	}

	recorder := performRequest(http.MethodPost, "/api/v1/outfits/generate", `{}`, "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, apperrors.CodeGenerationError, errBody["error"]["code"])
}

func TestRouter_WeatherStatus(t *testing.T) {
	deps := newRouterDeps()
	temp := 12.5
	bucket := "cold"
	deps.weather.fn = func(ctx context.Context, city string) (weather.StatusResponse, error) {
		require.Equal(t, "Melbourne", city)
		return weather.StatusResponse{Status: "ok", Bucket: &bucket, Temperature: &temp, City: city}, nil
	}

	recorder := performRequest(http.MethodGet, "/api/v1/weather?city=Melbourne", "", "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got weather.StatusResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "ok", got.Status)
	require.Equal(t, "cold", *got.Bucket)
}

func TestRouter_WeatherUnavailable(t *testing.T) {
	deps := newRouterDeps()
	deps.weather.fn = func(ctx context.Context, city string) (weather.StatusResponse, error) {
		return weather.StatusResponse{City: city}, apperrors.Wrap(apperrors.CodeWeatherUnavailable, "weather provider did not return data", nil)
	}

	recorder := performRequest(http.MethodGet, "/api/v1/weather?city=Perth", "", "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	require.JSONEq(t, `{"status":"unavailable","city":"Perth","message":"Weather provider did not return data."}`, recorder.Body.String())
}

func TestRouter_WeatherFailure(t *testing.T) {
	deps := newRouterDeps()
	deps.weather.fn = func(ctx context.Context, city string) (weather.StatusResponse, error) {
		return weather.StatusResponse{}, io.ErrUnexpectedEOF
	}

	recorder := performRequest(http.MethodGet, "/api/v1/weather", "", "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.Equal(t, "weather_failed", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_WardrobeRequiresAuth(t *testing.T) {
	deps := newRouterDeps()
	server := newRouterUnderTest(t, deps)

	recorder := performRequest(http.MethodGet, "/api/v1/wardrobe", "", "", server)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, apperrors.CodeUnauthorized, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = performRequest(http.MethodGet, "/api/v1/wardrobe", "", "not-a-jwt", server)
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Equal(t, apperrors.CodeInvalidToken, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_WardrobeListsUserItems(t *testing.T) {
	deps := newRouterDeps()
	ctx := context.Background()
	require.NoError(t, deps.wardrobe.Add(ctx, wardrobe.Item{ID: "1", UserID: "user-7", Filename: "casual___hot___a.png", ImageURL: "https://cdn.example.com/a.png"}))
	require.NoError(t, deps.wardrobe.Add(ctx, wardrobe.Item{ID: "2", UserID: "someone-else", Filename: "b.png"}))
	server := newRouterUnderTest(t, deps)

	recorder := performRequest(http.MethodGet, "/api/v1/wardrobe", "", issueToken(t, deps.auth, "user-7"), server)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got struct {
		Items []wardrobe.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	require.Equal(t, "casual___hot___a.png", got.Items[0].Filename)

	recorder = performRequest(http.MethodGet, "/api/v1/wardrobe", "", issueToken(t, deps.auth, "new-user"), server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"items":[]}`, recorder.Body.String())
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	server := newRouterUnderTest(t, newRouterDeps())

	recorder := performRequest(http.MethodGet, "/healthz", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())

	recorder = performRequest(http.MethodGet, "/metrics", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "outfits_http_request_duration_seconds")
}

func TestRouter_RateLimit(t *testing.T) {
	deps := newRouterDeps()
	deps.recommender.recommendFn = func(ctx context.Context, userID string, req recommend.Request) (recommend.Response, error) {
		return recommend.Response{}, nil
	}
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	server := NewRouter(cfg, deps.handler(), deps.auth)

	for i := 0; i < 2; i++ {
		recorder := performRequest(http.MethodPost, "/api/v1/recommendations", `{}`, "", server)
		require.Equal(t, http.StatusOK, recorder.Code)
	}
	recorder := performRequest(http.MethodPost, "/api/v1/recommendations", `{}`, "", server)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = performRequest(http.MethodGet, "/healthz", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	deps := newRouterDeps()
	cfg := testConfig()
	cfg.HTTP.AllowedOrigins = []string{"https://shop.example.com"}
	server := NewRouter(cfg, deps.handler(), deps.auth)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestIPRateLimiterCleanup(t *testing.T) {
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(limiterIdleTTL + time.Second)
	limiter.cleanup()
	require.Empty(t, limiter.limiters)

	require.Nil(t, newIPRateLimiter(config.RateLimitConfig{Enabled: false, RequestsPerMinute: 60, Burst: 1}))
}

func performRequest(method, path, body, token string, server *http.Server) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, data []byte) map[string]map[string]string {
	t.Helper()
	var payload map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

type routerDeps struct {
	recommender *stubRecommender
	generator   *stubGenerator
	weather     *stubWeather
	wardrobe    *wardroberepo.MemoryRepository
	auth        auth.Service
}

func newRouterDeps() *routerDeps {
	return &routerDeps{
		recommender: &stubRecommender{},
		generator:   &stubGenerator{},
		weather:     &stubWeather{},
		wardrobe:    wardroberepo.NewMemoryRepository(),
		auth:        auth.NewService(auth.Config{Secret: testSecret, TokenTTL: time.Hour}, newTestLogger()),
	}
}

func (d *routerDeps) handler() *Handler {
	return NewHandler(d.recommender, d.generator, d.weather, d.wardrobe, newTestLogger())
}

func newRouterUnderTest(t *testing.T, deps *routerDeps) *http.Server {
	t.Helper()
	return NewRouter(testConfig(), deps.handler(), deps.auth)
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
}

func issueToken(t *testing.T, svc auth.Service, userID string) string {
	t.Helper()
	token, err := svc.Issue(context.Background(), userID)
	require.NoError(t, err)
	return token
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubRecommender struct {
	recommendFn func(ctx context.Context, userID string, req recommend.Request) (recommend.Response, error)
	generatedFn func(ctx context.Context, req recommend.Request) (recommend.GeneratedResponse, error)
	calls       int
}

func (s *stubRecommender) Recommend(ctx context.Context, userID string, req recommend.Request) (recommend.Response, error) {
	s.calls++
	if s.recommendFn != nil {
		return s.recommendFn(ctx, userID, req)
	}
	return recommend.Response{}, nil
}

func (s *stubRecommender) Generated(ctx context.Context, req recommend.Request) (recommend.GeneratedResponse, error) {
	s.calls++
	if s.generatedFn != nil {
		return s.generatedFn(ctx, req)
	}
	return recommend.GeneratedResponse{}, nil
}

type stubGenerator struct {
	fn func(ctx context.Context, req replenish.GenerateRequest) (replenish.GenerateResponse, error)
}

func (s *stubGenerator) GenerateNow(ctx context.Context, req replenish.GenerateRequest) (replenish.GenerateResponse, error) {
	if s.fn != nil {
		return s.fn(ctx, req)
	}
	return replenish.GenerateResponse{}, nil
}

type stubWeather struct {
	fn func(ctx context.Context, city string) (weather.StatusResponse, error)
}

func (s *stubWeather) Status(ctx context.Context, city string) (weather.StatusResponse, error) {
	if s.fn != nil {
		return s.fn(ctx, city)
	}
	return weather.StatusResponse{Status: "ok", City: city}, nil
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.AllowedOrigins = []string{"https://shop.example.com"}
	deps := newRouterDeps()
	server := NewRouter(cfg, deps.handler(), deps.auth)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestFromAppError(t *testing.T) {
	httpErr := fromAppError(apperrors.Wrap(apperrors.CodeInvalidInput, "bad", nil), "fallback")
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Equal(t, apperrors.CodeInvalidInput, httpErr.Code)

	httpErr = fromAppError(io.ErrUnexpectedEOF, "fallback")
	require.Equal(t, http.StatusInternalServerError, httpErr.Status)
	require.Equal(t, "fallback", httpErr.Code)
}
