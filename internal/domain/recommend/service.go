package recommend

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
	"github.com/yanqian/outfit-recommender/internal/domain/replenish"
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
	"github.com/yanqian/outfit-recommender/pkg/metrics"
)

// Service exposes outfit recommendation use cases.
type Service interface {
	Recommend(ctx context.Context, userID string, req Request) (Response, error)
	Generated(ctx context.Context, req Request) (GeneratedResponse, error)
}

// WeatherResolver turns a request's weather inputs into a bucket.
type WeatherResolver interface {
	Resolve(ctx context.Context, q weather.Query) (weather.Bucket, weather.Info)
}

// Replenisher schedules background generation without blocking.
type Replenisher interface {
	Trigger(ctx context.Context, job replenish.Job)
}

type service struct {
	cfg         Config
	store       outfit.Store
	resolver    WeatherResolver
	replenisher Replenisher
	logger      *slog.Logger
	shuffle     func(n int, swap func(i, j int))
}

// NewService constructs the recommender. replenisher may be nil.
func NewService(cfg Config, store outfit.Store, resolver WeatherResolver, replenisher Replenisher, logger *slog.Logger) Service {
	return &service{
		cfg:         cfg.withDefaults(),
		store:       store,
		resolver:    resolver,
		replenisher: replenisher,
		logger:      logger.With("component", "recommend.service"),
		shuffle:     rand.Shuffle,
	}
}

func (s *service) Recommend(ctx context.Context, userID string, req Request) (Response, error) {
	bucket, info := s.resolver.Resolve(ctx, weather.Query{
		UseWeather:  req.UseWeather,
		Temperature: req.Temperature,
		City:        req.City,
	})
	q := s.buildQuery(req, bucket)

	a := newAssembly(q, s.cfg.PublicURLBase)
	s.runTiers(ctx, a)

	outfits := a.outfits
	s.shuffle(len(outfits), func(i, j int) { outfits[i], outfits[j] = outfits[j], outfits[i] })
	if len(outfits) > q.Quantity {
		outfits = outfits[:q.Quantity]
	}
	if a.uniqueExhausted {
		metrics.RecommendUniqueExhaustedTotal.Inc()
	}

	if s.replenisher != nil && q.Primary && len(q.BaseTags) > 0 {
		perBucket := q.Quantity
		if perBucket > s.cfg.ReplenishPerBucket {
			perBucket = s.cfg.ReplenishPerBucket
		}
		s.replenisher.Trigger(ctx, replenish.Job{Tags: q.BaseTags, PerBucket: perBucket, UserID: userID})
	}

	s.logger.Debug("recommendation assembled",
		"collection", q.Collection,
		"tags", q.BaseTags,
		"weather", string(bucket),
		"requested", q.Quantity,
		"returned", len(outfits),
		"unique_exhausted", a.uniqueExhausted,
	)
	return Response{Outfits: outfits, UniqueExhausted: a.uniqueExhausted, Weather: info}, nil
}

// runTiers evaluates tierPlan in order until the quota is met. A store
// failure empties that tier only; a cancelled context stops the loop.
func (s *service) runTiers(ctx context.Context, a *assembly) {
	for _, t := range tierPlan {
		if a.full() {
			return
		}
		if ctx.Err() != nil {
			s.logger.Warn("recommendation cancelled", "tier", t.name, "error", ctx.Err())
			return
		}
		if t.allowRepeat {
			a.uniqueExhausted = true
		}
		metrics.RecommendTiersTotal.WithLabelValues(t.name).Inc()

		docs, err := s.store.Find(ctx, a.q.Collection, t.filter(a.q, a), a.q.MaxCandidates)
		if err != nil {
			metrics.RecommendStoreErrorsTotal.WithLabelValues(t.name).Inc()
			s.logger.Warn("store query failed", "tier", t.name, "collection", a.q.Collection, "error", err)
			continue
		}
		for _, doc := range docs {
			if a.full() {
				break
			}
			a.admit(doc, t.allowRepeat)
		}
	}
}

// Generated lists the newest generated outfits related to the preferences.
func (s *service) Generated(ctx context.Context, req Request) (GeneratedResponse, error) {
	keywords := outfit.NormalizeTags(req.Styles, req.Colours, req.Occasions, req.BodyShapes, req.SkinTones)
	if len(keywords) == 0 {
		keywords = outfit.NormalizeTags(outfit.DefaultTags, []string{"outfit"})
	}
	filter := outfit.Filter{AnyTags: outfit.ExpandTags(keywords), OnlyAI: true}

	docs, err := s.store.Find(ctx, s.cfg.PrimaryCollection, filter, s.cfg.GeneratedLimit)
	if err != nil {
		s.logger.Warn("generated listing failed", "error", err)
		return GeneratedResponse{Outfits: []Outfit{}}, nil
	}

	outfits := make([]Outfit, 0, len(docs))
	for _, doc := range docs {
		url := doc.ResolveURL(s.cfg.PublicURLBase)
		if url == "" {
			continue
		}
		tags := doc.Tags
		if tags == nil {
			tags = []string{}
		}
		source := doc.SourceURL
		if source == "" {
			source = url
		}
		outfits = append(outfits, Outfit{Name: doc.Filename, Image: url, Tags: tags, SourceURL: source})
	}
	return GeneratedResponse{Outfits: outfits}, nil
}
