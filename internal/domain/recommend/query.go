package recommend

import (
	"strings"

	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
)

// QueryContext is built once per request and never mutated afterwards.
type QueryContext struct {
	Collection       string
	Primary          bool
	BaseTags         []string
	ExpandedTags     []string
	RequiredTags     []string
	PreferredWeather weather.Bucket
	ExcludeNames     map[string]struct{}
	Quantity         int
	MaxCandidates    int
}

func (s *service) buildQuery(req Request, bucket weather.Bucket) QueryContext {
	collection := strings.ToLower(strings.TrimSpace(req.Collection))
	if collection == "" {
		collection = s.cfg.PrimaryCollection
	}
	primary := collection == s.cfg.PrimaryCollection

	base := outfit.NormalizeTags(req.Styles, req.Colours, req.Occasions, req.BodyShapes, req.SkinTones)
	if len(base) == 0 {
		base = append(base, outfit.DefaultTags...)
	}
	if bucket != weather.BucketNone {
		base = outfit.NormalizeTags(base, []string{string(bucket)})
	}

	q := QueryContext{
		Collection:       collection,
		Primary:          primary,
		BaseTags:         base,
		PreferredWeather: bucket,
		ExcludeNames:     make(map[string]struct{}, len(req.ExcludeNames)),
		Quantity:         clampCount(req.ImageCount, s.cfg.DefaultImageCount, s.cfg.MaxImageCount),
	}
	if primary {
		q.ExpandedTags = outfit.ExpandTags(base)
		q.RequiredTags = append([]string(nil), base...)
	}
	for _, name := range req.ExcludeNames {
		if name = strings.TrimSpace(name); name != "" {
			q.ExcludeNames[name] = struct{}{}
		}
	}
	q.MaxCandidates = q.Quantity * s.cfg.CandidateMultiplier
	if q.MaxCandidates < s.cfg.MinCandidates {
		q.MaxCandidates = s.cfg.MinCandidates
	}
	return q
}
