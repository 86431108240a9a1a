package recommend

import (
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
)

// Request captures the preference payload accepted by the recommender.
type Request struct {
	Styles       []string
	Colours      []string
	Occasions    []string
	BodyShapes   []string
	SkinTones    []string
	Temperature  *float64
	City         string
	UseWeather   bool
	Collection   string
	ImageCount   int
	ExcludeNames []string
}

// Outfit is a single emitted recommendation.
type Outfit struct {
	Name      string   `json:"name"`
	Image     string   `json:"image"`
	Tags      []string `json:"tags"`
	SourceURL string   `json:"source_url"`
}

// Response is serialized back to API consumers.
type Response struct {
	Outfits         []Outfit     `json:"outfits"`
	UniqueExhausted bool         `json:"uniqueExhausted"`
	Weather         weather.Info `json:"weather"`
}

// GeneratedResponse lists previously generated outfits.
type GeneratedResponse struct {
	Outfits []Outfit `json:"outfits"`
}

// MaxImageCount bounds every response regardless of request or configuration.
const MaxImageCount = 20

// Config wires runtime settings for the recommender.
type Config struct {
	PrimaryCollection   string
	PublicURLBase       string
	DefaultImageCount   int
	MaxImageCount       int
	CandidateMultiplier int
	MinCandidates       int
	GeneratedLimit      int
	ReplenishPerBucket  int
}

func (c Config) withDefaults() Config {
	if c.PrimaryCollection == "" {
		c.PrimaryCollection = "images"
	}
	if c.DefaultImageCount <= 0 {
		c.DefaultImageCount = 4
	}
	if c.MaxImageCount <= 0 || c.MaxImageCount > MaxImageCount {
		c.MaxImageCount = MaxImageCount
	}
	if c.DefaultImageCount > c.MaxImageCount {
		c.DefaultImageCount = c.MaxImageCount
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 4
	}
	if c.MinCandidates <= 0 {
		c.MinCandidates = 32
	}
	if c.GeneratedLimit <= 0 {
		c.GeneratedLimit = 20
	}
	if c.ReplenishPerBucket <= 0 {
		c.ReplenishPerBucket = 2
	}
	return c
}
