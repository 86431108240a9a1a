package weather

import "time"

// Bucket is the coarse weather class used as an outfit tag.
type Bucket string

const (
	BucketNone Bucket = ""
	BucketHot  Bucket = "hot"
	BucketCold Bucket = "cold"
)

// HotThreshold is the temperature in Celsius at or above which weather is hot.
const HotThreshold = 20.0

// Buckets lists every bucket replenishment generates for.
var Buckets = []Bucket{BucketHot, BucketCold}

// Classify maps a temperature to its bucket.
func Classify(tempC float64) Bucket {
	if tempC >= HotThreshold {
		return BucketHot
	}
	return BucketCold
}

// Source records where an applied bucket came from.
type Source string

const (
	SourceRequest Source = "request"
	SourceAPI     Source = "api"
)

// Reading is returned by a weather provider.
type Reading struct {
	Bucket      Bucket
	Temperature *float64
	City        string
	Country     string
	FetchedAt   time.Time
}

// Info is the weather record echoed back on every recommendation response.
type Info struct {
	Requested   bool     `json:"requested"`
	Applied     bool     `json:"applied"`
	Tag         *string  `json:"tag"`
	Source      *string  `json:"source"`
	Temperature *float64 `json:"temperature"`
	City        *string  `json:"city"`
	Country     *string  `json:"country"`
	FetchedAt   *string  `json:"fetched_at"`
}

// Query describes the caller's weather preference.
type Query struct {
	UseWeather  bool
	Temperature *float64
	City        string
}

// StatusResponse is served by the weather status endpoint.
type StatusResponse struct {
	Status      string   `json:"status"`
	Bucket      *string  `json:"bucket"`
	Temperature *float64 `json:"temperature"`
	City        string   `json:"city"`
	Country     *string  `json:"country"`
	FetchedAt   string   `json:"fetched_at"`
}

// Config controls the resolver.
type Config struct {
	DefaultCity   string
	LookupTimeout time.Duration
}
