package replenish

import (
	"context"
	"time"
)

// JobName identifies replenishment work on the job queue.
const JobName = "replenish_outfits"

// Job asks for new generated outfits for a preference tag set.
type Job struct {
	Tags      []string `json:"tags"`
	PerBucket int      `json:"perBucket"`
	UserID    string   `json:"userId,omitempty"`
}

// Result summarizes a completed job.
type Result struct {
	Generated int
	Failed    int
}

// Generator turns a text prompt into zero or more image blobs.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([][]byte, error)
}

// Uploader persists bytes and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// JobQueue hands encoded jobs to background workers.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload []byte) error
}

// GenerateRequest drives synchronous generation.
type GenerateRequest struct {
	Styles     []string
	BodyShapes []string
	Occasions  []string
	ImageCount int
}

// GeneratedOutfit is an image produced on demand and returned inline.
type GeneratedOutfit struct {
	Name      string   `json:"name"`
	Image     string   `json:"image"`
	Tags      []string `json:"tags"`
	SourceURL *string  `json:"source_url"`
}

// GenerateResponse is returned by synchronous generation.
type GenerateResponse struct {
	Outfits []GeneratedOutfit `json:"outfits"`
}

// Config controls replenishment behavior.
type Config struct {
	Enabled              bool
	PrimaryCollection    string
	AttemptTimeout       time.Duration
	DefaultGenerateCount int
	MaxGenerateCount     int
}
