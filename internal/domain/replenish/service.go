package replenish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
	"github.com/yanqian/outfit-recommender/internal/domain/wardrobe"
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
	apperrors "github.com/yanqian/outfit-recommender/pkg/errors"
	"github.com/yanqian/outfit-recommender/pkg/metrics"
	"github.com/yanqian/outfit-recommender/pkg/util"
)

const (
	defaultAttemptTimeout = 90 * time.Second
	suffixLength          = 6
	tagSeparator          = "___"
	generatedPrefix       = "GENERATED_"
)

// Service grows the image store with generated outfits.
type Service struct {
	cfg       Config
	store     outfit.Store
	generator Generator
	uploader  Uploader
	wardrobe  wardrobe.Repository
	queue     JobQueue
	logger    *slog.Logger
	now       func() time.Time
	suffix    func() string
	shuffle   func(n int, swap func(i, j int))
}

// NewService wires the replenishment workflow. The generator and queue may be
// nil, in which case background replenishment is disabled.
func NewService(cfg Config, store outfit.Store, generator Generator, uploader Uploader, wardrobeRepo wardrobe.Repository, queue JobQueue, logger *slog.Logger) *Service {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	if cfg.PrimaryCollection == "" {
		cfg.PrimaryCollection = "images"
	}
	if cfg.DefaultGenerateCount <= 0 {
		cfg.DefaultGenerateCount = 4
	}
	if cfg.MaxGenerateCount <= 0 {
		cfg.MaxGenerateCount = 8
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		generator: generator,
		uploader:  uploader,
		wardrobe:  wardrobeRepo,
		queue:     queue,
		logger:    logger.With("component", "replenish.service"),
		now:       util.NowUTC,
		suffix:    func() string { return util.RandomSuffix(suffixLength) },
		shuffle:   rand.Shuffle,
	}
}

// Trigger schedules a background job and returns immediately. The job is
// detached from ctx so request cancellation never reaches it.
func (s *Service) Trigger(ctx context.Context, job Job) {
	if !s.cfg.Enabled || s.queue == nil || s.generator == nil {
		return
	}
	payload, err := json.Marshal(job)
	if err != nil {
		s.logger.Error("encode replenish job failed", "error", err)
		return
	}
	if err := s.queue.Enqueue(context.WithoutCancel(ctx), JobName, payload); err != nil {
		metrics.ReplenishJobsTotal.WithLabelValues("dropped").Inc()
		s.logger.Warn("enqueue replenish job failed", "error", err, "tags", job.Tags)
		return
	}
	metrics.ReplenishJobsTotal.WithLabelValues("enqueued").Inc()
}

// Handle decodes a queued job and runs it; it is the queue's handler.
func (s *Service) Handle(ctx context.Context, name string, payload []byte) {
	if name != JobName {
		s.logger.Warn("unknown job dropped", "name", name)
		return
	}
	var job Job
	if err := json.Unmarshal(payload, &job); err != nil {
		s.logger.Warn("decode replenish job failed", "error", err)
		return
	}
	res := s.Run(ctx, job)
	metrics.ReplenishJobsTotal.WithLabelValues("completed").Inc()
	s.logger.Info("replenish job finished", "tags", job.Tags, "generated", res.Generated, "failed", res.Failed)
}

// Run generates up to PerBucket images for every weather bucket. A failed
// attempt is logged and the loop continues.
func (s *Service) Run(ctx context.Context, job Job) Result {
	var res Result
	if s.generator == nil {
		return res
	}
	tags := jobTags(job.Tags)
	query := strings.Join(tags, " ")

	for _, bucket := range weather.Buckets {
		for attempt := 0; attempt < job.PerBucket; attempt++ {
			prompt := fmt.Sprintf("%s women's fashion single outfit flatlay, high quality, white background, %s style", query, bucket)
			stored, err := s.attempt(ctx, tags, bucket, prompt, job.UserID)
			res.Generated += stored
			if err != nil {
				res.Failed++
				metrics.ReplenishAttemptsTotal.WithLabelValues(string(bucket), "failed").Inc()
				s.logger.Warn("replenish attempt failed", "bucket", bucket, "attempt", attempt+1, "query", query, "error", err)
				continue
			}
			metrics.ReplenishAttemptsTotal.WithLabelValues(string(bucket), "ok").Inc()
		}
	}
	return res
}

func (s *Service) attempt(ctx context.Context, tags []string, bucket weather.Bucket, prompt, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()

	blobs, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeGenerationError, "generate image", err)
	}
	docTags := outfit.NormalizeTags(tags, []string{string(bucket)})
	stored := 0
	var lastErr error
	for _, blob := range blobs {
		name, format, err := s.objectName(tags, string(bucket), blob)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := s.persist(ctx, name, format, blob, docTags, userID); err != nil {
			lastErr = err
			s.logger.Warn("persist generated image failed", "filename", name, "error", err)
			continue
		}
		stored++
	}
	if stored == 0 && lastErr != nil {
		return 0, lastErr
	}
	return stored, nil
}

// persist uploads the blob, records the document and, for known users, the
// wardrobe entry.
func (s *Service) persist(ctx context.Context, name string, format blobFormat, blob []byte, tags []string, userID string) (string, error) {
	if s.uploader == nil {
		return "", apperrors.Wrap(apperrors.CodeStorageError, "uploader not configured", nil)
	}
	url, err := s.uploader.Upload(ctx, name, blob, format.contentType)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeStorageError, "upload generated image", err)
	}
	if strings.Contains(strings.ToLower(name), "womenswear") {
		tags = outfit.NormalizeTags(tags, []string{"womenswear"})
	}
	doc := outfit.Document{
		ID:             uuid.NewString(),
		Collection:     s.cfg.PrimaryCollection,
		Filename:       name,
		Tags:           tags,
		Images:         outfit.Images{Full: url, Thumbnail: url},
		SourceURL:      url,
		SearchFilename: generatedPrefix + name,
		IsAI:           true,
		UserID:         userID,
		CreatedAt:      s.now(),
	}
	if err := s.store.Insert(ctx, doc); err != nil {
		return "", apperrors.Wrap(apperrors.CodeStorageError, "save generated metadata", err)
	}
	if userID != "" && s.wardrobe != nil {
		item := wardrobe.Item{
			ID:       uuid.NewString(),
			UserID:   userID,
			Filename: name,
			ImageURL: url,
			Tags:     tags,
			SavedAt:  s.now(),
		}
		if err := s.wardrobe.Add(ctx, item); err != nil {
			s.logger.Warn("save generated image to wardrobe failed", "user_id", userID, "filename", name, "error", err)
		}
	}
	return url, nil
}

// GenerateNow produces images synchronously and returns them inline. Each
// image is also persisted on a best-effort basis.
func (s *Service) GenerateNow(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if s.generator == nil {
		return GenerateResponse{}, apperrors.Wrap(apperrors.CodeGenerationError, "image generation is not configured", nil)
	}
	count := req.ImageCount
	switch {
	case count == 0:
		count = s.cfg.DefaultGenerateCount
	case count < 1:
		count = 1
	case count > s.cfg.MaxGenerateCount:
		count = s.cfg.MaxGenerateCount
	}

	tokens := promptTokens(req)
	query := strings.Join(tokens, " ")

	outfits := make([]GeneratedOutfit, 0, count)
	for i := 0; i < count; i++ {
		prompt := fmt.Sprintf("%s women's fashion single outfit flatlay, high quality, white background, different accessories, variation %d", query, i+1)
		blob, format, err := s.generateOne(ctx, prompt)
		if err != nil {
			s.logger.Warn("on-demand generation failed", "variation", i+1, "error", err)
			continue
		}
		name := strings.Join(tokens, tagSeparator) + tagSeparator + "ai" + tagSeparator + s.suffix() + "." + format.ext
		outfits = append(outfits, GeneratedOutfit{
			Name:  generatedPrefix + name,
			Image: "data:" + format.contentType + ";base64," + base64.StdEncoding.EncodeToString(blob),
			Tags:  tokens,
		})
		if _, err := s.persist(ctx, name, format, blob, tokens, ""); err != nil {
			s.logger.Warn("persist on-demand image failed", "filename", name, "error", err)
		}
	}

	s.shuffle(len(outfits), func(i, j int) { outfits[i], outfits[j] = outfits[j], outfits[i] })
	return GenerateResponse{Outfits: outfits}, nil
}

func (s *Service) generateOne(ctx context.Context, prompt string) ([]byte, blobFormat, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()
	blobs, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, blobFormat{}, err
	}
	for _, blob := range blobs {
		if format, err := sniffImage(blob); err == nil {
			return blob, format, nil
		}
	}
	return nil, blobFormat{}, errNotImage
}

func (s *Service) objectName(tags []string, bucket string, blob []byte) (string, blobFormat, error) {
	format, err := sniffImage(blob)
	if err != nil {
		return "", blobFormat{}, err
	}
	slug := strings.Join(tags, tagSeparator)
	if slug == "" {
		slug = "outfit"
	}
	return slug + tagSeparator + bucket + tagSeparator + s.suffix() + "." + format.ext, format, nil
}

// jobTags normalizes the job tags and strips weather buckets; every generated
// document is tagged with the bucket it was generated for instead.
func jobTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, tag := range outfit.NormalizeTags(raw) {
		if tag == string(weather.BucketHot) || tag == string(weather.BucketCold) {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		tags = append(tags, outfit.DefaultTags...)
	}
	return tags
}

func promptTokens(req GenerateRequest) []string {
	style := firstOr(outfit.NormalizeTags(req.Styles), "casual")
	body := firstOr(outfit.NormalizeTags(req.BodyShapes), "womenswear")
	tokens := []string{style, body}
	if occasions := outfit.NormalizeTags(req.Occasions); len(occasions) > 0 {
		tokens = append(tokens, occasions[0])
	}
	return tokens
}

func firstOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[0]
}
