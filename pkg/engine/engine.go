package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/veil/pkg/consolidate"
	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/pii"
	"github.com/platinummonkey/veil/pkg/redact"
	"github.com/platinummonkey/veil/pkg/verify"
)

// Config holds the engine tuning knobs. The overlap threshold and confidence
// boost default to the consolidator's constants; they are exposed here
// because their values are operational choices, not derived quantities.
type Config struct {
	OverlapThreshold float64
	ConfidenceBoost  float64
	MaxVerifyRetries int
	MaskRune         rune
	// AnonymizeSeed seeds the synthetic-value generator; zero picks a
	// random seed per engine.
	AnonymizeSeed int64

	// CacheSize and CacheTTL bound the in-process detection cache.
	CacheSize int
	CacheTTL  time.Duration

	// BatchConcurrency bounds RedactBatch workers.
	BatchConcurrency int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		OverlapThreshold: consolidate.DefaultOverlapThreshold,
		ConfidenceBoost:  consolidate.DefaultConfidenceBoost,
		MaxVerifyRetries: verify.DefaultMaxRetries,
		MaskRune:         redact.DefaultMaskRune,
		CacheSize:        1024,
		CacheTTL:         5 * time.Minute,
		BatchConcurrency: 8,
	}
}

// Result is the outcome of one text redaction.
type Result struct {
	RedactedText string                 `json:"redacted_text"`
	Entities     []pii.Entity           `json:"entities"`
	Audit        []pii.AuditRecord      `json:"audit"`
	Verification pii.VerificationResult `json:"verification"`
	Stats        consolidate.Stats      `json:"stats"`
	ProcessingMS int64                  `json:"processing_time_ms"`
}

// Engine wires detectors, the consolidator, the applicator and the verifier.
// It is safe for concurrent use.
type Engine struct {
	cfg        Config
	detectors  []pii.Detector
	merger     *consolidate.Merger
	applicator *redact.Applicator
	verifier   *verify.Verifier

	cache    *lru.LRU[string, []pii.Entity]
	redis    *redis.Client
	redisTTL time.Duration

	logger *observability.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *observability.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRedis layers a Redis read-through cache over the in-process one, for
// deployments running several engine instances against the same traffic.
func WithRedis(client *redis.Client, ttl time.Duration) Option {
	return func(e *Engine) {
		e.redis = client
		e.redisTTL = ttl
	}
}

// New builds an Engine over the given detectors. An empty detector list is
// valid: detection then always returns an empty set and redaction becomes a
// pass-through, which is the documented degraded mode when every sidecar is
// down.
func New(cfg Config, detectors []pii.Detector, opts ...Option) *Engine {
	if cfg.OverlapThreshold == 0 {
		cfg.OverlapThreshold = consolidate.DefaultOverlapThreshold
	}
	if cfg.ConfidenceBoost == 0 {
		cfg.ConfidenceBoost = consolidate.DefaultConfidenceBoost
	}
	if cfg.MaxVerifyRetries == 0 {
		cfg.MaxVerifyRetries = verify.DefaultMaxRetries
	}
	if cfg.MaskRune == 0 {
		cfg.MaskRune = redact.DefaultMaskRune
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 8
	}

	applicator := redact.NewApplicator()
	if cfg.AnonymizeSeed != 0 {
		applicator = redact.NewApplicatorWithSeed(cfg.AnonymizeSeed)
	}
	applicator.MaskRune = cfg.MaskRune

	e := &Engine{
		cfg:       cfg,
		detectors: detectors,
		merger: &consolidate.Merger{
			OverlapThreshold: cfg.OverlapThreshold,
			ConfidenceBoost:  cfg.ConfidenceBoost,
		},
		applicator: applicator,
		cache:      lru.NewLRU[string, []pii.Entity](cfg.CacheSize, nil, cfg.CacheTTL),
	}
	for _, opt := range opts {
		opt(e)
	}

	verifyOpts := []verify.Option{
		verify.WithMaxRetries(cfg.MaxVerifyRetries),
		verify.WithMaskRune(cfg.MaskRune),
	}
	if e.logger != nil {
		verifyOpts = append(verifyOpts, verify.WithLogger(e.logger))
	}
	e.verifier = verify.NewVerifier(detectors, verifyOpts...)

	return e
}

// Name implements pii.Detector, letting media pipelines consume the full
// consolidated engine through the same narrow interface as any single
// detector.
func (e *Engine) Name() string { return "engine" }

// Detect implements pii.Detector.
func (e *Engine) Detect(ctx context.Context, text string) ([]pii.Entity, error) {
	return e.DetectText(ctx, text)
}

// DetectText runs every registered detector over the text and merges the
// results. A failing detector is logged and contributes an empty list;
// partial-engine operation degrades recall, never availability. Malformed
// spans are dropped individually at the boundary.
func (e *Engine) DetectText(ctx context.Context, text string) ([]pii.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(text)
	if cached, ok := e.cacheGet(ctx, key); ok {
		return pii.CloneEntities(cached), nil
	}

	// Detectors run concurrently; network-backed ones dominate latency.
	// Only cancellation aborts the group, a failing detector just leaves
	// its slot empty.
	lists := make([][]pii.Entity, len(e.detectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range e.detectors {
		i, d := i, d
		g.Go(func() error {
			found, err := d.Detect(gctx, text)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.log().WithError(err).WithField("detector", d.Name()).
					Warn("detector failed, continuing without it")
				return nil
			}
			valid, dropped := pii.FilterValid(found, len(text))
			if len(dropped) > 0 {
				e.log().WithFields(map[string]interface{}{
					"detector": d.Name(),
					"dropped":  len(dropped),
				}).Warn("dropped malformed entity spans")
			}
			lists[i] = valid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := e.merger.Merge(lists...)
	e.cachePut(ctx, key, merged)
	return pii.CloneEntities(merged), nil
}

// RedactText runs the full pipeline: detect, consolidate, redact, verify.
func (e *Engine) RedactText(ctx context.Context, text string, strategy pii.Strategy) (*Result, error) {
	start := time.Now()

	entities, err := e.DetectText(ctx, text)
	if err != nil {
		return nil, err
	}

	redacted, updated := e.applicator.Apply(text, entities, strategy)

	audit := make([]pii.AuditRecord, 0, len(updated))
	for _, entity := range updated {
		audit = append(audit, pii.AuditFromEntity(entity))
	}

	verification := e.verifier.Verify(ctx, redacted)

	return &Result{
		RedactedText: redacted,
		Entities:     updated,
		Audit:        audit,
		Verification: verification,
		Stats:        consolidate.Summarize(updated),
		ProcessingMS: time.Since(start).Milliseconds(),
	}, nil
}

// RedactBatch redacts many texts with bounded concurrency. Results keep the
// input order.
func (e *Engine) RedactBatch(ctx context.Context, texts []string, strategy pii.Strategy) ([]*Result, error) {
	results := make([]*Result, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.BatchConcurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			res, err := e.RedactText(gctx, text, strategy)
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Verify re-scans already-redacted text without re-running redaction.
func (e *Engine) Verify(ctx context.Context, redactedText string) pii.VerificationResult {
	return e.verifier.Verify(ctx, redactedText)
}

// VerifyWithRetries is Verify with a one-off retry bound, used by the API's
// verify endpoint.
func (e *Engine) VerifyWithRetries(ctx context.Context, redactedText string, maxRetries int) pii.VerificationResult {
	if maxRetries <= 0 || maxRetries == e.cfg.MaxVerifyRetries {
		return e.verifier.Verify(ctx, redactedText)
	}
	opts := []verify.Option{
		verify.WithMaxRetries(maxRetries),
		verify.WithMaskRune(e.cfg.MaskRune),
	}
	if e.logger != nil {
		opts = append(opts, verify.WithLogger(e.logger))
	}
	return verify.NewVerifier(e.detectors, opts...).Verify(ctx, redactedText)
}

// Stats summarizes an entity list.
func (e *Engine) Stats(entities []pii.Entity) consolidate.Stats {
	return consolidate.Summarize(entities)
}

// ClearAnonymizeCache resets the applicator's synthetic-value memoization.
func (e *Engine) ClearAnonymizeCache() {
	e.applicator.ClearCache()
}

// Detectors reports the registered detector names, for the status endpoint.
func (e *Engine) Detectors() []string {
	names := make([]string, 0, len(e.detectors))
	for _, d := range e.detectors {
		names = append(names, d.Name())
	}
	return names
}

func (e *Engine) log() *observability.Logger {
	if e.logger != nil {
		return e.logger
	}
	return observability.NewLogger(observability.InfoLevel, nil)
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (e *Engine) cacheGet(ctx context.Context, key string) ([]pii.Entity, bool) {
	if entities, ok := e.cache.Get(key); ok {
		return entities, true
	}

	if e.redis != nil {
		data, err := e.redis.Get(ctx, "veil:detect:"+key).Bytes()
		if err == nil {
			var entities []pii.Entity
			if jsonErr := json.Unmarshal(data, &entities); jsonErr == nil {
				e.cache.Add(key, entities)
				return entities, true
			}
		} else if err != redis.Nil {
			e.log().WithError(err).Debug("redis detection cache read failed")
		}
	}
	return nil, false
}

func (e *Engine) cachePut(ctx context.Context, key string, entities []pii.Entity) {
	e.cache.Add(key, entities)

	if e.redis != nil {
		data, err := json.Marshal(entities)
		if err != nil {
			return
		}
		if err := e.redis.Set(ctx, "veil:detect:"+key, data, e.redisTTL).Err(); err != nil {
			e.log().WithError(err).Debug("redis detection cache write failed")
		}
	}
}
