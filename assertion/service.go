package assertion

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Service is the inference-serving core: single and batch prediction
// plus the health accessor. The HTTP layer (or any other caller) talks
// only to this type.
type Service struct {
	registry *Registry
	cache    *gocache.Cache
	logger   *zap.Logger
}

// NewService wires the service to a registry. Predictions for single
// sentences are served from a TTL cache keyed by model id and text.
func NewService(registry *Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := registry.Config().CacheTTL
	return &Service{
		registry: registry,
		cache:    gocache.New(ttl, 2*ttl),
		logger:   logger,
	}
}

// Predict classifies the assertion status of one clinical sentence.
func (s *Service) Predict(ctx context.Context, sentence string) (PredictionResult, error) {
	if normalizeSentence(sentence) == "" {
		return PredictionResult{}, fmt.Errorf("%w: sentence is empty", ErrInvalidInput)
	}

	key := cacheKey(sentence, s.registry.ModelID())
	if v, ok := s.cache.Get(key); ok {
		return v.(PredictionResult), nil
	}

	results, err := s.run(ctx, []string{sentence})
	if err != nil {
		return PredictionResult{}, err
	}
	s.cache.Set(key, results[0], gocache.DefaultExpiration)
	return results[0], nil
}

// PredictBatch classifies every sentence in one forward pass and
// returns results in input order. The batch either fully succeeds or
// fully fails; there are no per-item errors.
func (s *Service) PredictBatch(ctx context.Context, sentences []string) ([]PredictionResult, error) {
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: sentence list is empty", ErrInvalidInput)
	}
	for i, sentence := range sentences {
		if normalizeSentence(sentence) == "" {
			return nil, fmt.Errorf("%w: sentence %d is empty", ErrInvalidInput, i)
		}
	}

	results, err := s.run(ctx, sentences)
	if err != nil {
		return nil, err
	}
	modelID := s.registry.ModelID()
	for i, sentence := range sentences {
		s.cache.Set(cacheKey(sentence, modelID), results[i], gocache.DefaultExpiration)
	}
	return results, nil
}

// Health reports readiness from cached registry state in constant
// time. It never fails and never touches the inference path.
func (s *Service) Health() HealthStatus {
	status := HealthStatus{
		Ready:   s.registry.Ready(),
		ModelID: s.registry.ModelID(),
	}
	if status.Ready {
		if handle, err := s.registry.Handle(); err == nil {
			status.Device = handle.Device
		}
	}
	return status
}

// Close releases the underlying model session.
func (s *Service) Close() error {
	return s.registry.Close()
}

// run is the shared execution path for N=1 and N>1: encode all rows,
// one Infer call, decode each row independently.
func (s *Service) run(ctx context.Context, sentences []string) ([]PredictionResult, error) {
	handle, err := s.registry.Handle()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	start := time.Now()
	batch, err := handle.encoder.EncodeBatch(sentences)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	logits, err := handle.executor.Infer(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(logits) != len(sentences) {
		return nil, fmt.Errorf("%w: got %d rows for %d sentences", ErrInference, len(logits), len(sentences))
	}

	results := make([]PredictionResult, len(sentences))
	for i := range sentences {
		results[i], err = decodeResult(logits[i], handle.Labels)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug("prediction completed",
		zap.Int("batch_size", len(sentences)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

// cacheKey mirrors the embed-cache keying scheme: results are scoped
// to the model that produced them.
func cacheKey(text, modelID string) string {
	h := sha1.Sum([]byte(modelID + "|" + text))
	return hex.EncodeToString(h[:])
}
