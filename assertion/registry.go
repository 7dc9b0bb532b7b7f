package assertion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// warmupSentence primes the session right after load so the first real
// request does not pay graph-initialization cost.
const warmupSentence = "The patient is stable."

// ModelHandle is the immutable, process-wide classifier handle. It is
// constructed exactly once by the Registry; all inference reads it and
// never mutates it.
type ModelHandle struct {
	ModelID   string
	Device    Device
	Labels    []string
	MaxSeqLen int

	encoder  Encoder
	executor Inferencer
}

// NewModelHandle assembles a handle from its parts. The Registry is
// the only production caller; tests use it to inject fakes.
func NewModelHandle(modelID string, device Device, labels []string, maxSeqLen int, enc Encoder, exec Inferencer) *ModelHandle {
	return &ModelHandle{
		ModelID:   modelID,
		Device:    device,
		Labels:    labels,
		MaxSeqLen: maxSeqLen,
		encoder:   enc,
		executor:  exec,
	}
}

// Registry owns model lifecycle: the one-time load, device selection
// and the shared read-only handle. Concurrent first callers share a
// single load; both success and failure are memoized, so readiness
// never flips back once decided.
type Registry struct {
	cfg    Config
	logger *zap.Logger

	loadFn func() (*ModelHandle, error)
	once   sync.Once
	handle *ModelHandle
	err    error
	ready  atomic.Bool
}

// NewRegistry prepares a registry. No model I/O happens until the
// first Handle call.
func NewRegistry(cfg Config, logger *zap.Logger) *Registry {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{cfg: cfg, logger: logger}
	r.loadFn = r.load
	return r
}

// Handle returns the shared model handle, loading it on first use.
// Callers during the loading window block until the single load
// completes and then share its outcome.
func (r *Registry) Handle() (*ModelHandle, error) {
	r.once.Do(func() {
		r.handle, r.err = r.loadFn()
		if r.err == nil {
			r.ready.Store(true)
		}
	})
	return r.handle, r.err
}

// Ready reports whether the load has completed successfully. Constant
// time, never fails.
func (r *Registry) Ready() bool {
	return r.ready.Load()
}

// ModelID returns the configured model identifier, available before
// the load completes.
func (r *Registry) ModelID() string {
	return r.cfg.ModelID
}

// Config returns a copy of the registry configuration.
func (r *Registry) Config() Config {
	return r.cfg
}

// Close releases the model session if one was loaded.
func (r *Registry) Close() error {
	if r.handle != nil && r.handle.executor != nil {
		return r.handle.executor.Close()
	}
	return nil
}

// load performs the one-time, possibly multi-second initialization:
// runtime environment, model signature probe, tokenizer, session and
// a warmup pass.
func (r *Registry) load() (*ModelHandle, error) {
	cfg := r.cfg
	start := time.Now()
	r.logger.Info("loading model", zap.String("model_id", cfg.ModelID), zap.String("model_path", cfg.ModelPath))

	if cfg.OrtLibrary != "" {
		ort.SetSharedLibraryPath(cfg.OrtLibrary)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnxruntime: %v", ErrModelLoad, err)
		}
	}

	sig, err := probeModel(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	labels := loadLabelSet(filepath.Dir(cfg.ModelPath))

	encoder, err := NewWordPieceEncoder(cfg.TokenizerPath, cfg.MaxSeqLen, sig.hasTokenTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	executor, err := newOrtExecutor(cfg.ModelPath, sig, len(labels), cfg.ForceCPU)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	handle := NewModelHandle(cfg.ModelID, executor.Device(), labels, cfg.MaxSeqLen, encoder, executor)

	if err := warmup(handle); err != nil {
		_ = executor.Close()
		return nil, fmt.Errorf("%w: warmup: %v", ErrModelLoad, err)
	}

	r.logger.Info("model loaded",
		zap.String("model_id", cfg.ModelID),
		zap.String("device", string(handle.Device)),
		zap.Strings("labels", labels),
		zap.Duration("elapsed", time.Since(start)),
	)
	return handle, nil
}

// warmup runs a single throwaway inference through the full path.
func warmup(h *ModelHandle) error {
	batch, err := h.encoder.EncodeBatch([]string{warmupSentence})
	if err != nil {
		return err
	}
	logits, err := h.executor.Infer(context.Background(), batch)
	if err != nil {
		return err
	}
	_, err = decodeResult(logits[0], h.Labels)
	return err
}

// loadLabelSet reads the id2label map from the config.json shipped
// next to the model weights. Falls back to the canonical label order
// when the file or the map is missing.
func loadLabelSet(modelDir string) []string {
	data, err := os.ReadFile(filepath.Join(modelDir, "config.json"))
	if err != nil {
		return DefaultLabels
	}
	var meta struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || len(meta.ID2Label) == 0 {
		return DefaultLabels
	}

	maxID := -1
	for k := range meta.ID2Label {
		id, err := strconv.Atoi(k)
		if err != nil {
			return DefaultLabels
		}
		if id > maxID {
			maxID = id
		}
	}
	labels := make([]string, maxID+1)
	for k, v := range meta.ID2Label {
		id, _ := strconv.Atoi(k)
		labels[id] = v
	}
	for _, l := range labels {
		if l == "" {
			return DefaultLabels
		}
	}
	return labels
}
