package assertion

import "time"

const (
	// DefaultModelID identifies the pre-trained clinical assertion
	// model this service wraps.
	DefaultModelID = "bvanaken/clinical-assertion-negation-bert"

	// DefaultMaxSeqLen is the model's fixed input window. Sentences
	// longer than this are silently truncated.
	DefaultMaxSeqLen = 512
)

// Config carries the externally tunable knobs of the inference core.
// Everything else (label order, softmax normalization) is fixed by the
// trained model.
type Config struct {
	ModelID       string
	ModelPath     string
	TokenizerPath string
	// OrtLibrary optionally points at the onnxruntime shared library.
	// Empty means the platform default lookup.
	OrtLibrary string
	MaxSeqLen  int
	// ForceCPU skips the CUDA probe even when a GPU is available.
	ForceCPU bool
	// CacheTTL bounds how long single-sentence predictions are served
	// from the result cache. Zero disables expiry-based eviction.
	CacheTTL time.Duration
}

// ApplyDefaults fills zero-valued fields in place.
func (c *Config) ApplyDefaults() {
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.ModelPath == "" {
		c.ModelPath = "./models/clinical-assertion/model.onnx"
	}
	if c.TokenizerPath == "" {
		c.TokenizerPath = "./models/clinical-assertion/tokenizer.json"
	}
	if c.MaxSeqLen <= 0 {
		c.MaxSeqLen = DefaultMaxSeqLen
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
}
