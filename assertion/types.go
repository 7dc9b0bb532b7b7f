package assertion

// Device identifies the compute device the model is bound to for the
// lifetime of the process.
type Device string

const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "cuda"
)

// DefaultLabels is the canonical label order of the clinical assertion
// model. The index order matters: ties during decoding resolve to the
// lowest index, and the model's output logits are positional.
var DefaultLabels = []string{"PRESENT", "ABSENT", "CONDITIONAL"}

// PredictionResult is the decoded class and its confidence for one
// sentence. Score is the softmax probability of Label, rounded to four
// decimal places.
type PredictionResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// HealthStatus reports process-wide readiness without touching the
// inference path.
type HealthStatus struct {
	Ready   bool   `json:"ready"`
	ModelID string `json:"model_id"`
	Device  Device `json:"device,omitempty"`
}

// EncodedBatch holds 1..N tokenized sentences as flat row-major int64
// slices shaped [Size, SeqLen], ready to be bound as model inputs.
// TokenTypeIDs is nil when the model does not declare that input.
type EncodedBatch struct {
	Size          int
	SeqLen        int
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}
