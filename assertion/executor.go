package assertion

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Inferencer runs one forward pass over an encoded batch and returns a
// raw logit vector per row. Implementations read only immutable model
// state; they hold no call-to-call state.
type Inferencer interface {
	Infer(ctx context.Context, batch *EncodedBatch) ([][]float32, error)
	Close() error
}

// modelSignature describes the model's bound input and output names,
// discovered once at load time.
type modelSignature struct {
	inputNames    []string
	outputName    string
	hasTokenTypes bool
}

// probeModel inspects the ONNX graph for its input names and the
// logits output.
func probeModel(modelPath string) (modelSignature, error) {
	inputs, outputs, err := ort.GetInputOutputInfoWithOptions(modelPath, nil)
	if err != nil {
		return modelSignature{}, fmt.Errorf("inspect model %s: %w", modelPath, err)
	}
	if len(outputs) == 0 {
		return modelSignature{}, fmt.Errorf("model %s declares no outputs", modelPath)
	}

	sig := modelSignature{outputName: outputs[0].Name}
	for _, out := range outputs {
		if strings.EqualFold(out.Name, "logits") {
			sig.outputName = out.Name
			break
		}
	}
	for _, in := range inputs {
		sig.inputNames = append(sig.inputNames, in.Name)
		if strings.EqualFold(in.Name, "token_type_ids") {
			sig.hasTokenTypes = true
		}
	}
	if len(sig.inputNames) == 0 {
		return modelSignature{}, fmt.Errorf("model %s declares no inputs", modelPath)
	}
	return sig, nil
}

// OrtExecutor runs the classifier through an ONNX Runtime dynamic
// session. A single session serves batches of any size; access to the
// device context is serialized, since batching rather than concurrent
// session calls is the throughput lever here.
type OrtExecutor struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	sig       modelSignature
	numLabels int
	device    Device
}

// newOrtExecutor builds the session, binding it to CUDA when available
// and not overridden, otherwise to CPU. The chosen device is fixed for
// the process lifetime.
func newOrtExecutor(modelPath string, sig modelSignature, numLabels int, forceCPU bool) (*OrtExecutor, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()
	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("set graph optimization: %w", err)
	}

	device := DeviceCPU
	if !forceCPU {
		if cudaOpts, cudaErr := ort.NewCUDAProviderOptions(); cudaErr == nil {
			if appendErr := opts.AppendExecutionProviderCUDA(cudaOpts); appendErr == nil {
				device = DeviceGPU
			}
			cudaOpts.Destroy()
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		sig.inputNames,
		[]string{sig.outputName},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &OrtExecutor{session: session, sig: sig, numLabels: numLabels, device: device}, nil
}

// Device reports which compute device the session is bound to.
func (x *OrtExecutor) Device() Device {
	return x.device
}

// Infer executes the forward pass for 1..N rows in one call and splits
// the [N, numLabels] logits into per-row vectors.
func (x *OrtExecutor) Infer(ctx context.Context, batch *EncodedBatch) ([][]float32, error) {
	if batch == nil || batch.Size == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInference)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shape := ort.NewShape(int64(batch.Size), int64(batch.SeqLen))
	inputs := make([]ort.Value, 0, len(x.sig.inputNames))
	defer func() {
		for _, in := range inputs {
			in.Destroy()
		}
	}()
	for _, name := range x.sig.inputNames {
		data, err := batch.plane(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInference, err)
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s tensor: %v", ErrInference, name, err)
		}
		inputs = append(inputs, t)
	}

	outputs := []ort.Value{nil}
	x.mu.Lock()
	err := x.session.Run(inputs, outputs)
	x.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer outputs[0].Destroy()

	logits, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: unexpected output tensor type", ErrInference)
	}
	data := logits.GetData()
	if len(data) != batch.Size*x.numLabels {
		return nil, fmt.Errorf("%w: output has %d values, want %d", ErrInference, len(data), batch.Size*x.numLabels)
	}

	rows := make([][]float32, batch.Size)
	for i := range rows {
		row := make([]float32, x.numLabels)
		copy(row, data[i*x.numLabels:(i+1)*x.numLabels])
		rows[i] = row
	}
	return rows, nil
}

// Close releases the session. The registry owns the call.
func (x *OrtExecutor) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.session == nil {
		return nil
	}
	err := x.session.Destroy()
	x.session = nil
	return err
}

// plane selects the flat slice backing the named model input.
func (b *EncodedBatch) plane(name string) ([]int64, error) {
	switch {
	case strings.EqualFold(name, "input_ids"):
		return b.InputIDs, nil
	case strings.EqualFold(name, "attention_mask"):
		return b.AttentionMask, nil
	case strings.EqualFold(name, "token_type_ids"):
		if b.TokenTypeIDs == nil {
			return nil, fmt.Errorf("model wants token_type_ids but batch has none")
		}
		return b.TokenTypeIDs, nil
	default:
		return nil, fmt.Errorf("unsupported model input %q", name)
	}
}
