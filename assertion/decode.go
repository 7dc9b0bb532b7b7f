package assertion

import (
	"fmt"
	"math"
)

// softmax normalizes raw logits into a probability distribution,
// subtracting the max first for numeric stability.
func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(float64(v - maxVal))
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// decodeResult maps one logit vector to the highest-probability label.
// Ties resolve to the lowest class index, so decoding stays
// deterministic even on degenerate distributions.
func decodeResult(logits []float32, labels []string) (PredictionResult, error) {
	if len(logits) != len(labels) {
		return PredictionResult{}, fmt.Errorf("%w: got %d logits for %d labels", ErrInference, len(logits), len(labels))
	}
	probs := softmax(logits)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return PredictionResult{Label: labels[best], Score: roundScore(probs[best])}, nil
}

// roundScore trims the confidence to four decimal places, the wire
// precision the service has always exposed.
func roundScore(p float64) float64 {
	return math.Round(p*1e4) / 1e4
}
