package assertion

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Encoder converts raw sentences into a model-ready token batch.
type Encoder interface {
	EncodeBatch(sentences []string) (*EncodedBatch, error)
}

// WordPieceEncoder wraps a HuggingFace tokenizer.json with truncation
// at the model's input window. Encoding is a pure function of the text
// and the fixed vocabulary.
type WordPieceEncoder struct {
	tk          *tokenizer.Tokenizer
	maxSeqLen   int
	withTypeIDs bool
}

// NewWordPieceEncoder loads the tokenizer file and configures
// truncation. withTypeIDs controls whether EncodeBatch emits a
// token_type_ids plane (all zeros for single-sequence input).
func NewWordPieceEncoder(path string, maxSeqLen int, withTypeIDs bool) (*WordPieceEncoder, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: maxSeqLen,
		Strategy:  tokenizer.LongestFirst,
	})
	return &WordPieceEncoder{tk: tk, maxSeqLen: maxSeqLen, withTypeIDs: withTypeIDs}, nil
}

// EncodeBatch tokenizes every sentence, truncates each row to the
// input window and pads all rows to the longest row in the batch.
func (e *WordPieceEncoder) EncodeBatch(sentences []string) (*EncodedBatch, error) {
	rows := make([][]int, len(sentences))
	for i, s := range sentences {
		en, err := e.tk.EncodeSingle(s, true)
		if err != nil {
			return nil, fmt.Errorf("encode sentence %d: %w", i, err)
		}
		rows[i] = truncateRow(en.Ids, e.maxSeqLen)
	}
	return padBatch(rows, e.withTypeIDs), nil
}

// truncateRow bounds a token row at maxLen. The tokenizer already
// truncates; this keeps the invariant independent of its settings.
func truncateRow(ids []int, maxLen int) []int {
	if maxLen > 0 && len(ids) > maxLen {
		return ids[:maxLen]
	}
	return ids
}

// padBatch right-pads every row to the longest row (pad id 0,
// attention 0) and flattens to row-major [N, L] slices.
func padBatch(rows [][]int, withTypeIDs bool) *EncodedBatch {
	maxLen := 0
	for _, row := range rows {
		if len(row) > maxLen {
			maxLen = len(row)
		}
	}
	if maxLen == 0 {
		maxLen = 1
	}
	batch := &EncodedBatch{
		Size:          len(rows),
		SeqLen:        maxLen,
		InputIDs:      make([]int64, len(rows)*maxLen),
		AttentionMask: make([]int64, len(rows)*maxLen),
	}
	if withTypeIDs {
		batch.TokenTypeIDs = make([]int64, len(rows)*maxLen)
	}
	for i, row := range rows {
		base := i * maxLen
		for j, id := range row {
			batch.InputIDs[base+j] = int64(id)
			batch.AttentionMask[base+j] = 1
		}
	}
	return batch
}
