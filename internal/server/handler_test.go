package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinassert/assertd/assertion"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakePredictor mimics the core service, including its validation and
// availability semantics.
type fakePredictor struct {
	ready   bool
	results map[string]assertion.PredictionResult
}

func (f *fakePredictor) Predict(_ context.Context, sentence string) (assertion.PredictionResult, error) {
	if sentence == "" {
		return assertion.PredictionResult{}, fmt.Errorf("%w: sentence is empty", assertion.ErrInvalidInput)
	}
	if !f.ready {
		return assertion.PredictionResult{}, fmt.Errorf("%w: load pending", assertion.ErrModelUnavailable)
	}
	return f.results[sentence], nil
}

func (f *fakePredictor) PredictBatch(ctx context.Context, sentences []string) ([]assertion.PredictionResult, error) {
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: sentence list is empty", assertion.ErrInvalidInput)
	}
	out := make([]assertion.PredictionResult, len(sentences))
	for i, s := range sentences {
		res, err := f.Predict(ctx, s)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

func (f *fakePredictor) Health() assertion.HealthStatus {
	return assertion.HealthStatus{
		Ready:   f.ready,
		ModelID: "test-model",
		Device:  assertion.DeviceCPU,
	}
}

func readyPredictor() *fakePredictor {
	return &fakePredictor{
		ready: true,
		results: map[string]assertion.PredictionResult{
			"The patient denies chest pain.":    {Label: "ABSENT", Score: 0.9842},
			"He has a history of hypertension.": {Label: "PRESENT", Score: 0.9756},
		},
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRootEndpoint(t *testing.T) {
	router := NewRouter(readyPredictor(), zap.NewNop())

	w := doJSON(t, router, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "message")
	assert.Contains(t, body, "health")
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		router := NewRouter(readyPredictor(), zap.NewNop())

		w := doJSON(t, router, http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body healthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Status)
		assert.True(t, body.ModelLoaded)
		assert.Equal(t, "test-model", body.ModelName)
	})

	t.Run("not ready still answers 200", func(t *testing.T) {
		router := NewRouter(&fakePredictor{ready: false}, zap.NewNop())

		w := doJSON(t, router, http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body healthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body.Status)
		assert.False(t, body.ModelLoaded)
	})
}

func TestPredictEndpoint(t *testing.T) {
	router := NewRouter(readyPredictor(), zap.NewNop())

	t.Run("known sentence", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/predict",
			gin.H{"sentence": "The patient denies chest pain."})

		require.Equal(t, http.StatusOK, w.Code)
		var body assertion.PredictionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ABSENT", body.Label)
		assert.InDelta(t, 0.9842, body.Score, 1e-4)
	})

	t.Run("empty sentence", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/predict", gin.H{"sentence": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/predict", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString("{nope"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("model unavailable", func(t *testing.T) {
		router := NewRouter(&fakePredictor{ready: false}, zap.NewNop())
		w := doJSON(t, router, http.MethodPost, "/predict",
			gin.H{"sentence": "The patient denies chest pain."})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestPredictBatchEndpoint(t *testing.T) {
	router := NewRouter(readyPredictor(), zap.NewNop())

	t.Run("preserves order", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/predict/batch", gin.H{"sentences": []string{
			"The patient denies chest pain.",
			"He has a history of hypertension.",
		}})

		require.Equal(t, http.StatusOK, w.Code)
		var body batchPredictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Predictions, 2)
		assert.Equal(t, "ABSENT", body.Predictions[0].Label)
		assert.Equal(t, "PRESENT", body.Predictions[1].Label)
	})

	t.Run("empty list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/predict/batch", gin.H{"sentences": []string{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequestIDEchoed(t *testing.T) {
	router := NewRouter(readyPredictor(), zap.NewNop())

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(requestIDHeader))
}
