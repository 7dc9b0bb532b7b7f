package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinassert/assertd/assertion"
)

// Predictor is the inference surface the HTTP layer depends on.
type Predictor interface {
	Predict(ctx context.Context, sentence string) (assertion.PredictionResult, error)
	PredictBatch(ctx context.Context, sentences []string) ([]assertion.PredictionResult, error)
	Health() assertion.HealthStatus
}

// PredictHandler exposes the prediction and health endpoints.
type PredictHandler struct {
	svc    Predictor
	logger *zap.Logger
}

// NewPredictHandler creates the handler.
func NewPredictHandler(svc Predictor, logger *zap.Logger) *PredictHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictHandler{svc: svc, logger: logger}
}

type predictRequest struct {
	Sentence string `json:"sentence"`
}

type batchPredictRequest struct {
	Sentences []string `json:"sentences"`
}

type batchPredictResponse struct {
	Predictions []assertion.PredictionResult `json:"predictions"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelName   string `json:"model_name"`
	Device      string `json:"device,omitempty"`
}

// Root handles GET /.
func (h *PredictHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Clinical Assertion Classification API",
		"health":  "/health",
		"predict": "/predict",
	})
}

// Health handles GET /health. It always answers 200: a failed or
// pending model load is reported in the body, not as a handler error.
func (h *PredictHandler) Health(c *gin.Context) {
	status := h.svc.Health()
	resp := healthResponse{
		Status:      "unhealthy",
		ModelLoaded: status.Ready,
		ModelName:   status.ModelID,
		Device:      string(status.Device),
	}
	if status.Ready {
		resp.Status = "healthy"
	}
	c.JSON(http.StatusOK, resp)
}

// Predict handles POST /predict.
func (h *PredictHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON with a sentence field")
		return
	}

	start := time.Now()
	result, err := h.svc.Predict(c.Request.Context(), req.Sentence)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.logger.Info("prediction completed",
		zap.String("request_id", requestID(c)),
		zap.Duration("elapsed", time.Since(start)),
	)
	c.JSON(http.StatusOK, result)
}

// PredictBatch handles POST /predict/batch.
func (h *PredictHandler) PredictBatch(c *gin.Context) {
	var req batchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON with a sentences field")
		return
	}

	start := time.Now()
	results, err := h.svc.PredictBatch(c.Request.Context(), req.Sentences)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.logger.Info("batch prediction completed",
		zap.String("request_id", requestID(c)),
		zap.Int("batch_size", len(req.Sentences)),
		zap.Duration("elapsed", time.Since(start)),
	)
	c.JSON(http.StatusOK, batchPredictResponse{Predictions: results})
}
