package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with the full route surface.
func NewRouter(svc Predictor, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	h := NewPredictHandler(svc, logger)
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.POST("/predict", h.Predict)
	router.POST("/predict/batch", h.PredictBatch)

	return router
}
