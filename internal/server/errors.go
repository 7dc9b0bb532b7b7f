package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinassert/assertd/assertion"
)

// errorResponse is the JSON body sent for every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleServiceError maps core sentinel errors onto HTTP statuses so
// every handler reports failures the same way.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, assertion.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, assertion.ErrModelUnavailable):
		respondError(c, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "model is not loaded")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "prediction failed")
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}
