package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/cmd/api/services"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/cmd/internal/pipeline"
	"content-pipeline/cmd/internal/themes"
	"content-pipeline/repositories"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrInvalidID),
		errors.Is(err, services.ErrEmptyTopic),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrEmptyUpdate),
		errors.Is(err, services.ErrTopicMismatch),
		errors.Is(err, pipeline.ErrEmptyTopic),
		errors.Is(err, themes.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrArticleNotFound),
		errors.Is(err, repositories.ErrTaskNotFound),
		errors.Is(err, repositories.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, dto.ErrorResponseDTO{Error: err.Error()})
}
