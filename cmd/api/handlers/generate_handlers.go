package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/cmd/api/services"
	"content-pipeline/cmd/internal/pipeline"
)

// GenerateHandler godoc
// @Summary      Generate an article
// @Description  Run discovery, synthesis and publication for a topic and wait for the result
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        body  body      dto.GenerateRequestDTO  true  "Topic"
// @Success      200   {object}  dto.GenerateResponseDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      500   {object}  dto.PipelineErrorDTO
// @Router       /generate [post]
func GenerateHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.GenerateRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "topic is required"})
			return
		}

		resp, err := svc.Generate(c.Request.Context(), req.Topic)
		if err != nil {
			var abort *pipeline.AbortError
			if errors.As(err, &abort) {
				c.JSON(http.StatusInternalServerError, dto.PipelineErrorDTO{
					Error:  abort.Outcome(),
					Stage:  string(abort.State),
					Reason: abort.Reason,
				})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// EnqueueGenerationHandler godoc
// @Summary      Queue an article generation
// @Description  Store a pending generation task and return its id immediately
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        body  body      dto.EnqueueRequestDTO  true  "Topic and optional configuration id"
// @Success      202   {object}  dto.EnqueueResponseDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      500   {object}  dto.ErrorResponseDTO
// @Router       /dashboard/generate-article [post]
func EnqueueGenerationHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.EnqueueRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		resp, err := svc.Enqueue(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, resp)
	}
}

// ListGenerationTasksHandler godoc
// @Summary      List generation tasks
// @Tags         generation
// @Param        state      query  string  false  "pending, in_progress, completed or error"
// @Param        page       query  int     false  "Page number (1-based)"
// @Param        page_size  query  int     false  "Page size (<=100)"
// @Produce      json
// @Success      200  {object}  dto.PaginationTaskDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /dashboard/generation-tasks [get]
func ListGenerationTasksHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		resp, err := svc.ListTasks(c.Request.Context(), services.ListTasksInput{
			Page:     page,
			PageSize: pageSize,
			State:    c.Query("state"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetGenerationTaskHandler godoc
// @Summary      Get a generation task
// @Tags         generation
// @Param        id   path  string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.TaskDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /dashboard/generation-tasks/{id} [get]
func GetGenerationTaskHandler(svc *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := svc.GetTask(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}
