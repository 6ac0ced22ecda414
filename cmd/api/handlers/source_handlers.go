package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"content-pipeline/cmd/api/services"
)

// ListSourcesHandler godoc
// @Summary      List discovered sources
// @Tags         admin
// @Param        used       query  bool    false  "Filter by used_for_generation"
// @Param        min_score  query  int     false  "Minimum relevance score"
// @Param        topic_tag  query  string  false  "Tag (case-insensitive exact match)"
// @Param        page       query  int     false  "Page number (1-based)"
// @Param        page_size  query  int     false  "Page size (<=100)"
// @Produce      json
// @Success      200  {object}  dto.PaginationSourceDTO
// @Failure      500  {object}  dto.ErrorResponseDTO
// @Router       /admin/sources [get]
func ListSourcesHandler(svc *services.SourceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		minScore, _ := strconv.Atoi(c.Query("min_score"))

		var used *bool
		if v := c.Query("used"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				used = &b
			}
		}

		resp, err := svc.List(c.Request.Context(), services.ListSourcesInput{
			Page:     page,
			PageSize: pageSize,
			Used:     used,
			MinScore: minScore,
			TopicTag: c.Query("topic_tag"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
