package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/cmd/api/services"
)

// GetConfigHandler godoc
// @Summary      Get topic configuration
// @Description  Effective configuration; stored=false means defaults only
// @Tags         config
// @Param        topic  path  string  true  "Topic"
// @Produce      json
// @Success      200  {object}  dto.ThemeConfigDTO
// @Router       /config/{topic} [get]
func GetConfigHandler(svc *services.ConfigService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := svc.Get(c.Request.Context(), c.Param("topic"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	}
}

// PutConfigHandler godoc
// @Summary      Save topic configuration
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        topic  path      string                     true  "Topic"
// @Param        body   body      dto.ThemeConfigRequestDTO  true  "Configuration"
// @Success      200    {object}  dto.ThemeConfigDTO
// @Failure      400    {object}  dto.ErrorResponseDTO
// @Router       /config/{topic} [put]
func PutConfigHandler(svc *services.ConfigService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ThemeConfigRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		cfg, err := svc.Save(c.Request.Context(), c.Param("topic"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	}
}

// ListTopicsHandler godoc
// @Summary      List configured topics
// @Tags         config
// @Produce      json
// @Success      200  {object}  dto.TopicsDTO
// @Router       /topics [get]
func ListTopicsHandler(svc *services.ConfigService) gin.HandlerFunc {
	return func(c *gin.Context) {
		topics, err := svc.Topics(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, topics)
	}
}
