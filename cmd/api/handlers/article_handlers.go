package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/cmd/api/services"
)

// ListArticlesHandler godoc
// @Summary      List generated articles
// @Tags         articles
// @Param        topic      query  string  false  "Exact topic"
// @Param        state      query  string  false  "generated, reviewed, published or archived"
// @Param        page       query  int     false  "Page number (1-based)"
// @Param        page_size  query  int     false  "Page size (<=100)"
// @Produce      json
// @Success      200  {object}  dto.PaginationArticleDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /articles [get]
func ListArticlesHandler(svc *services.ArticleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		resp, err := svc.List(c.Request.Context(), services.ListArticlesInput{
			Page:     page,
			PageSize: pageSize,
			Topic:    c.Query("topic"),
			State:    c.Query("state"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetArticleHandler godoc
// @Summary      Get a generated article
// @Description  Article with its attached images
// @Tags         articles
// @Param        id   path  string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.ArticleDetailDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /articles/{id} [get]
func GetArticleHandler(svc *services.ArticleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		article, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, article)
	}
}

// UpdateArticleHandler godoc
// @Summary      Update a generated article
// @Description  Partial update of title, meta_description, body, tags and state
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        id    path      string                       true  "ObjectID"
// @Param        body  body      dto.UpdateArticleRequestDTO  true  "Fields to change"
// @Success      200   {object}  dto.ArticleDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /articles/{id} [put]
func UpdateArticleHandler(svc *services.ArticleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.UpdateArticleRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		article, err := svc.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, article)
	}
}

// PreviewArticleHandler godoc
// @Summary      Preview a generated article
// @Tags         articles
// @Param        id   path  string  true  "ObjectID"
// @Produce      html
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /articles/{id}/preview [get]
func PreviewArticleHandler(svc *services.ArticleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.Preview(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}
}
