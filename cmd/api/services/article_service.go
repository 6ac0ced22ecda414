package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/models"
	"content-pipeline/repositories"
)

type ArticleStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.GeneratedArticle, error)
	Update(ctx context.Context, id primitive.ObjectID, u models.ArticleUpdate) error
	List(ctx context.Context, opt repositories.ListArticlesOptions) ([]models.GeneratedArticle, int64, error)
}

type ImageLister interface {
	ListByArticle(ctx context.Context, articleID primitive.ObjectID) ([]models.ImageAttachment, error)
}

type PreviewRenderer interface {
	Render(article *models.GeneratedArticle, imgs []models.ImageAttachment) ([]byte, error)
}

// ArticleService exposes generated articles and their images.
type ArticleService struct {
	articles ArticleStore
	images   ImageLister
	preview  PreviewRenderer
}

func NewArticleService(articles ArticleStore, images ImageLister, preview PreviewRenderer) *ArticleService {
	return &ArticleService{articles: articles, images: images, preview: preview}
}

type ListArticlesInput struct {
	Page     int
	PageSize int
	Topic    string
	State    string
}

func (s *ArticleService) List(ctx context.Context, in ListArticlesInput) (dto.Pagination[dto.ArticleDTO], error) {
	page, pageSize := repositories.NormalizePage(in.Page, in.PageSize)
	state := models.ArticleState(strings.TrimSpace(in.State))
	if state != "" && !state.Valid() {
		return dto.Pagination[dto.ArticleDTO]{}, ErrInvalidState
	}
	items, total, err := s.articles.List(ctx, repositories.ListArticlesOptions{
		Page:     page,
		PageSize: pageSize,
		Topic:    strings.TrimSpace(in.Topic),
		State:    state,
	})
	if err != nil {
		return dto.Pagination[dto.ArticleDTO]{}, err
	}
	out := make([]dto.ArticleDTO, 0, len(items))
	for _, a := range items {
		out = append(out, mapArticle(a))
	}
	return dto.Pagination[dto.ArticleDTO]{Data: out, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *ArticleService) load(ctx context.Context, hexID string) (*models.GeneratedArticle, []models.ImageAttachment, error) {
	id, err := repositories.ParseObjectID(hexID)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	imgs, err := s.images.ListByArticle(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return a, imgs, nil
}

// Get returns the article with its images.
func (s *ArticleService) Get(ctx context.Context, hexID string) (*dto.ArticleDetailDTO, error) {
	a, imgs, err := s.load(ctx, hexID)
	if err != nil {
		return nil, err
	}
	out := &dto.ArticleDetailDTO{ArticleDTO: mapArticle(*a), Images: make([]dto.ImageDTO, 0, len(imgs))}
	for _, img := range imgs {
		out.Images = append(out.Images, mapImage(img))
	}
	return out, nil
}

// Update applies a partial update. Provenance fields are not editable.
func (s *ArticleService) Update(ctx context.Context, hexID string, req dto.UpdateArticleRequestDTO) (*dto.ArticleDTO, error) {
	id, err := repositories.ParseObjectID(hexID)
	if err != nil {
		return nil, err
	}
	u := models.ArticleUpdate{
		Title:           req.Title,
		MetaDescription: req.MetaDescription,
		Body:            req.Body,
		Tags:            req.Tags,
	}
	if req.State != nil {
		st := models.ArticleState(strings.TrimSpace(*req.State))
		if !st.Valid() {
			return nil, ErrInvalidState
		}
		u.State = &st
	}
	if u.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	if err := s.articles.Update(ctx, id, u); err != nil {
		return nil, err
	}
	a, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := mapArticle(*a)
	return &out, nil
}

// Preview renders the article page on demand.
func (s *ArticleService) Preview(ctx context.Context, hexID string) ([]byte, error) {
	a, imgs, err := s.load(ctx, hexID)
	if err != nil {
		return nil, err
	}
	return s.preview.Render(a, imgs)
}
