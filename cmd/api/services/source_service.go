package services

import (
	"context"
	"strings"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/models"
	"content-pipeline/repositories"
)

type SourceLister interface {
	List(ctx context.Context, opt repositories.ListSourcesOptions) ([]models.SourceArticle, int64, error)
}

type SourceService struct {
	sources SourceLister
}

func NewSourceService(sources SourceLister) *SourceService {
	return &SourceService{sources: sources}
}

type ListSourcesInput struct {
	Page     int
	PageSize int
	Used     *bool
	MinScore int
	TopicTag string
}

func (s *SourceService) List(ctx context.Context, in ListSourcesInput) (dto.Pagination[dto.SourceDTO], error) {
	page, pageSize := repositories.NormalizePage(in.Page, in.PageSize)
	items, total, err := s.sources.List(ctx, repositories.ListSourcesOptions{
		Page:     page,
		PageSize: pageSize,
		Used:     in.Used,
		MinScore: in.MinScore,
		Tag:      strings.TrimSpace(in.TopicTag),
	})
	if err != nil {
		return dto.Pagination[dto.SourceDTO]{}, err
	}
	out := make([]dto.SourceDTO, 0, len(items))
	for _, src := range items {
		out = append(out, mapSource(src))
	}
	return dto.Pagination[dto.SourceDTO]{Data: out, Page: page, PageSize: pageSize, Total: total}, nil
}
