package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/models"
)

func mapArticle(a models.GeneratedArticle) dto.ArticleDTO {
	ids := make([]string, 0, len(a.SourceIDsUsed))
	for _, id := range a.SourceIDsUsed {
		ids = append(ids, id.Hex())
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.ArticleDTO{
		ID:                 a.ID.Hex(),
		Topic:              a.Topic,
		Title:              a.Title,
		MetaDescription:    a.MetaDescription,
		Body:               a.Body,
		Tags:               tags,
		State:              string(a.State),
		AverageSourceScore: a.AverageSourceScore,
		SourceIDsUsed:      ids,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func mapImage(img models.ImageAttachment) dto.ImageDTO {
	return dto.ImageDTO{
		ID:            img.ID.Hex(),
		URL:           img.URL,
		AltText:       img.AltText,
		Caption:       img.Caption,
		License:       img.License,
		Author:        img.Author,
		AuthorURL:     img.AuthorURL,
		SourcePageURL: img.SourcePageURL,
	}
}

func mapSource(s models.SourceArticle) dto.SourceDTO {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.SourceDTO{
		ID:                s.ID.Hex(),
		URL:               s.URL,
		Title:             s.Title,
		RelevanceScore:    s.RelevanceScore,
		Reason:            s.Reason,
		Summary:           s.Summary,
		OriginDomain:      s.OriginDomain,
		PublishedAt:       s.PublishedAt,
		Tags:              tags,
		UsedForGeneration: s.UsedForGeneration,
		CreatedAt:         s.CreatedAt,
	}
}

func mapTask(t models.GenerationTask) dto.TaskDTO {
	return dto.TaskDTO{
		ID:              t.ID.Hex(),
		Topic:           t.Topic,
		ConfigurationID: hexOrEmpty(t.ConfigurationID),
		State:           string(t.State),
		ErrorMessage:    t.ErrorMessage,
		RequestedAt:     t.RequestedAt,
		UpdatedAt:       t.UpdatedAt,
		FinishedAt:      t.FinishedAt,
		ResultArticleID: hexOrEmpty(t.ResultArticleID),
	}
}

func mapThemeConfig(c models.ThemeConfig, stored bool) dto.ThemeConfigDTO {
	out := dto.ThemeConfigDTO{
		Topic:               c.Topic,
		MinSourceScore:      c.MinSourceScore,
		NumSearchResults:    c.NumSearchResults,
		NumDiscoveryResults: c.NumDiscoveryResults,
		MinGeneratorScore:   c.MinGeneratorScore,
		NumGeneratorSources: c.NumGeneratorSources,
		TextLength:          c.TextLength,
		TextTone:            c.TextTone,
		NumImages:           c.ImageCount(),
		AnalyzerPrompt:      c.AnalyzerPrompt,
		GeneratorPrompt:     c.GeneratorPrompt,
		Stored:              stored,
	}
	if !c.ID.IsZero() {
		out.ID = c.ID.Hex()
	}
	return out
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil || id.IsZero() {
		return ""
	}
	return id.Hex()
}
