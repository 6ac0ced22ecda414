package services

import (
	"context"
	"strings"

	"content-pipeline/cmd/api/dto"
	"content-pipeline/models"
)

type ThemeResolver interface {
	Resolve(ctx context.Context, topic string) (models.ThemeConfig, bool, error)
	Save(ctx context.Context, c models.ThemeConfig) (models.ThemeConfig, error)
	Topics(ctx context.Context) ([]string, error)
}

// ConfigService reads and writes per-topic configuration.
type ConfigService struct {
	themes ThemeResolver
}

func NewConfigService(themes ThemeResolver) *ConfigService {
	return &ConfigService{themes: themes}
}

func (s *ConfigService) Get(ctx context.Context, topic string) (*dto.ThemeConfigDTO, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	cfg, stored, err := s.themes.Resolve(ctx, topic)
	if err != nil {
		return nil, err
	}
	out := mapThemeConfig(cfg, stored)
	return &out, nil
}

func (s *ConfigService) Save(ctx context.Context, topic string, req dto.ThemeConfigRequestDTO) (*dto.ThemeConfigDTO, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if body := strings.TrimSpace(req.Topic); body != "" && body != topic {
		return nil, ErrTopicMismatch
	}
	saved, err := s.themes.Save(ctx, models.ThemeConfig{
		Topic:               topic,
		MinSourceScore:      req.MinSourceScore,
		NumSearchResults:    req.NumSearchResults,
		NumDiscoveryResults: req.NumDiscoveryResults,
		MinGeneratorScore:   req.MinGeneratorScore,
		NumGeneratorSources: req.NumGeneratorSources,
		TextLength:          req.TextLength,
		TextTone:            req.TextTone,
		NumImages:           req.NumImages,
		AnalyzerPrompt:      req.AnalyzerPrompt,
		GeneratorPrompt:     req.GeneratorPrompt,
	})
	if err != nil {
		return nil, err
	}
	out := mapThemeConfig(saved, true)
	return &out, nil
}

func (s *ConfigService) Topics(ctx context.Context) (dto.TopicsDTO, error) {
	topics, err := s.themes.Topics(ctx)
	if err != nil {
		return dto.TopicsDTO{}, err
	}
	if topics == nil {
		topics = []string{}
	}
	return dto.TopicsDTO{Topics: topics}, nil
}
