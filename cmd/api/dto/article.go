package dto

import "time"

type ArticleDTO struct {
	ID                 string    `json:"id"`
	Topic              string    `json:"topic"`
	Title              string    `json:"title"`
	MetaDescription    string    `json:"meta_description"`
	Body               string    `json:"body"`
	Tags               []string  `json:"tags"`
	State              string    `json:"state" example:"generated"`
	AverageSourceScore float64   `json:"average_source_score"`
	SourceIDsUsed      []string  `json:"source_ids_used"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ImageDTO struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	AltText       string `json:"alt_text"`
	Caption       string `json:"caption"`
	License       string `json:"license"`
	Author        string `json:"author"`
	AuthorURL     string `json:"author_url"`
	SourcePageURL string `json:"source_page_url"`
}

// ArticleDetailDTO is an article with its attached images.
type ArticleDetailDTO struct {
	ArticleDTO
	Images []ImageDTO `json:"images"`
}

// UpdateArticleRequestDTO holds the editable fields. Omitted fields are unchanged.
type UpdateArticleRequestDTO struct {
	Title           *string  `json:"title,omitempty"`
	MetaDescription *string  `json:"meta_description,omitempty"`
	Body            *string  `json:"body,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	State           *string  `json:"state,omitempty" example:"reviewed"`
}
