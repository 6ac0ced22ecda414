package dto

import "time"

type SourceDTO struct {
	ID                string    `json:"id"`
	URL               string    `json:"url"`
	Title             string    `json:"title"`
	RelevanceScore    int       `json:"relevance_score"`
	Reason            string    `json:"reason"`
	Summary           string    `json:"summary"`
	OriginDomain      string    `json:"origin_domain"`
	PublishedAt       time.Time `json:"published_at"`
	Tags              []string  `json:"tags"`
	UsedForGeneration bool      `json:"used_for_generation"`
	CreatedAt         time.Time `json:"created_at"`
}
