package dto

// ThemeConfigDTO is the effective configuration of a topic.
// Stored is false when every value comes from the defaults.
type ThemeConfigDTO struct {
	ID                  string `json:"id,omitempty"`
	Topic               string `json:"topic"`
	MinSourceScore      int    `json:"min_source_score"`
	NumSearchResults    int    `json:"num_search_results"`
	NumDiscoveryResults int    `json:"num_discovery_results"`
	MinGeneratorScore   int    `json:"min_generator_score"`
	NumGeneratorSources int    `json:"num_generator_sources"`
	TextLength          string `json:"text_length" example:"medium"`
	TextTone            string `json:"text_tone" example:"neutral"`
	NumImages           int    `json:"num_images"`
	AnalyzerPrompt      string `json:"analyzer_prompt,omitempty"`
	GeneratorPrompt     string `json:"generator_prompt,omitempty"`
	Stored              bool   `json:"stored"`
}

// ThemeConfigRequestDTO is the PUT body. Zero values fall back to the defaults;
// num_images falls back only when omitted, 0 disables images.
type ThemeConfigRequestDTO struct {
	Topic               string `json:"topic,omitempty"`
	MinSourceScore      int    `json:"min_source_score"`
	NumSearchResults    int    `json:"num_search_results"`
	NumDiscoveryResults int    `json:"num_discovery_results"`
	MinGeneratorScore   int    `json:"min_generator_score"`
	NumGeneratorSources int    `json:"num_generator_sources"`
	TextLength          string `json:"text_length"`
	TextTone            string `json:"text_tone"`
	NumImages           *int   `json:"num_images,omitempty"`
	AnalyzerPrompt      string `json:"analyzer_prompt,omitempty"`
	GeneratorPrompt     string `json:"generator_prompt,omitempty"`
}

type TopicsDTO struct {
	Topics []string `json:"topics"`
}
