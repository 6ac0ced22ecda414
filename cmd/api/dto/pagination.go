package dto

// Pagination is the list envelope. Page is 1-based; Total counts every match.
type Pagination[T any] struct {
	Data     []T   `json:"data"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// swag 는 제네릭 타입을 잘 다루지 못해 문서용 구체 타입을 따로 둔다.

type PaginationArticleDTO struct {
	Data     []ArticleDTO `json:"data"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Total    int64        `json:"total"`
}

type PaginationSourceDTO struct {
	Data     []SourceDTO `json:"data"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}

type PaginationTaskDTO struct {
	Data     []TaskDTO `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Total    int64     `json:"total"`
}
