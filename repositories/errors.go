package repositories

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrSourceNotFound    = errors.New("source not found")
	ErrArticleNotFound   = errors.New("generated article not found")
	ErrTaskNotFound      = errors.New("generation task not found")
	ErrConfigNotFound    = errors.New("theme configuration not found")
	ErrInvalidTransition = errors.New("invalid task state transition")
)

// ParseObjectID converts a hex string into an ObjectID, returning ErrInvalidID on malformed input.
func ParseObjectID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// pageBounds normalizes 1-based paging into (skip, limit).
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage returns the page and page size a list query actually uses.
func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

func pageBounds(page, pageSize int) (int64, int64) {
	page, pageSize = NormalizePage(page, pageSize)
	return int64((page - 1) * pageSize), int64(pageSize)
}
