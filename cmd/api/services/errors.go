package services

import "errors"

var (
	ErrEmptyTopic    = errors.New("topic is required")
	ErrInvalidState  = errors.New("invalid state")
	ErrEmptyUpdate   = errors.New("no editable field in request")
	ErrTopicMismatch = errors.New("body topic does not match path topic")
)
