package pipeline

import (
	"errors"
	"fmt"

	"content-pipeline/cmd/internal/synthesizer"
)

// State is a step of one topic-processing run.
type State string

const (
	StateDiscovering        State = "DISCOVERING"
	StateSynthesizing       State = "SYNTHESIZING"
	StatePersistingArticle  State = "PERSISTING_ARTICLE"
	StateAttachingImages    State = "ATTACHING_IMAGES"
	StateMarkingSourcesUsed State = "MARKING_SOURCES_USED"
	StateRenderingPreview   State = "RENDERING_PREVIEW"
	StateDone               State = "DONE"
	StateAborted            State = "ABORTED"
)

const (
	ReasonNoSources       = "no sources found"
	ReasonSynthesisFailed = "synthesis failed"
	ReasonPersistFailed   = "persist failed"
)

var (
	ErrEmptyTopic    = errors.New("topic is required")
	ErrPersistFailed = errors.New("could not persist article")
)

// AbortError ends a run. State is where the run stopped.
type AbortError struct {
	State  State
	Reason string
	Err    error
}

func (e *AbortError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("pipeline aborted in %s: %s", e.State, e.Reason)
	}
	return fmt.Sprintf("pipeline aborted in %s: %s: %v", e.State, e.Reason, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Outcome is the failure a client branches on: "no sources found",
// "synthesis failed" or "persist failed".
func (e *AbortError) Outcome() string {
	if errors.Is(e.Err, synthesizer.ErrNoSources) {
		return ReasonNoSources
	}
	return e.Reason
}
