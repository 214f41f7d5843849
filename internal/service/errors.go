package service

import (
	"fmt"

	"github.com/xiaot623/companion/internal/adapter/llm"
)

// GenerationError is a classified provider failure the failure policy chose to
// return instead of answering with the fallback reply.
type GenerationError struct {
	Provider   string
	Kind       llm.ErrorKind
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// UserMessage is the text callers show for a returned generation failure.
func (e *GenerationError) UserMessage() string {
	switch e.Kind {
	case llm.KindConfiguration, llm.KindUnauthorized:
		return "AI service configuration error"
	case llm.KindRateLimited:
		return "AI service temporarily unavailable due to high demand"
	case llm.KindTimeout:
		return "AI service timed out"
	default:
		return "AI service unavailable"
	}
}
