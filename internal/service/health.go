package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/companion/internal/adapter/llm"
)

// CheckProvider checks the active provider when it supports a cheap check and
// returns a sample greeting.
func (s *Service) CheckProvider(ctx context.Context) (string, error) {
	if checker, ok := s.provider.(llm.HealthChecker); ok {
		checkCtx, cancel := context.WithTimeout(ctx, s.config.LLMTimeout)
		defer cancel()
		if err := checker.Check(checkCtx); err != nil {
			return "", fmt.Errorf("%s health check failed: %w", s.provider.Name(), err)
		}
	}
	return s.Greeting(""), nil
}
