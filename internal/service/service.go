// Package service implements the conversation orchestrator.
package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/xiaot623/companion/internal/adapter/llm"
	"github.com/xiaot623/companion/internal/config"
	"github.com/xiaot623/companion/internal/domain"
	"github.com/xiaot623/companion/internal/repository"
	"github.com/xiaot623/companion/policy"
	"go.uber.org/zap"
)

// Notifier receives every message after it is persisted.
type Notifier interface {
	Publish(sessionID string, msg *domain.Message)
}

// FailurePolicy decides whether a provider failure is returned or replaced.
type FailurePolicy interface {
	Evaluate(ctx context.Context, in policy.FailureInput) (policy.Decision, error)
}

type Service struct {
	store        store.Store
	provider     llm.Provider
	policyEngine FailurePolicy
	notifier     Notifier
	config       *config.Config
	logger       *zap.Logger

	intn func(n int) int
	now  func() time.Time
}

// New creates the service. notifier may be nil.
func New(store store.Store, provider llm.Provider, policyEngine FailurePolicy, notifier Notifier, cfg *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		provider:     provider,
		policyEngine: policyEngine,
		notifier:     notifier,
		config:       cfg,
		logger:       logger,
		intn:         rand.IntN,
		now:          time.Now,
	}
}

// ProviderName returns the name of the active provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) publish(msg *domain.Message) {
	if s.notifier != nil && msg != nil {
		s.notifier.Publish(msg.SessionID, msg)
	}
}
