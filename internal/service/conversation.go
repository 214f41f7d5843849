package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/companion/internal/adapter/llm"
	"github.com/xiaot623/companion/internal/domain"
	"github.com/xiaot623/companion/policy"
	"go.uber.org/zap"
)

// FallbackReply answers the user when generation failed and the policy chose not
// to surface the error.
const FallbackReply = "Okay bestie, I'm having a little technical moment right now, but I'm still here for you! Can you tell me more about what's going on? 💙✨"

// Reply is the outcome of one conversation turn.
type Reply struct {
	UserMessage *domain.Message
	AIMessage   *domain.Message
	// Fallback is set when AIMessage is FallbackReply rather than generated text.
	Fallback bool
}

// Respond persists the user's utterance, generates a reply from the recent history
// and persists it. A generation failure either returns *GenerationError or yields
// the fallback reply, as the failure policy decides; the user message stays stored
// in both cases.
func (s *Service) Respond(ctx context.Context, sessionID string, req domain.SendMessageRequest) (*Reply, error) {
	text, err := normalizeText(req.Text)
	if err != nil {
		return nil, err
	}
	name, err := normalizeDisplayName(req.Name())
	if err != nil {
		return nil, err
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = displayName(session)
	}

	// History is read before the new utterance is stored so it is never sent twice.
	history, err := s.store.ListRecentMessages(ctx, sessionID, s.config.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	turns := make([]domain.Turn, 0, len(history)+1)
	for _, m := range history {
		turns = append(turns, domain.TurnFromMessage(m))
	}
	turns = append(turns, domain.Turn{Role: domain.SenderUser, Content: text})

	systemPrompt := BuildSystemPrompt(name, text)

	sentiment, err := json.Marshal(AnalyzeSentiment(text))
	if err != nil {
		return nil, fmt.Errorf("failed to encode sentiment: %w", err)
	}
	userMsg, err := s.store.AppendMessage(ctx, sessionID, text, domain.SenderUser, sentiment)
	if err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}
	s.publish(userMsg)

	genCtx, cancel := context.WithTimeout(ctx, s.config.LLMTimeout)
	defer cancel()

	start := s.now()
	output, genErr := s.provider.Respond(genCtx, turns, systemPrompt)
	latency := s.now().Sub(start)

	if genErr != nil {
		return s.handleFailure(ctx, userMsg, genErr, latency)
	}

	aiMsg, err := s.saveReply(ctx, sessionID, output, domain.ReplyMetadata{
		Provider:  s.provider.Name(),
		LatencyMs: latency.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reply generated",
		zap.String("session_id", sessionID),
		zap.String("provider", s.provider.Name()),
		zap.Int("history", len(history)),
		zap.Duration("latency", latency))

	return &Reply{UserMessage: userMsg, AIMessage: aiMsg}, nil
}

func (s *Service) handleFailure(ctx context.Context, userMsg *domain.Message, genErr error, latency time.Duration) (*Reply, error) {
	kind := llm.Classify(genErr)
	status := llm.StatusCode(genErr)

	decision, err := s.policyEngine.Evaluate(ctx, policy.FailureInput{
		Kind:     string(kind),
		Status:   status,
		Provider: s.provider.Name(),
	})
	if err != nil {
		s.logger.Error("failure policy evaluation failed", zap.Error(err))
		decision = policy.DecisionRethrow
	}

	s.logger.Warn("generation failed",
		zap.String("session_id", userMsg.SessionID),
		zap.String("provider", s.provider.Name()),
		zap.String("kind", string(kind)),
		zap.Int("status", status),
		zap.String("decision", string(decision)),
		zap.Duration("latency", latency),
		zap.Error(genErr))

	if decision == policy.DecisionRethrow {
		return nil, &GenerationError{
			Provider:   s.provider.Name(),
			Kind:       kind,
			StatusCode: status,
			Err:        genErr,
		}
	}

	meta := domain.ReplyMetadata{Provider: s.provider.Name(), LatencyMs: latency.Milliseconds(), Fallback: true}
	if s.config.PersistFallback {
		aiMsg, err := s.saveReply(ctx, userMsg.SessionID, FallbackReply, meta)
		if err != nil {
			return nil, err
		}
		return &Reply{UserMessage: userMsg, AIMessage: aiMsg, Fallback: true}, nil
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reply metadata: %w", err)
	}
	return &Reply{
		UserMessage: userMsg,
		AIMessage: &domain.Message{
			MessageID: uuid.New().String(),
			SessionID: userMsg.SessionID,
			Text:      FallbackReply,
			Sender:    domain.SenderAssistant,
			CreatedAt: s.now().UTC(),
			Metadata:  raw,
		},
		Fallback: true,
	}, nil
}

func (s *Service) saveReply(ctx context.Context, sessionID, text string, meta domain.ReplyMetadata) (*domain.Message, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reply metadata: %w", err)
	}
	msg, err := s.store.AppendMessage(ctx, sessionID, text, domain.SenderAssistant, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}
	s.publish(msg)
	return msg, nil
}
