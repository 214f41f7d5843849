// Package domain defines the core domain models for the companion service.
package domain

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the allowed senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Sentiment is the coarse polarity of a user message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Urgency is how pressing a user message looks.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// FeedEventType is the type of an event pushed to session watchers.
type FeedEventType string

const (
	FeedEventReady          FeedEventType = "feed.ready"
	FeedEventMessageCreated FeedEventType = "message.created"
)
