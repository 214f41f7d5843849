package service

import (
	"strings"

	"github.com/xiaot623/companion/internal/domain"
)

var (
	negativeKeywords = []string{"sad", "depressed", "anxious", "worried", "stressed", "overwhelmed", "hopeless", "suicidal", "hurt", "pain"}
	positiveKeywords = []string{"happy", "good", "great", "excited", "better", "improved", "grateful", "hopeful"}
	urgentKeywords   = []string{"help", "emergency", "crisis", "suicidal", "hurt myself", "can't take it", "end it all"}
)

var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"academic stress", []string{"school", "college", "study"}},
	{"family issues", []string{"family", "parent", "mom", "dad"}},
	{"relationships", []string{"friend", "social", "relationship"}},
	{"work/career", []string{"work", "job", "career"}},
	{"financial stress", []string{"money", "financial", "broke"}},
}

// AnalyzeSentiment tags a message by keyword counts.
func AnalyzeSentiment(text string) domain.SentimentAnalysis {
	lower := strings.ToLower(text)

	negative := countContained(lower, negativeKeywords)
	positive := countContained(lower, positiveKeywords)
	urgent := countContained(lower, urgentKeywords)

	result := domain.SentimentAnalysis{
		Sentiment: domain.SentimentNeutral,
		Urgency:   domain.UrgencyLow,
		Topics:    []string{},
	}

	switch {
	case urgent > 0:
		result.Urgency = domain.UrgencyHigh
	case negative > 2:
		result.Urgency = domain.UrgencyMedium
	}

	switch {
	case negative > positive:
		result.Sentiment = domain.SentimentNegative
	case positive > negative:
		result.Sentiment = domain.SentimentPositive
	}

	for _, t := range topicKeywords {
		if countContained(lower, t.keywords) > 0 {
			result.Topics = append(result.Topics, t.topic)
		}
	}

	return result
}

func countContained(s string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(s, k) {
			n++
		}
	}
	return n
}
