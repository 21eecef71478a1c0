// Package assistant implements the keyword-matching chat assistant that
// answers support questions from a fixed knowledge base. Matches carry a
// confidence score; low-confidence answers suggest a live-agent transfer,
// but the transfer itself is a separate explicit client action.
package assistant

import (
	"strings"
)

const (
	// answerThreshold is the minimum confidence for a knowledge-base
	// answer to be returned directly.
	answerThreshold = 0.5
	// suggestThreshold is the confidence below which an answer also
	// suggests escalating to a live agent.
	suggestThreshold = 0.7
	// maxConfidence caps the scaled match confidence.
	maxConfidence = 0.98
)

type Entry struct {
	Category   string
	Keywords   []string
	Answer     string
	Confidence float64
}

type Reply struct {
	Message          string  `json:"message"`
	Confidence       float64 `json:"confidence"`
	Source           string  `json:"source"`
	Category         string  `json:"category,omitempty"`
	SuggestLiveAgent bool    `json:"suggest_live_agent"`
}

type genericResponse struct {
	triggers []string
	response string
}

type Assistant struct {
	entries          []Entry
	liveAgentPhrases []string
	generic          []genericResponse
	fallback         string
}

func New(entries []Entry) *Assistant {
	return &Assistant{
		entries:          entries,
		liveAgentPhrases: liveAgentPhrases,
		generic:          genericResponses,
		fallback:         fallbackAnswer,
	}
}

// Default returns an assistant loaded with the built-in CRM knowledge
// base.
func Default() *Assistant {
	return New(knowledgeBase)
}

type match struct {
	answer     string
	confidence float64
	category   string
}

// findAnswer scans the knowledge base for the entry whose keywords best
// match the message. Confidence scales with the fraction of the entry's
// keywords present in the message.
func (a *Assistant) findAnswer(message string) *match {
	lower := strings.ToLower(message)

	var best *match
	for _, e := range a.entries {
		var count int
		for _, kw := range e.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				count++
			}
		}
		if count == 0 {
			continue
		}

		confidence := e.Confidence * float64(count) / float64(len(e.Keywords))
		if confidence > maxConfidence {
			confidence = maxConfidence
		}

		if best == nil || confidence > best.confidence {
			best = &match{
				answer:     e.Answer,
				confidence: confidence,
				category:   e.Category,
			}
		}
	}

	return best
}

// Respond produces the assistant's reply for a free-text message.
func (a *Assistant) Respond(message string) Reply {
	if m := a.findAnswer(message); m != nil && m.confidence > answerThreshold {
		return Reply{
			Message:          m.answer,
			Confidence:       m.confidence,
			Source:           "knowledge_base",
			Category:         m.category,
			SuggestLiveAgent: m.confidence < suggestThreshold,
		}
	}

	lower := strings.ToLower(message)
	for _, phrase := range a.liveAgentPhrases {
		if strings.Contains(lower, phrase) {
			return Reply{
				Message:          "I understand you'd like to speak with a live agent. Let me connect you!",
				Confidence:       0.95,
				Source:           "escalation",
				SuggestLiveAgent: true,
			}
		}
	}

	for _, g := range a.generic {
		for _, trigger := range g.triggers {
			if strings.Contains(lower, trigger) {
				return Reply{
					Message:          g.response,
					Confidence:       0.6,
					Source:           "generic",
					SuggestLiveAgent: true,
				}
			}
		}
	}

	return Reply{
		Message:          a.fallback,
		Confidence:       0.3,
		Source:           "fallback",
		SuggestLiveAgent: true,
	}
}
