// Package summary consolidates interviewer feedback into a hiring
// recommendation.
package summary

import (
	"context"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
)

const maxHighlights = 5

type Item struct {
	ParticipantName string
	Decision        model.FeedbackDecision
	Comment         string
}

type Request struct {
	CandidateName string
	JobTitle      string
	Items         []Item
}

type Result struct {
	Recommendation model.Recommendation `json:"recommendation"`
	Narrative      string               `json:"narrative"`
	Strengths      []string             `json:"strengths"`
	Risks          []string             `json:"risks"`
}

type Summarizer interface {
	Summarize(ctx context.Context, req Request) (*Result, error)
}

func capHighlights(in []string) []string {
	if len(in) > maxHighlights {
		return in[:maxHighlights]
	}
	return in
}
