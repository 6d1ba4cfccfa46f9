package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
)

// Mock applies a fixed counting policy and never fails.
type Mock struct{}

func NewMock() Mock {
	return Mock{}
}

func (Mock) Summarize(_ context.Context, req Request) (*Result, error) {
	return Summarize(req.Items), nil
}

// Summarize is the deterministic policy used by Mock and as the fallback
// whenever a live summarizer fails.
func Summarize(items []Item) *Result {
	var passes, fails, needs int
	var strengths, risks []string
	for _, it := range items {
		switch it.Decision {
		case model.DecisionPass:
			passes++
		case model.DecisionFail:
			fails++
		case model.DecisionNeedMoreInfo:
			needs++
		}

		comment := strings.TrimSpace(it.Comment)
		if comment == "" {
			continue
		}
		if it.Decision == model.DecisionPass {
			strengths = append(strengths, comment)
		} else {
			risks = append(risks, comment)
		}
	}

	return &Result{
		Recommendation: recommend(passes, fails, needs),
		Narrative:      narrative(items, passes, fails, needs),
		Strengths:      capHighlights(strengths),
		Risks:          capHighlights(risks),
	}
}

func recommend(passes, fails, needs int) model.Recommendation {
	switch {
	case passes+fails+needs == 0:
		return model.RecommendationInsufficientData
	case fails >= 2:
		return model.RecommendationNoHire
	case passes >= 2 && fails == 0:
		return model.RecommendationHire
	default:
		return model.RecommendationMixed
	}
}

func narrative(items []Item, passes, fails, needs int) string {
	var b strings.Builder
	b.WriteString("Automatic summary (mock):\n")
	fmt.Fprintf(&b, "- Pass: %d, Fail: %d, Need more info: %d\n", passes, fails, needs)
	b.WriteString("- Key comments:")
	for _, it := range items {
		fmt.Fprintf(&b, "\n  - %s: %s - %s", it.ParticipantName, it.Decision, strings.TrimSpace(it.Comment))
	}
	return b.String()
}
