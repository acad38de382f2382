package ai

import (
	"context"
	"strings"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
)

type Request struct {
	Prompt            string
	SystemInstruction string
	// Search asks the model to ground its answer with live web search.
	Search bool
}

type Answer struct {
	Text  string
	Links []engine.GroundingLink
}

// Generator is the generative text model.
type Generator interface {
	Generate(ctx context.Context, req Request) (Answer, error)
}

// FilterLinks keeps citations that carry a link.
func FilterLinks(links []engine.GroundingLink) []engine.GroundingLink {
	out := make([]engine.GroundingLink, 0, len(links))
	for _, l := range links {
		if strings.TrimSpace(l.URI) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
