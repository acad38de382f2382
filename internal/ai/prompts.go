package ai

import (
	"fmt"
	"strings"
)

const (
	RefusalText       = "This question is outside quiz domains. Ask a quiz-domain question."
	FallbackText      = "I am having trouble connecting. Please ask again."
	NotConfiguredText = "AI key is not configured. Please set GEMINI_API_KEY."
	EmptyResponseText = "I could not generate a response."

	MaxAnswerWords = 35

	TranscriptionPrompt = "Transcribe this short quiz question audio accurately in plain English only."

	HostIntro = "Digital University Ask AI Quiz is online. Welcome teams."

	askAIIntroTemplate = "{team}, your mic is now enabled. Ask your quiz question."
)

// Domains are the quiz topics the host is allowed to answer.
var Domains = []string{
	"science", "technology", "AI", "mathematics", "history",
	"geography", "current affairs", "general knowledge",
}

var SystemInstruction = fmt.Sprintf(`You are an AI quiz host.
First classify if question is in quiz domains: %s.
If outside domain, reply exactly: %q
If in-domain, answer in one sentence under %d words and be factual.
Keep tone concise and suitable for an on-stage quiz.`,
	joinDomains(Domains), RefusalText, MaxAnswerWords)

// QuestionPrompt wraps the team's question as the user turn.
func QuestionPrompt(question string) string {
	return fmt.Sprintf("User question: %q", question)
}

// AskAIIntro is the line read out when a team gets the microphone.
func AskAIIntro(teamName string) string {
	return strings.ReplaceAll(askAIIntroTemplate, "{team}", teamName)
}

func joinDomains(d []string) string {
	if len(d) < 2 {
		return strings.Join(d, "")
	}
	return strings.Join(d[:len(d)-1], ", ") + ", or " + d[len(d)-1]
}
