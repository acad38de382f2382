package engine

const (
	SessionID      = "session-ask-ai"
	PointsPerRound = 20
	RoundTypeAskAI = "ASK_AI"
)

var defaultRoster = []Team{
	{ID: "t1", Name: "Team 1"},
	{ID: "t2", Name: "Team 2"},
	{ID: "t3", Name: "Team 3"},
	{ID: "t4", Name: "Team 4"},
	{ID: "t5", Name: "Team 5"},
	{ID: "t6", Name: "Team 6"},
}

var defaultQuestion = Question{
	ID:        "ask-ai-main",
	Text:      "Ask AI Round: Ask a quiz-domain question to the AI host.",
	RoundType: RoundTypeAskAI,
	Points:    PointsPerRound,
	TimeLimit: 60,
}
