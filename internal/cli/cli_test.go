package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/askai-quiz-backend/internal/ai"
	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/httpapi"
	"github.com/DoyleJ11/askai-quiz-backend/internal/media"
	"github.com/DoyleJ11/askai-quiz-backend/internal/session"
	"github.com/DoyleJ11/askai-quiz-backend/internal/store"
)

type echoModel struct{}

func (echoModel) Generate(context.Context, ai.Request) (ai.Answer, error) {
	return ai.Answer{Text: "Paris is the capital of France."}, nil
}

type toneSynth struct{}

func (toneSynth) Synthesize(context.Context, string) ([]byte, string, error) {
	return []byte{1, 2, 3, 4}, "audio/mpeg", nil
}

func newServer(t *testing.T) (*httptest.Server, *session.Service) {
	t.Helper()
	log := zaptest.NewLogger(t)
	kv := store.NewMemory()
	caches := media.NewCaches(kv, log)
	svc := session.NewService(session.NewStore(kv, log), log, session.WithPurgers(caches))

	srv := httptest.NewServer(httpapi.SetupRoutes(httpapi.Deps{
		Sessions: svc,
		AI:       ai.NewOrchestrator(svc, echoModel{}, log),
		Speech:   media.NewSpeech(caches.Speech, toneSynth{}, log),
		Log:      log,
	}))
	t.Cleanup(srv.Close)
	return srv, svc
}

func execute(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(&Dependencies{Out: &out, HTTPClient: srv.Client(), Log: zaptest.NewLogger(t)})
	root.SetArgs(append([]string{"--server", srv.URL}, args...))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestCLI_PlaysARound(t *testing.T) {
	srv, svc := newServer(t)

	steps := [][]string{
		{"status", "live"},
		{"select", "t2"},
		{"listen"},
		{"ask", "What", "is", "the", "capital", "of", "France?"},
		{"judge", "ai_wrong"},
	}
	var out string
	for _, args := range steps {
		var err error
		out, err = execute(t, srv, args...)
		require.NoError(t, err, args)
	}

	assert.Contains(t, out, "Verdict: AI_WRONG")
	assert.Contains(t, out, "Paris is the capital of France.")

	s, err := svc.Get(context.Background())
	require.NoError(t, err)
	team, _ := s.Team("t2")
	assert.Equal(t, engine.PointsPerRound, team.Score)
	assert.Equal(t, engine.StatusLive, s.Status)
}

func TestCLI_RejectsBadArguments(t *testing.T) {
	srv, _ := newServer(t)

	_, err := execute(t, srv, "status", "paused")
	assert.ErrorContains(t, err, "unknown status")

	_, err = execute(t, srv, "judge", "maybe")
	assert.ErrorContains(t, err, "unknown verdict")

	_, err = execute(t, srv, "purge")
	assert.ErrorContains(t, err, "--yes")
}

func TestCLI_PurgeAndShow(t *testing.T) {
	srv, svc := newServer(t)
	_, err := svc.SetActiveTeam(context.Background(), "t6")
	require.NoError(t, err)

	out, err := execute(t, srv, "purge", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Active team: none")

	out, err = execute(t, srv, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: PREVIEW")
}

func TestCLI_Say(t *testing.T) {
	srv, _ := newServer(t)
	path := t.TempDir() + "/intro.mp3"

	out, err := execute(t, srv, "say", "--out", path, ai.HostIntro)
	require.NoError(t, err)
	assert.Contains(t, out, "audio saved")
}

func TestDecodeDataURL(t *testing.T) {
	b, err := decodeDataURL(media.DataURL("audio/mpeg", []byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)

	_, err = decodeDataURL("https://example.org/a.mp3")
	assert.Error(t, err)
}
