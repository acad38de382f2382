package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/pkg/types"
)

func newMockedRemote(t *testing.T) *Remote {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewRemote("http://quiz.test/", client)
}

func TestRemote_FetchSession(t *testing.T) {
	r := newMockedRemote(t)
	want := engine.NewDefaultSession()
	want.Version = 7
	httpmock.RegisterResponder(http.MethodGet, "http://quiz.test/api/session",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, want))

	got, err := r.FetchSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRemote_SelectTeamSendsBody(t *testing.T) {
	r := newMockedRemote(t)
	httpmock.RegisterResponder(http.MethodPost, "http://quiz.test/api/session/active-team",
		func(req *http.Request) (*http.Response, error) {
			var body types.ActiveTeamRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			s := engine.NewDefaultSession()
			s.ActiveTeamID = body.TeamID
			return httpmock.NewJsonResponse(http.StatusOK, s)
		})

	s, err := r.SelectTeam(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, "t2", s.ActiveTeamID)
}

func TestRemote_ErrorBody(t *testing.T) {
	r := newMockedRemote(t)
	httpmock.RegisterResponder(http.MethodPost, "http://quiz.test/api/session/ask-ai/judge",
		httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, types.ErrorResponse{Error: "invalid verdict"}))

	_, err := r.Judge(context.Background(), "MAYBE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid verdict")
	assert.Contains(t, err.Error(), "400")
}

func TestRemote_AsClientFetcher(t *testing.T) {
	r := newMockedRemote(t)
	httpmock.RegisterResponder(http.MethodGet, "http://quiz.test/api/session",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, engine.NewDefaultSession()))

	c := New(r, zap.NewNop())
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, c.Loading())
}
