package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ttsURL = "https://tts.test/v1/text-to-speech/voice-1"

func newMockedClient(t *testing.T) *ElevenLabs {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	return NewElevenLabs(Config{
		BaseURL: "https://tts.test",
		APIKey:  " secret ",
		VoiceID: "voice-1",
	}, client)
}

func TestElevenLabs_Synthesize(t *testing.T) {
	el := newMockedClient(t)

	var got synthesizeRequest
	httpmock.RegisterResponder(http.MethodPost, ttsURL,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "secret", req.Header.Get("xi-api-key"))
			assert.Equal(t, DefaultOutputFormat, req.URL.Query().Get("output_format"))
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			return httpmock.NewBytesResponse(http.StatusOK, []byte{0xFF, 0xFB, 0x90}), nil
		})

	long := strings.Repeat("a", MaxChars+50)
	audio, mimeType, err := el.Synthesize(context.Background(), long)
	require.NoError(t, err)

	assert.Equal(t, []byte{0xFF, 0xFB, 0x90}, audio)
	assert.Equal(t, "audio/mpeg", mimeType)
	assert.Len(t, got.Text, MaxChars)
	assert.Equal(t, DefaultModelID, got.ModelID)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestElevenLabs_ErrorStatus(t *testing.T) {
	el := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, ttsURL,
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"detail":"quota"}`))

	_, _, err := el.Synthesize(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestElevenLabs_EmptyBody(t *testing.T) {
	el := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, ttsURL, httpmock.NewBytesResponder(http.StatusOK, nil))

	_, _, err := el.Synthesize(context.Background(), "hello")
	require.Error(t, err)
}

func TestNewElevenLabs_Unconfigured(t *testing.T) {
	assert.Nil(t, NewElevenLabs(Config{APIKey: "k"}, nil))
	assert.Nil(t, NewElevenLabs(Config{VoiceID: "v"}, nil))
	assert.NotNil(t, NewElevenLabs(Config{APIKey: "k", VoiceID: "v"}, nil))
}

func TestMimeType(t *testing.T) {
	cases := map[string]string{
		"mp3_44100_128": "audio/mpeg",
		"pcm_16000":     "audio/pcm",
		"ulaw_8000":     "audio/basic",
		"opus_48000_64": "audio/opus",
		"":              "audio/mpeg",
	}
	for format, want := range cases {
		assert.Equal(t, want, MimeType(format), format)
	}
}
