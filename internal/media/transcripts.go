package media

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultAudioMimeType = "audio/webm"

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Transcripts turns captured audio into question text, caching by content hash.
type Transcripts struct {
	cache *Cache
	stt   Transcriber
	group singleflight.Group
	log   *zap.Logger
}

// NewTranscripts builds the voice input path. stt may be nil when
// speech-to-text is not configured.
func NewTranscripts(c *Cache, stt Transcriber, log *zap.Logger) *Transcripts {
	return &Transcripts{cache: c, stt: stt, log: log.Named("transcripts")}
}

func (t *Transcripts) Available() bool { return t.stt != nil }

// Transcribe returns the text spoken in audio. ok is false when transcription
// is unavailable or produced nothing; callers fall back to manual entry.
func (t *Transcripts) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, bool) {
	if t.stt == nil || len(audio) == 0 {
		return "", false
	}
	if mimeType == "" {
		mimeType = DefaultAudioMimeType
	}

	key := Fingerprint(audio)
	if text, ok := t.cache.Get(ctx, key); ok {
		t.log.Debug("transcript cache hit", zap.String("fingerprint", key[:12]))
		return text, true
	}

	v, err, _ := t.group.Do(key, func() (any, error) {
		if text, ok := t.cache.Get(ctx, key); ok {
			return text, nil
		}
		text, err := t.stt.Transcribe(ctx, audio, mimeType)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", nil
		}
		if err := t.cache.Put(ctx, key, text); err != nil {
			t.log.Warn("transcript cache write failed", zap.Error(err))
		}
		return text, nil
	})
	if err != nil {
		t.log.Warn("transcription failed", zap.Error(err))
		return "", false
	}
	text := v.(string)
	return text, text != ""
}
