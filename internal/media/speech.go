package media

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Synthesizer interface {
	// Synthesize returns encoded audio and its mime type.
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
}

// Speech serves synthesized audio as data URLs, synthesizing each distinct
// text at most once.
type Speech struct {
	cache *Cache
	synth Synthesizer
	group singleflight.Group
	log   *zap.Logger
}

// NewSpeech builds the speech path. synth may be nil when text-to-speech is
// not configured.
func NewSpeech(c *Cache, synth Synthesizer, log *zap.Logger) *Speech {
	return &Speech{cache: c, synth: synth, log: log.Named("speech")}
}

func (s *Speech) Available() bool { return s.synth != nil }

// Audio returns a data URL for text. ok is false when synthesis is not
// configured or failed; callers fall back to silence.
func (s *Speech) Audio(ctx context.Context, text string) (string, bool) {
	if s.synth == nil {
		return "", false
	}
	key := NormalizeText(text)
	if key == "" {
		return "", false
	}
	if url, ok := s.cache.Get(ctx, key); ok {
		s.log.Debug("speech cache hit", zap.Int("chars", len(key)))
		return url, true
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if url, ok := s.cache.Get(ctx, key); ok {
			return url, nil
		}
		data, mimeType, err := s.synth.Synthesize(ctx, text)
		if err != nil {
			return "", err
		}
		url := DataURL(mimeType, data)
		if err := s.cache.Put(ctx, key, url); err != nil {
			s.log.Warn("speech cache write failed", zap.Error(err))
		}
		return url, nil
	})
	if err != nil {
		s.log.Warn("speech synthesis failed", zap.Error(err))
		return "", false
	}
	return v.(string), true
}
