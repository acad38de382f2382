package session

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/store"
)

const Key = "quiz_session_v2"

// Store owns the persisted session record. Writes are whole-record overwrites
// guarded by the version observed at load.
type Store struct {
	kv  store.KV
	log *zap.Logger
}

func NewStore(kv store.KV, log *zap.Logger) *Store {
	return &Store{kv: kv, log: log.Named("store")}
}

// Load returns the normalized persisted session and the version it was read
// at. A missing or unparsable record yields the default session; corruption
// never blocks the round.
func (s *Store) Load(ctx context.Context) (engine.Session, error) {
	entry, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return engine.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return engine.NewDefaultSession(), nil
	}

	sess := engine.NewDefaultSession()
	if err := json.Unmarshal(entry.Value, &sess); err != nil {
		s.log.Warn("stored session is malformed, using default", zap.Error(err))
		sess = engine.NewDefaultSession()
	} else {
		sess = engine.Normalize(sess)
	}
	sess.Version = entry.Version
	return sess, nil
}

// Save persists sess if the stored version still equals sess.Version. The
// returned session carries the new version.
func (s *Store) Save(ctx context.Context, sess engine.Session) (engine.Session, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return sess, fmt.Errorf("encode session: %w", err)
	}
	v, err := s.kv.Put(ctx, Key, data, sess.Version)
	if err != nil {
		return sess, fmt.Errorf("save session: %w", err)
	}
	sess.Version = v
	return sess, nil
}
