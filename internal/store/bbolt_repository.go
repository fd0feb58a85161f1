package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"relay/internal/types"
)

var (
	bucketAppState    = []byte("app_state")
	bucketSessionMeta = []byte("session_meta")
	keyAppState       = []byte("state")
)

type bboltRepository struct {
	db       *bolt.DB
	appState AppStateStore
	meta     SessionMetaStore
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:       db,
		appState: &bboltAppStateStore{db: db},
		meta:     &bboltSessionMetaStore{db: db},
	}, nil
}

func (r *bboltRepository) AppState() AppStateStore {
	return r.appState
}

func (r *bboltRepository) SessionMeta() SessionMetaStore {
	return r.meta
}

func (r *bboltRepository) Backend() string {
	return RepositoryBackendBbolt
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAppState); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketSessionMeta); err != nil {
			return err
		}
		return nil
	})
}

type bboltAppStateStore struct {
	db *bolt.DB
}

func (s *bboltAppStateStore) Load(ctx context.Context) (*types.AppState, error) {
	state := &types.AppState{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAppState)
		if b == nil {
			return nil
		}
		raw := b.Get(keyAppState)
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, state)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *bboltAppStateStore) Save(ctx context.Context, state *types.AppState) error {
	if state == nil {
		return errors.New("state is required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAppState)
		if b == nil {
			return errors.New("app state bucket missing")
		}
		return b.Put(keyAppState, raw)
	})
}

type bboltSessionMetaStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func (s *bboltSessionMetaStore) List(ctx context.Context) ([]*types.SessionMeta, error) {
	out := make([]*types.SessionMeta, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionMeta)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var meta types.SessionMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			out = append(out, &meta)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SessionID < out[j].SessionID
	})
	return out, nil
}

func (s *bboltSessionMetaStore) Get(ctx context.Context, sessionID string) (*types.SessionMeta, bool, error) {
	var (
		out *types.SessionMeta
		ok  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionMeta)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(sessionID))
		if len(raw) == 0 {
			return nil
		}
		var meta types.SessionMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return err
		}
		out = &meta
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, ok, nil
}

func (s *bboltSessionMetaStore) Upsert(ctx context.Context, meta *types.SessionMeta) (*types.SessionMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meta == nil || meta.SessionID == "" {
		return nil, errors.New("session meta requires session_id")
	}
	existing, _, err := s.Get(ctx, meta.SessionID)
	if err != nil {
		return nil, err
	}
	normalized := normalizeSessionMeta(meta, existing)
	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionMeta)
		if b == nil {
			return errors.New("session meta bucket missing")
		}
		return b.Put([]byte(normalized.SessionID), raw)
	})
	if err != nil {
		return nil, err
	}
	copy := *normalized
	return &copy, nil
}

func (s *bboltSessionMetaStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionMeta)
		if b == nil {
			return errors.New("session meta bucket missing")
		}
		key := []byte(sessionID)
		if len(b.Get(key)) == 0 {
			return nil
		}
		found = true
		return b.Delete(key)
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrSessionMetaNotFound
	}
	return nil
}
