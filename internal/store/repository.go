package store

import (
	"errors"
	"fmt"
	"strings"
)

const (
	RepositoryBackendFile  = "file"
	RepositoryBackendBbolt = "bbolt"
)

// Repository bundles the persistent stores behind one handle so callers can
// swap the flat-file backend for bbolt via configuration.
type Repository interface {
	AppState() AppStateStore
	SessionMeta() SessionMetaStore
	Backend() string
	Close() error
}

type RepositoryPaths struct {
	AppStatePath    string
	SessionMetaPath string
	DBPath          string
}

type fileRepository struct {
	appState AppStateStore
	meta     SessionMetaStore
}

func NewFileRepository(paths RepositoryPaths) Repository {
	return &fileRepository{
		appState: NewFileAppStateStore(paths.AppStatePath),
		meta:     NewFileSessionMetaStore(paths.SessionMetaPath),
	}
}

func (r *fileRepository) AppState() AppStateStore {
	return r.appState
}

func (r *fileRepository) SessionMeta() SessionMetaStore {
	return r.meta
}

func (r *fileRepository) Backend() string {
	return RepositoryBackendFile
}

func (r *fileRepository) Close() error {
	return nil
}

func OpenRepository(paths RepositoryPaths, backend string) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", RepositoryBackendFile:
		return NewFileRepository(paths), nil
	case RepositoryBackendBbolt:
		if strings.TrimSpace(paths.DBPath) == "" {
			return nil, errors.New("db path is required for bbolt repository")
		}
		return NewBboltRepository(paths.DBPath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
