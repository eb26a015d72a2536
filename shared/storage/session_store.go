package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const (
	analysisFileName = "analysis_data.json"
	mediaDirName     = "media"
	lockFileName     = ".lock"
)

// ErrInvalidSession is returned for session identifiers that are not a
// single path element.
var ErrInvalidSession = errors.New("invalid session id")

// SessionStore lays out the artifacts of each traversal session under
// <baseDir>/<sessionID>/. Repeated runs for the same session overwrite in place.
type SessionStore struct {
	baseDir string
}

func NewSessionStore(baseDir string) (*SessionStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &SessionStore{baseDir: baseDir}, nil
}

// BaseDir returns the store's root directory.
func (s *SessionStore) BaseDir() string {
	return s.baseDir
}

func (s *SessionStore) sessionDir(sessionID string) (string, error) {
	if sessionID == "" || sessionID == "." || sessionID == ".." ||
		strings.ContainsAny(sessionID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}
	dir := filepath.Join(s.baseDir, sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return dir, nil
}

// MediaDir returns (and creates) the media namespace of a session.
func (s *SessionStore) MediaDir(sessionID string) (string, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	mediaDir := filepath.Join(dir, mediaDirName)
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	return mediaDir, nil
}

// Lock takes an exclusive file lock on the session so that two processes
// never write the same session's artifacts at once. Call the returned
// function to release it.
func (s *SessionStore) Lock(sessionID string) (func() error, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock session %s: %w", sessionID, err)
	}
	return lock.Unlock, nil
}

// Discard removes a session directory that holds no artifacts, only the lock
// file and an empty media directory. Sessions with saved data are left alone.
func (s *SessionStore) Discard(sessionID string) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read session directory: %w", err)
	}
	for _, e := range entries {
		switch {
		case e.Name() == lockFileName && !e.IsDir():
		case e.Name() == mediaDirName && e.IsDir():
			media, err := os.ReadDir(filepath.Join(dir, mediaDirName))
			if err != nil {
				return fmt.Errorf("failed to read media directory: %w", err)
			}
			if len(media) > 0 {
				return nil
			}
		default:
			return nil
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove session %s: %w", sessionID, err)
	}
	return nil
}

// SaveSessionData writes the session JSON document and returns its path.
func (s *SessionStore) SaveSessionData(sessionID string, data any) (string, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return "", err
	}

	encoded, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode session data: %w", err)
	}

	path := filepath.Join(dir, analysisFileName)
	if err := writeFileAtomic(path, encoded); err != nil {
		return "", err
	}
	return path, nil
}

// LoadSessionData decodes a previously saved session JSON document into v.
func (s *SessionStore) LoadSessionData(sessionID string, v any) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(dir, analysisFileName))
	if err != nil {
		return fmt.Errorf("failed to read session data: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode session data: %w", err)
	}
	return nil
}

// SaveReport writes the report document and returns its path.
func (s *SessionStore) SaveReport(sessionID, content string) (string, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, reportFileName(sessionID))
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}

// LoadReport returns the saved report of a session.
func (s *SessionStore) LoadReport(sessionID string) (string, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, reportFileName(sessionID)))
	if err != nil {
		return "", fmt.Errorf("failed to read report: %w", err)
	}
	return string(data), nil
}

func reportFileName(sessionID string) string {
	return fmt.Sprintf("report_%s.md", sessionID)
}

// writeFileAtomic writes via a temp file in the same directory and renames
// it over path, so readers never observe a half-written artifact.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
