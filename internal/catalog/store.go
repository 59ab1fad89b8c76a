package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lessup/pkg/models"

	"github.com/sirupsen/logrus"
)

// catalogFile is the persisted representation: one JSON document holding the
// full insertion-ordered song list, rewritten whole on every mutation.
type catalogFile struct {
	Songs []models.Song `json:"songs"`
}

// Store owns the durable song catalog. All mutations run a full
// load-modify-persist cycle under an internal mutex, so concurrent appends
// cannot lose records. Reads share the same lock to keep the cycle atomic
// with respect to writers.
type Store struct {
	path   string
	logger *logrus.Logger

	mu sync.Mutex
}

// NewStore creates a catalog store persisting to the given JSON file path.
func NewStore(path string, logger *logrus.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// LoadAll returns every song in the catalog in insertion order. A missing
// catalog file is initialized to an empty catalog; a corrupt one is logged
// and replaced with a fresh empty catalog. The returned slice is never nil.
func (s *Store) LoadAll() ([]models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Append adds a song to the catalog and persists the whole catalog. The
// load-append-persist cycle is serialized against all other mutations.
func (s *Store) Append(song models.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.loadLocked()
	if err != nil {
		return err
	}

	songs = append(songs, song)
	if err := s.persistLocked(songs); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"song_id": song.ID,
		"title":   song.Title,
		"artist":  song.Artist,
	}).Info("Song added to catalog")

	return nil
}

// Count returns the number of songs currently in the catalog.
func (s *Store) Count() (int, error) {
	songs, err := s.LoadAll()
	if err != nil {
		return 0, err
	}
	return len(songs), nil
}

func (s *Store) loadLocked() ([]models.Song, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		// First use: initialize and persist an empty catalog.
		if err := s.persistLocked(nil); err != nil {
			return nil, err
		}
		return []models.Song{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		// Accepted policy: a corrupt catalog is replaced with a fresh empty
		// one, logged loudly, and never surfaced as an error.
		s.logger.WithError(err).WithField("path", s.path).Warn("Catalog file is corrupt, replacing with empty catalog")
		if err := s.persistLocked(nil); err != nil {
			return nil, err
		}
		return []models.Song{}, nil
	}

	if file.Songs == nil {
		file.Songs = []models.Song{}
	}
	return file.Songs, nil
}

// persistLocked rewrites the whole catalog file. The write goes to a temp
// file in the same directory followed by a rename, so readers never observe
// a partially written catalog.
func (s *Store) persistLocked(songs []models.Song) error {
	if songs == nil {
		songs = []models.Song{}
	}

	data, err := json.MarshalIndent(catalogFile{Songs: songs}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create catalog temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close catalog temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}

	return nil
}
