package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a named asset does not exist in its namespace.
var ErrNotFound = errors.New("asset not found")

// Kind identifies an asset namespace. Each kind maps to its own subdirectory
// under the store root and its own URL prefix.
type Kind int

const (
	Audio Kind = iota
	Covers
	Effects
)

// Dir returns the namespace subdirectory name for the kind.
func (k Kind) Dir() string {
	switch k {
	case Audio:
		return "audio"
	case Covers:
		return "covers"
	case Effects:
		return "effects"
	default:
		return "misc"
	}
}

// URLPrefix returns the API path prefix assets of this kind are served under.
func (k Kind) URLPrefix() string {
	return "/api/" + k.Dir() + "/"
}

// Store manages on-disk placement of binary assets (audio files, cover
// images, sound effects) under generated names. Writes to distinct names are
// independent; writes to the same name race at the byte level and the last
// writer wins on close.
type Store struct {
	root   string
	logger *logrus.Logger
}

// NewStore creates an asset store rooted at the given directory.
func NewStore(root string, logger *logrus.Logger) *Store {
	return &Store{root: root, logger: logger}
}

// Path returns the on-disk location for a named asset. The name is reduced to
// its base component so a crafted filename cannot escape the namespace.
func (s *Store) Path(kind Kind, name string) string {
	return filepath.Join(s.root, kind.Dir(), filepath.Base(name))
}

// URLFor returns the locator under which a stored asset is served.
func (s *Store) URLFor(kind Kind, name string) string {
	return kind.URLPrefix() + filepath.Base(name)
}

// Store writes the asset bytes under the given name, creating the namespace
// directory on first use. An existing asset with the same name is overwritten.
func (s *Store) Store(kind Kind, name string, r io.Reader) error {
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		return fmt.Errorf("invalid asset name: %q", name)
	}

	dir := filepath.Join(s.root, kind.Dir())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind.Dir(), err)
	}

	destPath := filepath.Join(dir, base)
	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create asset file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, r); err != nil {
		os.Remove(destPath) // don't leave a truncated asset behind
		return fmt.Errorf("failed to write asset file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"kind": kind.Dir(),
		"name": base,
	}).Debug("Stored asset")

	return nil
}

// Read returns the full contents of a named asset.
func (s *Store) Read(kind Kind, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(kind, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	return data, nil
}

// Exists reports whether a named asset is present in its namespace.
func (s *Store) Exists(kind Kind, name string) bool {
	_, err := os.Stat(s.Path(kind, name))
	return err == nil
}
