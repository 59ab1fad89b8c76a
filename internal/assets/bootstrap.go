package assets

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultCoverName is the well-known name of the shared default cover image.
// Every song without extractable cover art points at this asset.
const DefaultCoverName = "default_cover.jpg"

// EffectNames are the ambience sound files the playback client expects.
var EffectNames = []string{"rain.mp3", "thunder.mp3"}

// effectStub is a minimal MPEG frame header used to seed missing effect
// files so the endpoints always resolve. Real sound content is expected to
// be dropped in by the operator.
var effectStub = []byte{
	0xFF, 0xFB, 0x90, 0x44, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// EnsureDefaults prepares the store for serving traffic: it creates all
// namespace directories, materializes the shared default cover and seeds the
// expected effect files. It is idempotent and safe to call concurrently;
// racing callers converge on one valid file per name.
func (s *Store) EnsureDefaults(coverSourceURL string) error {
	for _, kind := range []Kind{Audio, Covers, Effects} {
		dir := filepath.Join(s.root, kind.Dir())
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", kind.Dir(), err)
		}
	}

	s.ensureDefaultCover(coverSourceURL)
	s.ensureEffects()
	return nil
}

// ensureDefaultCover fetches the placeholder cover image if it is not present
// yet. A fetch failure degrades to an empty placeholder file so the default
// cover locator always resolves.
func (s *Store) ensureDefaultCover(sourceURL string) {
	if s.Exists(Covers, DefaultCoverName) {
		return
	}

	data, err := fetchCover(sourceURL)
	if err != nil {
		s.logger.WithError(err).WithField("url", sourceURL).Warn("Could not fetch default cover, creating empty placeholder")
		data = nil
	}

	if err := s.Store(Covers, DefaultCoverName, bytes.NewReader(data)); err != nil {
		s.logger.WithError(err).Error("Failed to create default cover")
		return
	}

	s.logger.WithField("path", s.Path(Covers, DefaultCoverName)).Info("Created default cover")
}

// ensureEffects seeds any missing ambience files with a stub MPEG header.
func (s *Store) ensureEffects() {
	for _, name := range EffectNames {
		if s.Exists(Effects, name) {
			continue
		}
		if err := s.Store(Effects, name, bytes.NewReader(effectStub)); err != nil {
			s.logger.WithError(err).WithField("effect", name).Error("Failed to create effect file")
			continue
		}
		s.logger.WithField("effect", name).Info("Created placeholder effect file")
	}
}

func fetchCover(sourceURL string) ([]byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(sourceURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching default cover", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefaultCoverURL returns the locator of the shared default cover.
func (s *Store) DefaultCoverURL() string {
	return s.URLFor(Covers, DefaultCoverName)
}
