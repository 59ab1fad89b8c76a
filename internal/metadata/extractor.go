package metadata

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/dhowden/tag"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Extractor recovers embedded cover art and playback duration from stored
// audio files. Extraction is best-effort: any parse fault degrades to an
// explicit "not found" result and never propagates to the caller.
type Extractor struct {
	logger *logrus.Logger
}

// NewExtractor creates a new metadata extractor
func NewExtractor(logger *logrus.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// CoverResult is the outcome of a cover art extraction attempt. Found is
// false for every fault class alike: missing file, unreadable tags, empty
// tag set, or no embedded picture frame. Callers branch on Found, not on
// the reason.
type CoverResult struct {
	Found bool
	Data  []byte
}

// ExtractCover scans the file's tag frames for an embedded picture and
// returns its raw bytes. The first picture frame wins.
func (e *Extractor) ExtractCover(path string) CoverResult {
	file, err := os.Open(path)
	if err != nil {
		e.logger.WithError(err).WithField("path", path).Warn("Could not open file for cover extraction")
		return CoverResult{}
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.WithError(err).WithField("path", path).Debug("No readable tags, using default cover")
		return CoverResult{}
	}

	picture := meta.Picture()
	if picture == nil || len(picture.Data) == 0 {
		e.logger.WithField("path", path).Debug("No embedded picture frame, using default cover")
		return CoverResult{}
	}

	return CoverResult{Found: true, Data: picture.Data}
}

// Duration computes the playback length of an MP3 file in seconds by walking
// its frames. Callers treat any error as "duration unknown" (zero). Formats
// other than MP3 are never passed here; their duration stays at the zero
// placeholder by contract.
func (e *Extractor) Duration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	dec := mp3.NewDecoder(file)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 { // could not decode any frame
				return 0, err
			}
			break // partial decode; use what we have
		}
		total += fr.Duration()
		frames++
	}
	return total.Seconds(), nil
}

// ImageMimeType guesses the MIME type of raw image bytes by magic number.
func ImageMimeType(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}

	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
		return "image/gif"
	}

	return "application/octet-stream"
}
