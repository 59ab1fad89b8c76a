package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"lessup/internal/assets"
	"lessup/internal/catalog"
	"lessup/internal/metadata"
	"lessup/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// allowedExtensions is the closed set of audio formats accepted for upload.
var allowedExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".ogg": true,
	".m4a": true,
}

// UploadRequest carries one upload through the pipeline. File is nil when the
// request had no file payload at all.
type UploadRequest struct {
	File        io.Reader
	Filename    string
	ContentType string
	Title       string
	Artist      string
}

// Pipeline turns a raw upload into a validated, persisted catalog record. It
// is the only component with a multi-step protocol: validate, derive an
// identity, persist the audio bytes, enrich with best-effort metadata, then
// append to the catalog. The audio asset is always durably stored before the
// catalog append is attempted, so a recorded song always has resolvable audio.
type Pipeline struct {
	assets    *assets.Store
	extractor *metadata.Extractor
	catalog   *catalog.Store
	logger    *logrus.Logger
}

// New creates an ingestion pipeline over the given collaborators.
func New(assetStore *assets.Store, extractor *metadata.Extractor, catalogStore *catalog.Store, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		assets:    assetStore,
		extractor: extractor,
		catalog:   catalogStore,
		logger:    logger,
	}
}

// Ingest runs one upload end-to-end and returns the persisted song record.
// Validation failures short-circuit before any side effect. Storage failures
// abort the pipeline but leave earlier side effects in place: an orphaned
// audio file beats a catalog entry with no audio.
func (p *Pipeline) Ingest(req UploadRequest) (models.Song, error) {
	if req.File == nil {
		return models.Song{}, &ValidationError{Message: "No file part"}
	}
	if req.Filename == "" {
		return models.Song{}, &ValidationError{Message: "No selected file"}
	}

	songID := uuid.NewString()

	extension, err := resolveExtension(req.Filename, req.ContentType)
	if err != nil {
		return models.Song{}, err
	}

	audioName := songID + extension
	if err := p.assets.Store(assets.Audio, audioName, req.File); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"song_id": songID,
			"stage":   "audio_persist",
		}).Error("Failed to store uploaded audio")
		return models.Song{}, &StorageError{Op: "store audio", Err: err}
	}

	coverURL, duration := p.enrich(songID, extension)

	title := req.Title
	if title == "" {
		title = "Untitled"
	}
	artist := req.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}

	song := models.Song{
		ID:         songID,
		Title:      title,
		Artist:     artist,
		URL:        p.assets.URLFor(assets.Audio, audioName),
		CoverURL:   coverURL,
		Duration:   duration,
		UploadDate: time.Now().Unix(),
	}

	if err := p.catalog.Append(song); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"song_id": songID,
			"stage":   "catalog_append",
		}).Error("Failed to append song to catalog")
		return models.Song{}, &StorageError{Op: "append catalog record", Err: err}
	}

	p.logger.WithFields(logrus.Fields{
		"song_id":  songID,
		"title":    title,
		"artist":   artist,
		"duration": duration,
	}).Info("Upload ingested")

	return song, nil
}

// enrich performs the best-effort metadata step. Only MP3 files are examined;
// every other accepted format keeps the zero duration placeholder and the
// default cover unconditionally. Extraction faults never abort ingestion.
func (p *Pipeline) enrich(songID, extension string) (coverURL string, duration float64) {
	coverURL = p.assets.DefaultCoverURL()

	if extension != ".mp3" {
		return coverURL, 0
	}

	audioPath := p.assets.Path(assets.Audio, songID+extension)

	if cover := p.extractor.ExtractCover(audioPath); cover.Found {
		coverName := songID + ".jpg"
		if err := p.assets.Store(assets.Covers, coverName, bytes.NewReader(cover.Data)); err != nil {
			p.logger.WithError(err).WithField("song_id", songID).Warn("Failed to store extracted cover, using default")
		} else {
			coverURL = p.assets.URLFor(assets.Covers, coverName)
		}
	}

	d, err := p.extractor.Duration(audioPath)
	if err != nil {
		p.logger.WithError(err).WithField("song_id", songID).Warn("Failed to compute duration, using 0")
		return coverURL, 0
	}

	return coverURL, d
}

// resolveExtension derives the audio format from the filename, falling back
// to the declared content type when the filename carries no extension.
func resolveExtension(filename, contentType string) (string, error) {
	extension := strings.ToLower(filepath.Ext(filepath.Base(filename)))

	if extension == "" {
		switch {
		case strings.Contains(contentType, "audio/mpeg"), strings.Contains(contentType, "audio/mp3"):
			extension = ".mp3"
		case strings.Contains(contentType, "audio/wav"):
			extension = ".wav"
		case strings.Contains(contentType, "audio/ogg"):
			extension = ".ogg"
		default:
			extension = ".mp3"
		}
	}

	if !allowedExtensions[extension] {
		return "", &ValidationError{Message: fmt.Sprintf("Unsupported file format: %s", extension)}
	}

	return extension, nil
}
