package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"lessup/internal/assets"
	"lessup/internal/catalog"
	"lessup/internal/metadata"
	"lessup/internal/testutil"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	pipeline *Pipeline
	assets   *assets.Store
	catalog  *catalog.Store
	root     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	root := t.TempDir()
	assetStore := assets.NewStore(root, logger)
	catalogStore := catalog.NewStore(filepath.Join(root, "songs_db.json"), logger)
	extractor := metadata.NewExtractor(logger)

	return &testEnv{
		pipeline: New(assetStore, extractor, catalogStore, logger),
		assets:   assetStore,
		catalog:  catalogStore,
		root:     root,
	}
}

func (env *testEnv) audioDirEntries(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(env.root, "audio"))
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func uploadOf(data []byte, filename, contentType string) UploadRequest {
	return UploadRequest{
		File:        bytes.NewReader(data),
		Filename:    filename,
		ContentType: contentType,
		Title:       "Test",
		Artist:      "Artist",
	}
}

func TestIngestValidation(t *testing.T) {
	t.Run("NoFile", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.pipeline.Ingest(UploadRequest{})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, 0, env.audioDirEntries(t))
	})

	t.Run("EmptyFilename", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.pipeline.Ingest(UploadRequest{File: bytes.NewReader([]byte("x"))})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, 0, env.audioDirEntries(t))
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.pipeline.Ingest(uploadOf([]byte("x"), "notes.txt", "text/plain"))
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Message, ".txt")

		// Rejections must leave no side effects behind.
		assert.Equal(t, 0, env.audioDirEntries(t))
		count, err := env.catalog.Count()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestIngestExtensionInference(t *testing.T) {
	testCases := []struct {
		name        string
		filename    string
		contentType string
		wantExt     string
	}{
		{"FromFilename", "song.wav", "application/octet-stream", ".wav"},
		{"UppercaseFilename", "SONG.MP3", "", ".mp3"},
		{"MpegContentType", "song", "audio/mpeg", ".mp3"},
		{"Mp3ContentType", "song", "audio/mp3", ".mp3"},
		{"WavContentType", "song", "audio/wav", ".wav"},
		{"OggContentType", "song", "audio/ogg", ".ogg"},
		{"UnknownContentTypeDefaultsToMp3", "song", "video/mp4", ".mp3"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)

			song, err := env.pipeline.Ingest(uploadOf([]byte("payload"), tc.filename, tc.contentType))
			require.NoError(t, err)
			assert.Equal(t, "/api/audio/"+song.ID+tc.wantExt, song.URL)
		})
	}
}

func TestIngestNonMP3SkipsExtraction(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte("RIFFxxxxWAVEfmt not really wav but stored verbatim")
	song, err := env.pipeline.Ingest(uploadOf(payload, "sound.wav", "audio/wav"))
	require.NoError(t, err)

	assert.Equal(t, 0.0, song.Duration)
	assert.Equal(t, env.assets.DefaultCoverURL(), song.CoverURL)

	// The stored audio is a byte-identical copy of the upload.
	stored, err := env.assets.Read(assets.Audio, song.ID+".wav")
	require.NoError(t, err)
	assert.Equal(t, payload, stored)
}

func TestIngestMP3WithEmbeddedCover(t *testing.T) {
	env := newTestEnv(t)

	picture := testutil.JPEGStub()
	frameDur := float64(testutil.FrameDuration)
	frames := int(3.0/frameDur) + 1
	song, err := env.pipeline.Ingest(uploadOf(testutil.MP3WithCover(picture, frames), "song.mp3", "audio/mpeg"))
	require.NoError(t, err)

	assert.Equal(t, "/api/covers/"+song.ID+".jpg", song.CoverURL)
	assert.InDelta(t, 3.0, song.Duration, 0.1)

	// Byte-exact round trip of the embedded picture.
	cover, err := env.assets.Read(assets.Covers, song.ID+".jpg")
	require.NoError(t, err)
	assert.Equal(t, picture, cover)
}

func TestIngestMP3FallbackCases(t *testing.T) {
	// Missing tags, unparsable tags and tags without a picture frame must all
	// yield the same default cover locator.
	testCases := []struct {
		name string
		data []byte
	}{
		{"NoTags", testutil.MP3Frames(10)},
		{"UnparsableContent", []byte("not an mp3 at all")},
		{"TagsWithoutPicture", testutil.MP3WithoutCover("Title", 10)},
	}

	env := newTestEnv(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			song, err := env.pipeline.Ingest(uploadOf(tc.data, "song.mp3", "audio/mpeg"))
			require.NoError(t, err)
			assert.Equal(t, env.assets.DefaultCoverURL(), song.CoverURL)
		})
	}
}

func TestIngestMetadataDefaults(t *testing.T) {
	env := newTestEnv(t)

	song, err := env.pipeline.Ingest(UploadRequest{
		File:        bytes.NewReader([]byte("x")),
		Filename:    "song.mp3",
		ContentType: "audio/mpeg",
	})
	require.NoError(t, err)

	assert.Equal(t, "Untitled", song.Title)
	assert.Equal(t, "Unknown Artist", song.Artist)
	assert.NotZero(t, song.UploadDate)
}

func TestIngestGeneratesUniqueIDs(t *testing.T) {
	env := newTestEnv(t)

	// Identical content is never deduplicated.
	payload := testutil.MP3Frames(5)
	first, err := env.pipeline.Ingest(uploadOf(payload, "song.mp3", "audio/mpeg"))
	require.NoError(t, err)
	second, err := env.pipeline.Ingest(uploadOf(payload, "song.mp3", "audio/mpeg"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	songs, err := env.catalog.LoadAll()
	require.NoError(t, err)
	assert.Len(t, songs, 2)
}

func TestIngestStorageFailures(t *testing.T) {
	t.Run("AudioWriteFailure", func(t *testing.T) {
		env := newTestEnv(t)

		// A regular file where the audio namespace directory belongs makes
		// every audio write fail.
		require.NoError(t, os.WriteFile(filepath.Join(env.root, "audio"), []byte("in the way"), 0644))

		_, err := env.pipeline.Ingest(uploadOf([]byte("payload"), "song.mp3", "audio/mpeg"))
		var storageErr *StorageError
		require.ErrorAs(t, err, &storageErr)

		// Nothing was recorded.
		count, err := env.catalog.Count()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("CatalogAppendFailure", func(t *testing.T) {
		logger := logrus.New()
		logger.SetLevel(logrus.PanicLevel)

		root := t.TempDir()
		assetStore := assets.NewStore(root, logger)
		// A catalog path that is a directory cannot be read or replaced.
		badCatalog := catalog.NewStore(root, logger)
		pipeline := New(assetStore, metadata.NewExtractor(logger), badCatalog, logger)

		song, err := pipeline.Ingest(uploadOf([]byte("payload"), "song.mp3", "audio/mpeg"))
		var storageErr *StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Empty(t, song.ID)

		// The audio asset stays behind as an accepted orphan.
		entries, readErr := os.ReadDir(filepath.Join(root, "audio"))
		require.NoError(t, readErr)
		assert.Len(t, entries, 1)
	})
}

func TestIngestRecordsAfterAudioStored(t *testing.T) {
	env := newTestEnv(t)

	song, err := env.pipeline.Ingest(uploadOf([]byte("bytes"), "song.ogg", "audio/ogg"))
	require.NoError(t, err)

	// Every catalog record must resolve to stored audio.
	songs, err := env.catalog.LoadAll()
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.True(t, env.assets.Exists(assets.Audio, song.ID+".ogg"))
}
