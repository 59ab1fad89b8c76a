package models

// Song represents one entry in the music catalog. A song is created once at
// upload time and never mutated afterwards.
type Song struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	URL        string  `json:"url"`        // resolvable audio locator, e.g. /api/audio/{id}.mp3
	CoverURL   string  `json:"coverUrl"`   // per-song cover or the shared default cover
	Duration   float64 `json:"duration"`   // playback length in seconds; 0 = unknown
	UploadDate int64   `json:"uploadDate"` // unix seconds, set at ingestion
}
