package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"lessup/internal/assets"
	"lessup/internal/ingest"
	"lessup/internal/metadata"
	"lessup/pkg/models"

	"github.com/gorilla/mux"
)

// handleIndex responds with a plain liveness banner.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "Lessup API Server is running!")
}

// handleHealthCheck responds with server status and catalog size.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	count, err := s.catalog.Count()
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Catalog unavailable", err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"songs":  count,
	})
}

// handleGetSongs returns the full catalog as a JSON array. An empty catalog
// serializes as [] rather than null.
func (s *Server) handleGetSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.catalog.LoadAll()
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}
	if songs == nil {
		songs = []models.Song{}
	}

	s.respondJSON(w, http.StatusOK, songs)
}

// handleUpload accepts a multipart upload (file plus optional title/artist)
// and runs it through the ingestion pipeline.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Failed to parse upload form", err)
		return
	}

	req := ingest.UploadRequest{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		req.File = file
		req.Filename = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
	}

	song, err := s.pipeline.Ingest(req)
	if err != nil {
		var validationErr *ingest.ValidationError
		if errors.As(err, &validationErr) {
			s.respondWithError(w, r, http.StatusBadRequest, validationErr.Message, nil)
			return
		}
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to process upload", err)
		return
	}

	s.respondJSON(w, http.StatusCreated, song)
}

// handleAsset serves raw bytes from one asset namespace. http.ServeFile
// supplies Range support for audio seeking. Cover images get their content
// type from magic-number sniffing since extracted art carries no extension
// guarantee.
func (s *Server) handleAsset(kind assets.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := filepath.Base(mux.Vars(r)["filename"])

		if !s.assets.Exists(kind, filename) {
			s.respondWithError(w, r, http.StatusNotFound, "Asset not found", nil)
			return
		}

		if kind == assets.Covers {
			data, err := s.assets.Read(kind, filename)
			if err != nil {
				s.respondWithError(w, r, http.StatusInternalServerError, "Error reading cover", err)
				return
			}
			w.Header().Set("Content-Type", metadata.ImageMimeType(data))
			w.Write(data)
			return
		}

		http.ServeFile(w, r, s.assets.Path(kind, filename))
	}
}
