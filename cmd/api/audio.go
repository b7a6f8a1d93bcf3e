package main

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/vmx-pso/lesson-service/internal/blob"
	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

const (
	maxAudioBytes  = 20 << 20
	audioURLExpiry = 15 * time.Minute
)

type audioFile struct {
	Key       string    `json:"key"`
	File      string    `json:"file"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func audioKey(songID int64, name string) string {
	return fmt.Sprintf("songs/%d/%s-%s", songID, uuid.NewString(), name)
}

// cleanAudioName keeps the base name of an uploaded file and drops characters unsafe in object keys.
func cleanAudioName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	return strings.Trim(b.String(), ".")
}

func (s *server) handleListSongAudio() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		song, ok := s.songFromPath(w, r)
		if !ok {
			return
		}

		files := make([]audioFile, 0, len(song.AudioFiles))
		expiresAt := time.Now().Add(audioURLExpiry).UTC()

		for _, key := range song.AudioFiles {
			u, err := s.blobs.PresignURL(r.Context(), key, audioURLExpiry)
			if err != nil {
				if errors.Is(err, blob.ErrNotFound) {
					s.logger.PrintInfo("audio object missing", map[string]string{"key": key})
					continue
				}
				s.serverErrorResponse(w, r, err)
				return
			}

			files = append(files, audioFile{Key: key, File: path.Base(key), URL: u, ExpiresAt: expiresAt})
		}

		err := s.writeJSON(w, http.StatusOK, envelope{"audio_files": files}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

// handleUploadSongAudio stores the raw request body. The file name comes from ?name=.
func (s *server) handleUploadSongAudio() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		song, ok := s.songFromPath(w, r)
		if !ok {
			return
		}

		contentType := r.Header.Get("Content-Type")
		name := cleanAudioName(r.URL.Query().Get("name"))

		v := validator.New()

		v.Check(strings.HasPrefix(contentType, "audio/"), "content_type", "must be an audio media type")
		v.Check(name != "", "name", "must be provided")
		v.Check(len(name) <= 128, "name", "must not be more than 128 bytes long")

		if !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		key := audioKey(song.ID, name)
		body := http.MaxBytesReader(w, r.Body, maxAudioBytes)

		info, err := s.blobs.Put(r.Context(), key, body, blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"song-id": fmt.Sprint(song.ID)},
		})
		if err != nil {
			var maxBytesError *http.MaxBytesError
			switch {
			case errors.As(err, &maxBytesError):
				s.badRequestResponse(w, r, fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit))
			case errors.Is(err, blob.ErrExists):
				s.conflictResponse(w, r, "an audio file with this key already exists")
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		song.AudioFiles = append(song.AudioFiles, key)

		err = s.models.Songs.Update(song)
		if err != nil {
			if delErr := s.blobs.Delete(r.Context(), key); delErr != nil {
				s.errorLog(r, delErr)
			}

			switch {
			case errors.Is(err, data.ErrEditConflict):
				s.editConflictResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		headers := make(http.Header)
		headers.Set("Location", fmt.Sprintf("/v1/songs/%d/audio", song.ID))

		err = s.writeJSON(w, http.StatusCreated, envelope{"audio_file": info, "song": song}, headers)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleDeleteSongAudio() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		song, ok := s.songFromPath(w, r)
		if !ok {
			return
		}

		file := httprouter.ParamsFromContext(r.Context()).ByName("file")

		i := slices.IndexFunc(song.AudioFiles, func(key string) bool {
			return path.Base(key) == file
		})
		if i < 0 {
			s.notFoundResponse(w, r)
			return
		}

		key := song.AudioFiles[i]
		song.AudioFiles = slices.Delete(song.AudioFiles, i, i+1)

		err := s.models.Songs.Update(song)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrEditConflict):
				s.editConflictResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.blobs.Delete(r.Context(), key)
		if err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.errorLog(r, err)
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"message": "audio file successfully deleted"}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}
