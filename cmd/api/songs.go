package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

func (s *server) handleListSongs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			data.SongFilter
			data.Filters
		}

		v := validator.New()

		qs := r.URL.Query()

		requestPayload.Title = s.readString(qs, "title", "")
		requestPayload.Author = s.readString(qs, "author", "")
		requestPayload.Level = s.readString(qs, "level", "")
		requestPayload.Key = s.readString(qs, "key", "")
		requestPayload.Filters = s.readFilters(qs, v, "id", "title", "author", "level", "key", "created_at", "-id", "-title", "-author", "-level", "-key", "-created_at")

		if requestPayload.Level != "" {
			v.Check(validator.In(requestPayload.Level, data.SongLevels...), "level", "must be one of beginner, intermediate or advanced")
		}

		if data.ValidateFilters(v, requestPayload.Filters); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		songs, metadata, err := s.models.Songs.GetAll(requestPayload.SongFilter, requestPayload.Filters)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"songs": songs, "metadata": metadata}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleCreateSong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			Title              string `json:"title"`
			Author             string `json:"author"`
			Level              string `json:"level"`
			Key                string `json:"key"`
			Chords             string `json:"chords"`
			UltimateGuitarLink string `json:"ultimate_guitar_link"`
			ShortTitle         string `json:"short_title"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		song := &data.Song{
			Title:              requestPayload.Title,
			Author:             requestPayload.Author,
			Level:              requestPayload.Level,
			Key:                requestPayload.Key,
			Chords:             requestPayload.Chords,
			UltimateGuitarLink: requestPayload.UltimateGuitarLink,
			ShortTitle:         requestPayload.ShortTitle,
			AudioFiles:         []string{},
		}

		v := validator.New()

		if data.ValidateSong(v, song); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = s.models.Songs.Insert(song)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusCreated, envelope{"song": song}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleShowSong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		song, ok := s.songFromPath(w, r)
		if !ok {
			return
		}

		err := s.writeJSON(w, http.StatusOK, envelope{"song": song}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleUpdateSong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		song, ok := s.songFromPath(w, r)
		if !ok {
			return
		}

		var requestPayload struct {
			Title              *string `json:"title"`
			Author             *string `json:"author"`
			Level              *string `json:"level"`
			Key                *string `json:"key"`
			Chords             *string `json:"chords"`
			UltimateGuitarLink *string `json:"ultimate_guitar_link"`
			ShortTitle         *string `json:"short_title"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		if requestPayload.Title != nil {
			song.Title = *requestPayload.Title
		}

		if requestPayload.Author != nil {
			song.Author = *requestPayload.Author
		}

		if requestPayload.Level != nil {
			song.Level = *requestPayload.Level
		}

		if requestPayload.Key != nil {
			song.Key = *requestPayload.Key
		}

		if requestPayload.Chords != nil {
			song.Chords = *requestPayload.Chords
		}

		if requestPayload.UltimateGuitarLink != nil {
			song.UltimateGuitarLink = *requestPayload.UltimateGuitarLink
		}

		if requestPayload.ShortTitle != nil {
			song.ShortTitle = *requestPayload.ShortTitle
		}

		v := validator.New()

		if data.ValidateSong(v, song); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = s.models.Songs.Update(song)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrEditConflict):
				s.editConflictResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"song": song}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

// handleDeleteSong removes the row first and then its audio objects in the background.
func (s *server) handleDeleteSong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		song, ok := s.songFromPath(w, r)
		if !ok {
			return
		}

		err := s.models.Songs.Delete(song.ID)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.notFoundResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		if len(song.AudioFiles) > 0 {
			s.background(func() {
				for _, key := range song.AudioFiles {
					err := s.blobs.Delete(context.Background(), key)
					if err != nil {
						s.logger.PrintError(err, map[string]string{"key": key})
					}
				}
			})
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"message": "song successfully deleted"}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

// songFromPath loads the song named by the :id parameter, writing the error response itself.
func (s *server) songFromPath(w http.ResponseWriter, r *http.Request) (*data.Song, bool) {
	id, err := s.readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return nil, false
	}

	song, err := s.models.Songs.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNoRecord):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return nil, false
	}

	return song, true
}
