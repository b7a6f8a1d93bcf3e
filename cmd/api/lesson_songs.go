package main

import (
	"errors"
	"net/http"

	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

func (s *server) handleListLessonSongs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lesson, ok := s.lessonFromPath(w, r, false)
		if !ok {
			return
		}

		songs, err := s.models.LessonSongs.GetAllForLesson(lesson.ID)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"lesson_songs": songs}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleAddLessonSong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lesson, ok := s.lessonFromPath(w, r, true)
		if !ok {
			return
		}

		var requestPayload struct {
			SongID int64  `json:"song_id"`
			Status string `json:"status"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		ls := &data.LessonSong{
			LessonID: lesson.ID,
			SongID:   requestPayload.SongID,
			Status:   requestPayload.Status,
		}

		if ls.Status == "" {
			ls.Status = data.LessonSongStatuses[0]
		}

		v := validator.New()

		if data.ValidateLessonSong(v, ls); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = s.models.LessonSongs.Insert(ls)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrDuplicateLessonSong):
				s.conflictResponse(w, r, "song is already attached to this lesson")
			case errors.Is(err, data.ErrNoRecord):
				v.AddError("song_id", "must reference an existing song")
				s.failedValidationResponse(w, r, v.Errors)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusCreated, envelope{"lesson_song": ls}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

// handleUpdateLessonSong changes a song's progress status. Either participant may do this.
func (s *server) handleUpdateLessonSong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, ok := s.lessonSongFromPath(w, r, false)
		if !ok {
			return
		}

		var requestPayload struct {
			Status string `json:"status"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		ls.Status = requestPayload.Status

		v := validator.New()

		if data.ValidateLessonSong(v, ls); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = s.models.LessonSongs.Update(ls)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrEditConflict):
				s.editConflictResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"lesson_song": ls}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleRemoveLessonSong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, ok := s.lessonSongFromPath(w, r, true)
		if !ok {
			return
		}

		err := s.models.LessonSongs.Delete(ls.LessonID, ls.SongID)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.notFoundResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"message": "song successfully removed from lesson"}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) lessonSongFromPath(w http.ResponseWriter, r *http.Request, manage bool) (*data.LessonSong, bool) {
	lesson, ok := s.lessonFromPath(w, r, manage)
	if !ok {
		return nil, false
	}

	songID, err := s.readInt64Param(r, "song_id")
	if err != nil {
		s.notFoundResponse(w, r)
		return nil, false
	}

	ls, err := s.models.LessonSongs.Get(lesson.ID, songID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNoRecord):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return nil, false
	}

	return ls, true
}
