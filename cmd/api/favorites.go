package main

import (
	"errors"
	"net/http"

	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

// handleListFavorites lists the caller's favorites. Admins may read another user's with ?user_id=.
func (s *server) handleListFavorites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.contextGetUser(r)

		v := validator.New()

		userID := s.readInt64(r.URL.Query(), "user_id", v)
		if !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		if userID == 0 {
			userID = user.ID
		}

		if userID != user.ID && !user.IsAdmin {
			s.notPermittedResponse(w, r)
			return
		}

		favorites, err := s.models.Favorites.GetAllForUser(userID)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"favorites": favorites}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleAddFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			SongID int64 `json:"song_id"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		v := validator.New()

		if v.Check(requestPayload.SongID > 0, "song_id", "must be provided"); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		favorite := &data.Favorite{
			UserID: s.contextGetUser(r).ID,
			SongID: requestPayload.SongID,
		}

		err = s.models.Favorites.Insert(favorite)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.notFoundResponse(w, r)
			case errors.Is(err, data.ErrDuplicateFavorite):
				s.conflictResponse(w, r, "song is already in favorites")
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusCreated, envelope{"favorite": favorite}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleRemoveFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		songID, err := s.readInt64Param(r, "song_id")
		if err != nil {
			s.notFoundResponse(w, r)
			return
		}

		err = s.models.Favorites.Delete(s.contextGetUser(r).ID, songID)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.notFoundResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"message": "favorite successfully removed"}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}
