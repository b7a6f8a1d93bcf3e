package main

import (
	"net/http"

	"github.com/vmx-pso/lesson-service/internal/data"
)

// participantScope narrows lesson and assignment queries to what the user may see.
// Admins see everything; teachers see what they teach before what they attend.
func participantScope(user *data.User) data.Scope {
	switch {
	case user.IsAdmin:
		return data.Scope{}
	case user.IsTeacher:
		return data.Scope{TeacherID: user.ID}
	default:
		return data.Scope{StudentID: user.ID}
	}
}

func (s *server) handleSongStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.models.Songs.Stats()
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"stats": stats}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleLessonStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := participantScope(s.contextGetUser(r))

		stats, err := s.models.Lessons.Stats(scope)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"stats": stats}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}
