package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

func (s *server) handleListLessons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			data.LessonFilter
			data.Filters
		}

		v := validator.New()

		qs := r.URL.Query()

		requestPayload.Scope = participantScope(s.contextGetUser(r))
		if teacherID := s.readInt64(qs, "teacher_id", v); requestPayload.TeacherID == 0 {
			requestPayload.TeacherID = teacherID
		}
		if studentID := s.readInt64(qs, "student_id", v); requestPayload.StudentID == 0 {
			requestPayload.StudentID = studentID
		}

		requestPayload.Status = s.readString(qs, "status", "")
		requestPayload.From = s.readDate(qs, "from", v)
		requestPayload.To = s.readDate(qs, "to", v)
		requestPayload.Filters = s.readFilters(qs, v, "-date", "date", "id", "lesson_number", "status", "created_at", "-id", "-lesson_number", "-status", "-created_at")

		if requestPayload.Status != "" {
			v.Check(validator.In(requestPayload.Status, data.LessonStatuses...), "status", "must be one of SCHEDULED, IN_PROGRESS, COMPLETED, CANCELLED or RESCHEDULED")
		}

		if data.ValidateFilters(v, requestPayload.Filters); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		lessons, metadata, err := s.models.Lessons.GetAll(requestPayload.LessonFilter, requestPayload.Filters)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"lessons": lessons, "metadata": metadata}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

// handleCreateLesson lets admins book any teacher; a teacher always books themselves.
func (s *server) handleCreateLesson() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			TeacherID int64     `json:"teacher_id"`
			StudentID int64     `json:"student_id"`
			Title     string    `json:"title"`
			Notes     string    `json:"notes"`
			Date      data.Date `json:"date"`
			StartTime string    `json:"start_time"`
			Status    string    `json:"status"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		user := s.contextGetUser(r)

		lesson := &data.Lesson{
			TeacherID: requestPayload.TeacherID,
			StudentID: requestPayload.StudentID,
			Title:     requestPayload.Title,
			Notes:     requestPayload.Notes,
			Date:      requestPayload.Date,
			StartTime: requestPayload.StartTime,
			Status:    requestPayload.Status,
		}

		if !user.IsAdmin {
			lesson.TeacherID = user.ID
		}

		if lesson.Status == "" {
			lesson.Status = data.LessonScheduled
		}

		v := validator.New()

		if data.ValidateLesson(v, lesson); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		if _, _, err := s.checkParticipants(v, lesson.TeacherID, lesson.StudentID); err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		if !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = s.models.Lessons.Insert(lesson)
		if err != nil {
			s.writeFailedResponse(w, r, v, err)
			return
		}

		err = s.writeJSON(w, http.StatusCreated, envelope{"lesson": lesson}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleShowLesson() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lesson, ok := s.lessonFromPath(w, r, false)
		if !ok {
			return
		}

		err := s.writeJSON(w, http.StatusOK, envelope{"lesson": lesson}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleUpdateLesson() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lesson, ok := s.lessonFromPath(w, r, true)
		if !ok {
			return
		}

		var requestPayload struct {
			TeacherID *int64     `json:"teacher_id"`
			StudentID *int64     `json:"student_id"`
			Title     *string    `json:"title"`
			Notes     *string    `json:"notes"`
			Date      *data.Date `json:"date"`
			StartTime *string    `json:"start_time"`
			Status    *string    `json:"status"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		if requestPayload.TeacherID != nil && *requestPayload.TeacherID != lesson.TeacherID {
			if !s.contextGetUser(r).IsAdmin {
				s.notPermittedResponse(w, r)
				return
			}
			lesson.TeacherID = *requestPayload.TeacherID
		}

		if requestPayload.StudentID != nil {
			lesson.StudentID = *requestPayload.StudentID
		}

		if requestPayload.Title != nil {
			lesson.Title = *requestPayload.Title
		}

		if requestPayload.Notes != nil {
			lesson.Notes = *requestPayload.Notes
		}

		if requestPayload.Date != nil {
			lesson.Date = *requestPayload.Date
		}

		if requestPayload.StartTime != nil {
			lesson.StartTime = *requestPayload.StartTime
		}

		if requestPayload.Status != nil {
			lesson.Status = *requestPayload.Status
		}

		v := validator.New()

		if data.ValidateLesson(v, lesson); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		if requestPayload.TeacherID != nil || requestPayload.StudentID != nil {
			if _, _, err := s.checkParticipants(v, lesson.TeacherID, lesson.StudentID); err != nil {
				s.serverErrorResponse(w, r, err)
				return
			}

			if !v.Valid() {
				s.failedValidationResponse(w, r, v.Errors)
				return
			}
		}

		err = s.models.Lessons.Update(lesson)
		if err != nil {
			s.writeFailedResponse(w, r, v, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"lesson": lesson}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleDeleteLesson() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lesson, ok := s.lessonFromPath(w, r, true)
		if !ok {
			return
		}

		err := s.models.Lessons.Delete(lesson.ID)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.notFoundResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"message": "lesson successfully deleted"}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

// lessonFromPath loads the lesson named by :id and checks the caller may see it,
// or with manage set, change it.
func (s *server) lessonFromPath(w http.ResponseWriter, r *http.Request, manage bool) (*data.Lesson, bool) {
	id, err := s.readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return nil, false
	}

	lesson, err := s.models.Lessons.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNoRecord):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return nil, false
	}

	user := s.contextGetUser(r)

	allowed := user.IsAdmin || lesson.HasParticipant(user.ID)
	if manage {
		allowed = user.IsAdmin || lesson.TeacherID == user.ID
	}

	if !allowed {
		s.notPermittedResponse(w, r)
		return nil, false
	}

	return lesson, true
}

// checkParticipants loads the teacher and student a lesson or assignment names.
// A missing user or one without the matching role becomes a field error on v.
func (s *server) checkParticipants(v *validator.Validator, teacherID, studentID int64) (teacher, student *data.User, err error) {
	teacher, err = s.participant(v, "teacher_id", teacherID, data.RoleTeacher)
	if err != nil {
		return nil, nil, err
	}

	student, err = s.participant(v, "student_id", studentID, data.RoleStudent)
	if err != nil {
		return nil, nil, err
	}

	return teacher, student, nil
}

func (s *server) participant(v *validator.Validator, field string, id int64, role string) (*data.User, error) {
	user, err := s.models.Users.Get(id)
	if err != nil {
		if errors.Is(err, data.ErrNoRecord) {
			v.AddError(field, "must reference an existing user")
			return nil, nil
		}
		return nil, err
	}

	v.Check(user.HasRole(role), field, fmt.Sprintf("must reference a user with the %s role", role))
	return user, nil
}

// writeFailedResponse reports an error from a lesson or assignment write.
func (s *server) writeFailedResponse(w http.ResponseWriter, r *http.Request, v *validator.Validator, err error) {
	var refErr *data.ReferenceError

	switch {
	case errors.Is(err, data.ErrEditConflict):
		s.editConflictResponse(w, r)
	case errors.As(err, &refErr):
		v.AddError(refErr.Field, "must reference an existing record")
		s.failedValidationResponse(w, r, v.Errors)
	case errors.Is(err, data.ErrNoRecord):
		s.notFoundResponse(w, r)
	default:
		s.serverErrorResponse(w, r, err)
	}
}
