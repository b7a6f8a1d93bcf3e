package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

func (s *server) handleListAssignments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			data.AssignmentFilter
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
		requestPayload.Priority = s.readString(qs, "priority", "")
		requestPayload.Filters = s.readFilters(qs, v, "id", "title", "due_date", "status", "priority", "created_at", "-id", "-title", "-due_date", "-status", "-priority", "-created_at")

		if requestPayload.Status != "" {
			v.Check(validator.In(requestPayload.Status, data.AssignmentStatuses...), "status", "must be one of not_started, in_progress, completed, overdue or cancelled")
		}

		if requestPayload.Priority != "" {
			v.Check(validator.In(requestPayload.Priority, data.AssignmentPriorities...), "priority", "must be one of low, medium, high or urgent")
		}

		if data.ValidateFilters(v, requestPayload.Filters); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		assignments, metadata, err := s.models.Assignments.GetAll(requestPayload.AssignmentFilter, requestPayload.Filters)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"assignments": assignments, "metadata": metadata}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleCreateAssignment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			Title       string     `json:"title"`
			Description string     `json:"description"`
			DueDate     *data.Date `json:"due_date"`
			Status      string     `json:"status"`
			Priority    string     `json:"priority"`
			TeacherID   int64      `json:"teacher_id"`
			StudentID   int64      `json:"student_id"`
			LessonID    *int64     `json:"lesson_id"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		user := s.contextGetUser(r)

		assignment := &data.Assignment{
			Title:       requestPayload.Title,
			Description: requestPayload.Description,
			DueDate:     requestPayload.DueDate,
			Status:      requestPayload.Status,
			Priority:    requestPayload.Priority,
			TeacherID:   requestPayload.TeacherID,
			StudentID:   requestPayload.StudentID,
			LessonID:    requestPayload.LessonID,
		}

		if !user.IsAdmin || assignment.TeacherID == 0 {
			assignment.TeacherID = user.ID
		}

		if assignment.Status == "" {
			assignment.Status = "not_started"
		}

		if assignment.Priority == "" {
			assignment.Priority = "medium"
		}

		v := validator.New()

		if data.ValidateAssignment(v, assignment); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		teacher, student, err := s.checkParticipants(v, assignment.TeacherID, assignment.StudentID)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		if err := s.checkAssignmentLesson(v, assignment); err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		if !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = s.models.Assignments.Insert(assignment)
		if err != nil {
			s.writeFailedResponse(w, r, v, err)
			return
		}

		s.notifyAssignment(teacher, student, assignment)

		err = s.writeJSON(w, http.StatusCreated, envelope{"assignment": assignment}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) notifyAssignment(teacher, student *data.User, assignment *data.Assignment) {
	s.background(func() {
		dueDate := ""
		if assignment.DueDate != nil {
			dueDate = assignment.DueDate.String()
		}

		data := map[string]any{
			"firstName":   student.FirstName,
			"teacherName": strings.TrimSpace(teacher.FirstName + " " + teacher.LastName),
			"title":       assignment.Title,
			"priority":    assignment.Priority,
			"dueDate":     dueDate,
			"description": assignment.Description,
		}

		err := s.mailer.Send(student.Email, "assignment_created.tmpl", data)
		if err != nil {
			s.logger.PrintError(err, map[string]string{"assignment_id": strconv.FormatInt(assignment.ID, 10)})
		}
	})
}

func (s *server) handleShowAssignment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignment, ok := s.assignmentFromPath(w, r)
		if !ok {
			return
		}

		err := s.writeJSON(w, http.StatusOK, envelope{"assignment": assignment}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

// handleUpdateAssignment lets the owning teacher or an admin change any field.
// The assigned student may only move the status along. due_date and lesson_id
// are cleared by sending null.
func (s *server) handleUpdateAssignment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignment, ok := s.assignmentFromPath(w, r)
		if !ok {
			return
		}

		var requestPayload struct {
			Title       *string             `json:"title"`
			Description *string             `json:"description"`
			DueDate     optional[data.Date] `json:"due_date"`
			Status      *string             `json:"status"`
			Priority    *string             `json:"priority"`
			StudentID   *int64              `json:"student_id"`
			LessonID    optional[int64]     `json:"lesson_id"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		user := s.contextGetUser(r)

		if !user.IsAdmin && assignment.TeacherID != user.ID {
			statusOnly := requestPayload.Title == nil &&
				requestPayload.Description == nil &&
				!requestPayload.DueDate.Set &&
				requestPayload.Priority == nil &&
				requestPayload.StudentID == nil &&
				!requestPayload.LessonID.Set

			if !statusOnly {
				s.notPermittedResponse(w, r)
				return
			}
		}

		if requestPayload.Title != nil {
			assignment.Title = *requestPayload.Title
		}

		if requestPayload.Description != nil {
			assignment.Description = *requestPayload.Description
		}

		if requestPayload.DueDate.Set {
			assignment.DueDate = requestPayload.DueDate.Value
		}

		if requestPayload.Status != nil {
			assignment.Status = *requestPayload.Status
		}

		if requestPayload.Priority != nil {
			assignment.Priority = *requestPayload.Priority
		}

		if requestPayload.StudentID != nil {
			assignment.StudentID = *requestPayload.StudentID
		}

		if requestPayload.LessonID.Set {
			assignment.LessonID = requestPayload.LessonID.Value
		}

		v := validator.New()

		if data.ValidateAssignment(v, assignment); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		if requestPayload.StudentID != nil {
			if _, err := s.participant(v, "student_id", assignment.StudentID, data.RoleStudent); err != nil {
				s.serverErrorResponse(w, r, err)
				return
			}
		}

		if requestPayload.StudentID != nil || requestPayload.LessonID.Set {
			if err := s.checkAssignmentLesson(v, assignment); err != nil {
				s.serverErrorResponse(w, r, err)
				return
			}
		}

		if !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = s.models.Assignments.Update(assignment)
		if err != nil {
			s.writeFailedResponse(w, r, v, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"assignment": assignment}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleDeleteAssignment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignment, ok := s.assignmentFromPath(w, r)
		if !ok {
			return
		}

		user := s.contextGetUser(r)
		if !user.IsAdmin && assignment.TeacherID != user.ID {
			s.notPermittedResponse(w, r)
			return
		}

		err := s.models.Assignments.Delete(assignment.ID)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.notFoundResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"message": "assignment successfully deleted"}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

// checkAssignmentLesson requires a linked lesson to be one between the
// assignment's own teacher and student.
func (s *server) checkAssignmentLesson(v *validator.Validator, assignment *data.Assignment) error {
	if assignment.LessonID == nil {
		return nil
	}

	lesson, err := s.models.Lessons.Get(*assignment.LessonID)
	if err != nil {
		if errors.Is(err, data.ErrNoRecord) {
			v.AddError("lesson_id", "must reference an existing lesson")
			return nil
		}
		return err
	}

	v.Check(lesson.TeacherID == assignment.TeacherID && lesson.StudentID == assignment.StudentID,
		"lesson_id", "must reference a lesson between the same teacher and student")
	return nil
}

// assignmentFromPath loads the assignment named by :id if the caller takes part in it.
func (s *server) assignmentFromPath(w http.ResponseWriter, r *http.Request) (*data.Assignment, bool) {
	id, err := s.readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return nil, false
	}

	assignment, err := s.models.Assignments.Get(id)
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
	if !user.IsAdmin && !assignment.HasParticipant(user.ID) {
		s.notPermittedResponse(w, r)
		return nil, false
	}

	return assignment, true
}
