package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

func (s *server) handleRegisterUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Email     string `json:"email"`
			Password  string `json:"password"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		user := &data.User{
			FirstName: requestPayload.FirstName,
			LastName:  requestPayload.LastName,
			Email:     requestPayload.Email,
			IsStudent: true,
			IsActive:  true,
			Activated: false,
		}

		v := validator.New()

		// bcrypt rejects anything past 72 bytes, so the plaintext is checked before hashing.
		data.ValidateUserDetails(v, user)
		if data.ValidatePasswordPlaintext(v, requestPayload.Password); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = user.Password.Set(requestPayload.Password)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.models.Users.Insert(user)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrDuplicateEmail):
				v.AddError("email", "a user with this email address already exists")
				s.failedValidationResponse(w, r, v.Errors)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		token, err := s.models.Tokens.New(user.ID, 3*24*time.Hour, data.ScopeActivation)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		s.background(func() {
			data := map[string]any{
				"activationToken": token.Plaintext,
				"userID":          user.ID,
				"firstName":       user.FirstName,
			}

			err := s.mailer.Send(user.Email, "user_welcome.tmpl", data)
			if err != nil {
				s.logger.PrintError(err, map[string]string{"user_id": strconv.FormatInt(user.ID, 10)})
			}
		})

		err = s.writeJSON(w, http.StatusCreated, envelope{"user": user}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleActivateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			TokenPlaintext string `json:"token"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		v := validator.New()

		if data.ValidateTokenPlaintext(v, requestPayload.TokenPlaintext); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		user, err := s.models.Users.GetForToken(data.ScopeActivation, requestPayload.TokenPlaintext)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				v.AddError("token", "invalid or expired activation token")
				s.failedValidationResponse(w, r, v.Errors)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		user.Activated = true

		err = s.models.Users.Update(user)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrEditConflict):
				s.editConflictResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.models.Tokens.DeleteAllForUser(data.ScopeActivation, user.ID)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleShowProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.contextGetUser(r)

		err := s.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.contextGetUser(r)

		var requestPayload struct {
			FirstName *string `json:"first_name"`
			LastName  *string `json:"last_name"`
			Username  *string `json:"username"`
			Bio       *string `json:"bio"`
			Password  *string `json:"password"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		if requestPayload.FirstName != nil {
			user.FirstName = *requestPayload.FirstName
		}

		if requestPayload.LastName != nil {
			user.LastName = *requestPayload.LastName
		}

		if requestPayload.Username != nil {
			user.Username = *requestPayload.Username
		}

		if requestPayload.Bio != nil {
			user.Bio = *requestPayload.Bio
		}

		v := validator.New()

		data.ValidateUserDetails(v, user)
		if requestPayload.Password != nil {
			data.ValidatePasswordPlaintext(v, *requestPayload.Password)
		}

		if !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		if requestPayload.Password != nil {
			if err := user.Password.Set(*requestPayload.Password); err != nil {
				s.serverErrorResponse(w, r, err)
				return
			}
		}

		err = s.models.Users.Update(user)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrEditConflict):
				s.editConflictResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			data.UserFilter
			data.Filters
		}

		v := validator.New()

		qs := r.URL.Query()

		requestPayload.Email = s.readString(qs, "email", "")
		requestPayload.Role = s.readString(qs, "role", "")
		requestPayload.Filters = s.readFilters(qs, v, "id", "email", "first_name", "last_name", "created_at", "-id", "-email", "-first_name", "-last_name", "-created_at")

		if requestPayload.Role != "" {
			v.Check(validator.In(requestPayload.Role, data.RoleAdmin, data.RoleTeacher, data.RoleStudent), "role", "must be one of admin, teacher or student")
		}

		if data.ValidateFilters(v, requestPayload.Filters); !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		users, metadata, err := s.models.Users.GetAll(requestPayload.UserFilter, requestPayload.Filters)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"users": users, "metadata": metadata}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}

func (s *server) handleUpdateUserRoles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.readIDParam(r)
		if err != nil {
			s.notFoundResponse(w, r)
			return
		}

		user, err := s.models.Users.Get(id)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.notFoundResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		var requestPayload struct {
			IsAdmin   *bool `json:"is_admin"`
			IsTeacher *bool `json:"is_teacher"`
			IsStudent *bool `json:"is_student"`
			IsActive  *bool `json:"is_active"`
		}

		err = s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		if requestPayload.IsAdmin != nil {
			user.IsAdmin = *requestPayload.IsAdmin
		}

		if requestPayload.IsTeacher != nil {
			user.IsTeacher = *requestPayload.IsTeacher
		}

		if requestPayload.IsStudent != nil {
			user.IsStudent = *requestPayload.IsStudent
		}

		if requestPayload.IsActive != nil {
			user.IsActive = *requestPayload.IsActive
		}

		v := validator.New()

		current := s.contextGetUser(r)
		if user.ID == current.ID {
			v.Check(user.IsAdmin, "is_admin", "you cannot remove your own admin role")
			v.Check(user.IsActive, "is_active", "you cannot deactivate your own account")
		}

		if !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		err = s.models.Users.Update(user)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrEditConflict):
				s.editConflictResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		err = s.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}
