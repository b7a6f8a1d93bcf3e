package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

func (s *server) handleCreateAuthenticationToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}

		err := s.readJSON(w, r, &requestPayload)
		if err != nil {
			s.badRequestResponse(w, r, err)
			return
		}

		v := validator.New()

		data.ValidateEmail(v, requestPayload.Email)
		data.ValidatePasswordPlaintext(v, requestPayload.Password)

		if !v.Valid() {
			s.failedValidationResponse(w, r, v.Errors)
			return
		}

		user, err := s.models.Users.GetByEmail(requestPayload.Email)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.invalidCredentialsResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		match, err := user.Password.Matches(requestPayload.Password)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		if !match || !user.IsActive {
			s.invalidCredentialsResponse(w, r)
			return
		}

		token, err := s.models.Tokens.New(user.ID, 24*time.Hour, data.ScopeAuthentication)
		if err != nil {
			s.serverErrorResponse(w, r, err)
			return
		}

		err = s.writeJSON(w, http.StatusCreated, envelope{"authentication_token": token}, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}
