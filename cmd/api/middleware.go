package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/validator"
)

func (s *server) recoverPanic(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				s.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next(w, r)
	}
}

func (s *server) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	if s.limiter.enabled {
		go func() {
			for {
				time.Sleep(time.Minute)
				mu.Lock()
				for ip, client := range clients {
					if time.Since(client.lastSeen) > 3*time.Minute {
						delete(clients, ip)
					}
				}
				mu.Unlock()
			}
		}()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter.enabled {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				s.serverErrorResponse(w, r, err)
				return
			}

			mu.Lock()

			if _, found := clients[ip]; !found {
				clients[ip] = &client{limiter: rate.NewLimiter(rate.Limit(s.limiter.rps), s.limiter.burst)}
			}

			clients[ip].lastSeen = time.Now()

			if !clients[ip].limiter.Allow() {
				mu.Unlock()
				s.rateLimitExceededResponse(w, r)
				return
			}

			mu.Unlock()
		}

		next(w, r)
	}
}

// authenticate puts the bearer token's user, or the anonymous user, in the request context.
func (s *server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")

		if authorizationHeader == "" {
			r = s.contextSetUser(r, data.AnonymousUser)
			next(w, r)
			return
		}

		headerParts := strings.Split(authorizationHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			s.invalidAuthenticationTokenResponse(w, r)
			return
		}

		token := headerParts[1]

		v := validator.New()

		if data.ValidateTokenPlaintext(v, token); !v.Valid() {
			s.invalidAuthenticationTokenResponse(w, r)
			return
		}

		user, err := s.models.Users.GetForToken(data.ScopeAuthentication, token)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrNoRecord):
				s.invalidAuthenticationTokenResponse(w, r)
			default:
				s.serverErrorResponse(w, r, err)
			}
			return
		}

		if !user.IsActive {
			s.invalidAuthenticationTokenResponse(w, r)
			return
		}

		r = s.contextSetUser(r, user)

		next(w, r)
	}
}

func (s *server) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.contextGetUser(r)

		if user.IsAnonymous() {
			s.authenticationRequiredResponse(w, r)
			return
		}

		next(w, r)
	}
}

func (s *server) requireActivatedUser(next http.HandlerFunc) http.HandlerFunc {
	fn := func(w http.ResponseWriter, r *http.Request) {
		user := s.contextGetUser(r)

		if !user.Activated {
			s.inactiveAccountResponse(w, r)
			return
		}

		next(w, r)
	}

	return s.requireAuthenticatedUser(fn)
}

// requireRole admits activated users holding at least one of roles.
func (s *server) requireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	fn := func(w http.ResponseWriter, r *http.Request) {
		user := s.contextGetUser(r)

		if !user.HasRole(roles...) {
			s.notPermittedResponse(w, r)
			return
		}

		next(w, r)
	}

	return s.requireActivatedUser(fn)
}

func (s *server) enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")

		origin := r.Header.Get("Origin")

		if origin != "" {
			for i := range s.trustedOrigins {
				if origin != s.trustedOrigins[i] {
					continue
				}

				w.Header().Set("Access-Control-Allow-Origin", origin)

				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, PUT, PATCH, DELETE")
					w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

					w.WriteHeader(http.StatusOK)
					return
				}

				break
			}
		}

		next(w, r)
	}
}
