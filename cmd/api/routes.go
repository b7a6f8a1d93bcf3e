package main

import (
	"net/http"

	"github.com/vmx-pso/lesson-service/internal/data"
)

func (s *server) routes() {
	staff := []string{data.RoleAdmin, data.RoleTeacher}

	s.router.HandlerFunc(http.MethodGet, "/v1/healthcheck", s.handleHealthCheck())
	s.router.Handler(http.MethodGet, "/metrics", s.metricsHandler())

	s.router.HandlerFunc(http.MethodPost, "/v1/users", s.handleRegisterUser())
	s.router.HandlerFunc(http.MethodPut, "/v1/users/activated", s.handleActivateUser())
	s.router.HandlerFunc(http.MethodPost, "/v1/tokens/authentication", s.handleCreateAuthenticationToken())

	s.router.HandlerFunc(http.MethodGet, "/v1/profile", s.requireActivatedUser(s.handleShowProfile()))
	s.router.HandlerFunc(http.MethodPatch, "/v1/profile", s.requireActivatedUser(s.handleUpdateProfile()))
	s.router.HandlerFunc(http.MethodGet, "/v1/admin/users", s.requireRole(s.handleListUsers(), data.RoleAdmin))
	s.router.HandlerFunc(http.MethodPatch, "/v1/admin/users/:id/roles", s.requireRole(s.handleUpdateUserRoles(), data.RoleAdmin))

	s.router.HandlerFunc(http.MethodGet, "/v1/songs", s.requireActivatedUser(s.handleListSongs()))
	s.router.HandlerFunc(http.MethodPost, "/v1/songs", s.requireRole(s.handleCreateSong(), staff...))
	s.router.HandlerFunc(http.MethodGet, "/v1/songs/:id", s.requireActivatedUser(s.handleShowSong()))
	s.router.HandlerFunc(http.MethodPatch, "/v1/songs/:id", s.requireRole(s.handleUpdateSong(), staff...))
	s.router.HandlerFunc(http.MethodDelete, "/v1/songs/:id", s.requireRole(s.handleDeleteSong(), staff...))

	s.router.HandlerFunc(http.MethodGet, "/v1/songs/:id/audio", s.requireActivatedUser(s.handleListSongAudio()))
	s.router.HandlerFunc(http.MethodPost, "/v1/songs/:id/audio", s.requireRole(s.handleUploadSongAudio(), staff...))
	s.router.HandlerFunc(http.MethodDelete, "/v1/songs/:id/audio/:file", s.requireRole(s.handleDeleteSongAudio(), staff...))

	s.router.HandlerFunc(http.MethodGet, "/v1/favorites", s.requireActivatedUser(s.handleListFavorites()))
	s.router.HandlerFunc(http.MethodPost, "/v1/favorites", s.requireActivatedUser(s.handleAddFavorite()))
	s.router.HandlerFunc(http.MethodDelete, "/v1/favorites/:song_id", s.requireActivatedUser(s.handleRemoveFavorite()))

	s.router.HandlerFunc(http.MethodGet, "/v1/stats/songs", s.requireRole(s.handleSongStats(), staff...))
	s.router.HandlerFunc(http.MethodGet, "/v1/stats/lessons", s.requireActivatedUser(s.handleLessonStats()))

	s.router.HandlerFunc(http.MethodGet, "/v1/lessons", s.requireActivatedUser(s.handleListLessons()))
	s.router.HandlerFunc(http.MethodPost, "/v1/lessons", s.requireRole(s.handleCreateLesson(), staff...))
	s.router.HandlerFunc(http.MethodGet, "/v1/lessons/:id", s.requireActivatedUser(s.handleShowLesson()))
	s.router.HandlerFunc(http.MethodPatch, "/v1/lessons/:id", s.requireRole(s.handleUpdateLesson(), staff...))
	s.router.HandlerFunc(http.MethodDelete, "/v1/lessons/:id", s.requireRole(s.handleDeleteLesson(), staff...))

	s.router.HandlerFunc(http.MethodGet, "/v1/lessons/:id/songs", s.requireActivatedUser(s.handleListLessonSongs()))
	s.router.HandlerFunc(http.MethodPost, "/v1/lessons/:id/songs", s.requireRole(s.handleAddLessonSong(), staff...))
	s.router.HandlerFunc(http.MethodPatch, "/v1/lessons/:id/songs/:song_id", s.requireActivatedUser(s.handleUpdateLessonSong()))
	s.router.HandlerFunc(http.MethodDelete, "/v1/lessons/:id/songs/:song_id", s.requireRole(s.handleRemoveLessonSong(), staff...))

	s.router.HandlerFunc(http.MethodGet, "/v1/assignments", s.requireActivatedUser(s.handleListAssignments()))
	s.router.HandlerFunc(http.MethodPost, "/v1/assignments", s.requireRole(s.handleCreateAssignment(), staff...))
	s.router.HandlerFunc(http.MethodGet, "/v1/assignments/:id", s.requireActivatedUser(s.handleShowAssignment()))
	s.router.HandlerFunc(http.MethodPatch, "/v1/assignments/:id", s.requireActivatedUser(s.handleUpdateAssignment()))
	s.router.HandlerFunc(http.MethodDelete, "/v1/assignments/:id", s.requireRole(s.handleDeleteAssignment(), staff...))

	s.handler = s.recordMetrics(s.recoverPanic(s.enableCORS(s.rateLimit(s.authenticate(s.router.ServeHTTP)))))
}
