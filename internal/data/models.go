package data

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNoRecord            = errors.New("record not found")
	ErrEditConflict        = errors.New("edit conflict")
	ErrDuplicateEmail      = errors.New("duplicate email")
	ErrDuplicateFavorite   = errors.New("favorite already exists")
	ErrDuplicateLessonSong = errors.New("song already attached to lesson")
)

const queryTimeout = 3 * time.Second

type SongStore interface {
	Insert(song *Song) error
	Get(id int64) (*Song, error)
	Update(song *Song) error
	Delete(id int64) error
	GetAll(filter SongFilter, filters Filters) ([]*Song, Metadata, error)
	Stats() (*SongStats, error)
}

type FavoriteStore interface {
	Insert(favorite *Favorite) error
	Delete(userID, songID int64) error
	GetAllForUser(userID int64) ([]*Favorite, error)
}

type LessonStore interface {
	Insert(lesson *Lesson) error
	Get(id int64) (*Lesson, error)
	Update(lesson *Lesson) error
	Delete(id int64) error
	GetAll(filter LessonFilter, filters Filters) ([]*Lesson, Metadata, error)
	Stats(scope Scope) (*LessonStats, error)
}

type LessonSongStore interface {
	Insert(ls *LessonSong) error
	Get(lessonID, songID int64) (*LessonSong, error)
	Update(ls *LessonSong) error
	Delete(lessonID, songID int64) error
	GetAllForLesson(lessonID int64) ([]*LessonSong, error)
}

type AssignmentStore interface {
	Insert(assignment *Assignment) error
	Get(id int64) (*Assignment, error)
	Update(assignment *Assignment) error
	Delete(id int64) error
	GetAll(filter AssignmentFilter, filters Filters) ([]*Assignment, Metadata, error)
}

type UserStore interface {
	Insert(user *User) error
	Get(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	GetForToken(tokenScope, tokenPlaintext string) (*User, error)
	Update(user *User) error
	GetAll(filter UserFilter, filters Filters) ([]*User, Metadata, error)
}

type TokenStore interface {
	New(userID int64, ttl time.Duration, scope string) (*Token, error)
	Insert(token *Token) error
	DeleteAllForUser(scope string, userID int64) error
}

type Models struct {
	Songs       SongStore
	Favorites   FavoriteStore
	Lessons     LessonStore
	LessonSongs LessonSongStore
	Assignments AssignmentStore
	Users       UserStore
	Tokens      TokenStore
}

func NewModels(db *sql.DB) *Models {
	return &Models{
		Songs:       &SongModel{DB: db},
		Favorites:   &FavoriteModel{DB: db},
		Lessons:     &LessonModel{DB: db},
		LessonSongs: &LessonSongModel{DB: db},
		Assignments: &AssignmentModel{DB: db},
		Users:       &UserModel{DB: db},
		Tokens:      &TokenModel{DB: db},
	}
}

// Scope narrows a query to one teacher and/or one student. Zero means any.
type Scope struct {
	TeacherID int64
	StudentID int64
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}

// ReferenceError names the column of a write that pointed at a missing row.
// It matches ErrNoRecord under errors.Is.
type ReferenceError struct {
	Field string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s references a missing record", e.Field)
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrNoRecord
}

// referenceError turns a foreign key violation into a ReferenceError using the
// default <table>_<column>_fkey constraint name. Other errors pass through.
func referenceError(err error, table string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23503" {
		return err
	}

	field := strings.TrimSuffix(strings.TrimPrefix(pqErr.Constraint, table+"_"), "_fkey")
	if field == "" || field == pqErr.Constraint {
		return ErrNoRecord
	}

	return &ReferenceError{Field: field}
}
