package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vmx-pso/lesson-service/internal/validator"
)

var LessonSongStatuses = []string{"to_learn", "started", "remembered", "with_author", "mastered"}

// LessonSong is a song worked on during a lesson and how far the student got with it.
type LessonSong struct {
	LessonID  int64     `json:"lesson_id"`
	SongID    int64     `json:"song_id"`
	Status    string    `json:"status"`
	SongTitle string    `json:"song_title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidateLessonSong(v *validator.Validator, ls *LessonSong) {
	v.Check(ls.SongID > 0, "song_id", "must be provided")
	v.Check(validator.In(ls.Status, LessonSongStatuses...), "status", "must be one of to_learn, started, remembered, with_author or mastered")
}

type LessonSongModel struct {
	DB *sql.DB
}

func (m *LessonSongModel) Insert(ls *LessonSong) error {
	qry := `
		INSERT INTO lesson_songs (lesson_id, song_id, status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, ls.LessonID, ls.SongID, ls.Status).Scan(&ls.CreatedAt, &ls.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "lesson_songs_pkey"):
			return ErrDuplicateLessonSong
		case isForeignKeyViolation(err):
			return ErrNoRecord
		default:
			return err
		}
	}

	return nil
}

func (m *LessonSongModel) Get(lessonID, songID int64) (*LessonSong, error) {
	qry := `
		SELECT ls.lesson_id, ls.song_id, ls.status, s.title, ls.created_at, ls.updated_at
		FROM lesson_songs ls
		INNER JOIN songs s ON s.id = ls.song_id
		WHERE ls.lesson_id = $1 AND ls.song_id = $2`

	var ls LessonSong

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, lessonID, songID).Scan(
		&ls.LessonID,
		&ls.SongID,
		&ls.Status,
		&ls.SongTitle,
		&ls.CreatedAt,
		&ls.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNoRecord
		default:
			return nil, err
		}
	}

	return &ls, nil
}

func (m *LessonSongModel) Update(ls *LessonSong) error {
	qry := `
		UPDATE lesson_songs
		SET status = $1, updated_at = $2
		WHERE lesson_id = $3 AND song_id = $4 AND updated_at = $5
		RETURNING updated_at`

	args := []any{ls.Status, time.Now(), ls.LessonID, ls.SongID, ls.UpdatedAt}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, args...).Scan(&ls.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}

	return nil
}

func (m *LessonSongModel) Delete(lessonID, songID int64) error {
	qry := `
		DELETE FROM lesson_songs
		WHERE lesson_id = $1 AND song_id = $2`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, qry, lessonID, songID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNoRecord
	}

	return nil
}

func (m *LessonSongModel) GetAllForLesson(lessonID int64) ([]*LessonSong, error) {
	qry := `
		SELECT ls.lesson_id, ls.song_id, ls.status, s.title, ls.created_at, ls.updated_at
		FROM lesson_songs ls
		INNER JOIN songs s ON s.id = ls.song_id
		WHERE ls.lesson_id = $1
		ORDER BY s.title ASC, ls.song_id ASC`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, qry, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessonSongs := []*LessonSong{}

	for rows.Next() {
		var ls LessonSong
		err := rows.Scan(&ls.LessonID, &ls.SongID, &ls.Status, &ls.SongTitle, &ls.CreatedAt, &ls.UpdatedAt)
		if err != nil {
			return nil, err
		}
		lessonSongs = append(lessonSongs, &ls)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return lessonSongs, nil
}
