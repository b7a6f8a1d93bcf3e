package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmx-pso/lesson-service/internal/validator"

	"github.com/lib/pq"
)

var SongLevels = []string{"beginner", "intermediate", "advanced"}

type Song struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Author             string    `json:"author"`
	Level              string    `json:"level"`
	Key                string    `json:"key"`
	Chords             string    `json:"chords"`
	UltimateGuitarLink string    `json:"ultimate_guitar_link"`
	ShortTitle         string    `json:"short_title"`
	AudioFiles         []string  `json:"audio_files"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func ValidateSong(v *validator.Validator, song *Song) {
	v.Check(song.Title != "", "title", "must be provided")
	v.Check(len(song.Title) <= 255, "title", "must not be more than 255 bytes long")
	v.Check(song.Author != "", "author", "must be provided")
	v.Check(len(song.Author) <= 255, "author", "must not be more than 255 bytes long")
	v.Check(len(song.ShortTitle) <= 64, "short_title", "must not be more than 64 bytes long")
	v.Check(validator.In(song.Level, SongLevels...), "level", "must be one of beginner, intermediate or advanced")

	if song.Key != "" {
		v.Check(validator.Matches(song.Key, validator.MusicKeyRX), "key", "must be a musical key such as C, F#m or Bb")
	}

	if song.UltimateGuitarLink != "" {
		v.Check(validator.IsHTTPURL(song.UltimateGuitarLink), "ultimate_guitar_link", "must be an http or https URL")
	}

	v.Check(validator.Unique(song.AudioFiles), "audio_files", "must not contain duplicate values")
}

type SongFilter struct {
	Title  string
	Author string
	Level  string
	Key    string
}

type SongModel struct {
	DB *sql.DB
}

func (m *SongModel) Insert(song *Song) error {
	qry := `
		INSERT INTO songs (title, author, level, key, chords, ultimate_guitar_link, short_title, audio_files)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	args := []any{
		song.Title,
		song.Author,
		song.Level,
		song.Key,
		song.Chords,
		song.UltimateGuitarLink,
		song.ShortTitle,
		pq.Array(song.AudioFiles),
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return m.DB.QueryRowContext(ctx, qry, args...).Scan(&song.ID, &song.CreatedAt, &song.UpdatedAt)
}

func (m *SongModel) Get(id int64) (*Song, error) {
	if id < 1 {
		return nil, ErrNoRecord
	}

	qry := `
		SELECT id, title, author, level, key, chords, ultimate_guitar_link, short_title, audio_files, created_at, updated_at
		FROM songs
		WHERE id = $1`

	var song Song

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, id).Scan(
		&song.ID,
		&song.Title,
		&song.Author,
		&song.Level,
		&song.Key,
		&song.Chords,
		&song.UltimateGuitarLink,
		&song.ShortTitle,
		pq.Array(&song.AudioFiles),
		&song.CreatedAt,
		&song.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNoRecord
		default:
			return nil, err
		}
	}
	return &song, nil
}

func (m *SongModel) Update(song *Song) error {
	qry := `
		UPDATE songs
		SET title = $1, author = $2, level = $3, key = $4, chords = $5, ultimate_guitar_link = $6,
			short_title = $7, audio_files = $8, updated_at = $9
		WHERE id = $10 AND updated_at = $11
		RETURNING updated_at`

	args := []any{
		song.Title,
		song.Author,
		song.Level,
		song.Key,
		song.Chords,
		song.UltimateGuitarLink,
		song.ShortTitle,
		pq.Array(song.AudioFiles),
		time.Now(),
		song.ID,
		song.UpdatedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, args...).Scan(&song.UpdatedAt)
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

func (m *SongModel) Delete(id int64) error {
	if id < 1 {
		return ErrNoRecord
	}

	qry := `
		DELETE FROM songs
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, qry, id)
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

func (m *SongModel) GetAll(filter SongFilter, filters Filters) ([]*Song, Metadata, error) {
	qry := fmt.Sprintf(`
		SELECT count(*) OVER(), id, title, author, level, key, chords, ultimate_guitar_link, short_title, audio_files, created_at, updated_at
		FROM songs
		WHERE (to_tsvector('simple', title) @@ plainto_tsquery('simple', $1) OR $1 = '')
		AND (author ILIKE '%%' || $2 || '%%' OR $2 = '')
		AND (level = $3 OR $3 = '')
		AND (key = $4 OR $4 = '')
		ORDER BY %s %s, id ASC
		LIMIT $5 OFFSET $6`, filters.sortColumn(), filters.sortDirection())

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	args := []any{filter.Title, filter.Author, filter.Level, filter.Key, filters.limit(), filters.offset()}

	rows, err := m.DB.QueryContext(ctx, qry, args...)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	songs := []*Song{}

	for rows.Next() {
		var song Song
		err := rows.Scan(
			&totalRecords,
			&song.ID,
			&song.Title,
			&song.Author,
			&song.Level,
			&song.Key,
			&song.Chords,
			&song.UltimateGuitarLink,
			&song.ShortTitle,
			pq.Array(&song.AudioFiles),
			&song.CreatedAt,
			&song.UpdatedAt,
		)
		if err != nil {
			return nil, Metadata{}, err
		}
		songs = append(songs, &song)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	metadata := calculateMetadata(totalRecords, filters.Page, filters.PageSize)

	return songs, metadata, nil
}

func (m *SongModel) Stats() (*SongStats, error) {
	qry := `
		SELECT s.id, s.title, s.level, s.key, cardinality(s.audio_files) > 0, s.chords <> '',
			s.ultimate_guitar_link <> '', s.created_at,
			(SELECT count(*) FROM lesson_songs ls WHERE ls.song_id = s.id)
		FROM songs s`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, qry)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songRows []SongStatRow
	for rows.Next() {
		var row SongStatRow
		err := rows.Scan(
			&row.ID,
			&row.Title,
			&row.Level,
			&row.Key,
			&row.HasAudio,
			&row.HasChords,
			&row.HasLink,
			&row.CreatedAt,
			&row.LessonCount,
		)
		if err != nil {
			return nil, err
		}
		songRows = append(songRows, row)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	var favorites int
	err = m.DB.QueryRowContext(ctx, `SELECT count(*) FROM favorites`).Scan(&favorites)
	if err != nil {
		return nil, err
	}

	return ComputeSongStats(songRows, favorites, time.Now()), nil
}
