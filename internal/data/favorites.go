package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Favorite struct {
	UserID    int64     `json:"user_id"`
	SongID    int64     `json:"song_id"`
	CreatedAt time.Time `json:"created_at"`
	Song      *Song     `json:"song,omitempty"`
}

type FavoriteModel struct {
	DB *sql.DB
}

func (m *FavoriteModel) Insert(favorite *Favorite) error {
	qry := `
		INSERT INTO favorites (user_id, song_id)
		VALUES ($1, $2)
		RETURNING created_at`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, favorite.UserID, favorite.SongID).Scan(&favorite.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "favorites_pkey"):
			return ErrDuplicateFavorite
		case isForeignKeyViolation(err):
			return ErrNoRecord
		default:
			return err
		}
	}

	return nil
}

func (m *FavoriteModel) Delete(userID, songID int64) error {
	qry := `
		DELETE FROM favorites
		WHERE user_id = $1 AND song_id = $2`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, qry, userID, songID)
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

// GetAllForUser returns favorites newest first, each with its song.
func (m *FavoriteModel) GetAllForUser(userID int64) ([]*Favorite, error) {
	qry := `
		SELECT f.user_id, f.song_id, f.created_at,
			s.id, s.title, s.author, s.level, s.key, s.chords, s.ultimate_guitar_link, s.short_title,
			s.audio_files, s.created_at, s.updated_at
		FROM favorites f
		INNER JOIN songs s ON s.id = f.song_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, f.song_id ASC`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, qry, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := []*Favorite{}

	for rows.Next() {
		var (
			favorite Favorite
			song     Song
		)
		err := rows.Scan(
			&favorite.UserID,
			&favorite.SongID,
			&favorite.CreatedAt,
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
			return nil, err
		}
		favorite.Song = &song
		favorites = append(favorites, &favorite)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return favorites, nil
}
