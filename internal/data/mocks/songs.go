package mocks

import (
	"strings"
	"time"

	"github.com/vmx-pso/lesson-service/internal/data"
)

type SongModel struct{ db *DB }

func (m *SongModel) Insert(song *data.Song) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	song.ID = m.db.id()
	song.CreatedAt = m.db.now()
	song.UpdatedAt = song.CreatedAt
	stored := *song
	m.db.songs[song.ID] = &stored
	return nil
}

func (m *SongModel) Get(id int64) (*data.Song, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	s, ok := m.db.songs[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	out := *s
	return &out, nil
}

func (m *SongModel) Update(song *data.Song) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	current, ok := m.db.songs[song.ID]
	if !ok || !current.UpdatedAt.Equal(song.UpdatedAt) {
		return data.ErrEditConflict
	}

	song.UpdatedAt = m.db.now().Add(time.Millisecond)
	stored := *song
	m.db.songs[song.ID] = &stored
	return nil
}

func (m *SongModel) Delete(id int64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if _, ok := m.db.songs[id]; !ok {
		return data.ErrNoRecord
	}
	delete(m.db.songs, id)

	for key := range m.db.favorites {
		if key[1] == id {
			delete(m.db.favorites, key)
		}
	}
	for key := range m.db.lessonSongs {
		if key[1] == id {
			delete(m.db.lessonSongs, key)
		}
	}
	return nil
}

func (m *SongModel) GetAll(filter data.SongFilter, filters data.Filters) ([]*data.Song, data.Metadata, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	songs := []*data.Song{}
	for _, s := range m.db.songs {
		if filter.Title != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(filter.Title)) {
			continue
		}
		if filter.Author != "" && !strings.Contains(strings.ToLower(s.Author), strings.ToLower(filter.Author)) {
			continue
		}
		if filter.Level != "" && s.Level != filter.Level {
			continue
		}
		if filter.Key != "" && s.Key != filter.Key {
			continue
		}
		out := *s
		songs = append(songs, &out)
	}
	sortByID(songs, func(s *data.Song) int64 { return s.ID })

	page, md := data.Paginate(songs, filters)
	return page, md, nil
}

func (m *SongModel) Stats() (*data.SongStats, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	usage := make(map[int64]int)
	for key := range m.db.lessonSongs {
		usage[key[1]]++
	}

	rows := make([]data.SongStatRow, 0, len(m.db.songs))
	for _, s := range m.db.songs {
		rows = append(rows, data.SongStatRow{
			ID:          s.ID,
			Title:       s.Title,
			Level:       s.Level,
			Key:         s.Key,
			HasAudio:    len(s.AudioFiles) > 0,
			HasChords:   s.Chords != "",
			HasLink:     s.UltimateGuitarLink != "",
			CreatedAt:   s.CreatedAt,
			LessonCount: usage[s.ID],
		})
	}

	return data.ComputeSongStats(rows, len(m.db.favorites), m.db.clock()), nil
}

type FavoriteModel struct{ db *DB }

func (m *FavoriteModel) Insert(favorite *data.Favorite) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	key := [2]int64{favorite.UserID, favorite.SongID}
	if _, ok := m.db.favorites[key]; ok {
		return data.ErrDuplicateFavorite
	}
	if _, ok := m.db.songs[favorite.SongID]; !ok {
		return data.ErrNoRecord
	}

	favorite.CreatedAt = m.db.now()
	m.db.id()
	stored := *favorite
	m.db.favorites[key] = &stored
	return nil
}

func (m *FavoriteModel) Delete(userID, songID int64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	key := [2]int64{userID, songID}
	if _, ok := m.db.favorites[key]; !ok {
		return data.ErrNoRecord
	}
	delete(m.db.favorites, key)
	return nil
}

func (m *FavoriteModel) GetAllForUser(userID int64) ([]*data.Favorite, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	favorites := []*data.Favorite{}
	for key, f := range m.db.favorites {
		if key[0] != userID {
			continue
		}
		out := *f
		if s, ok := m.db.songs[f.SongID]; ok {
			song := *s
			out.Song = &song
		}
		favorites = append(favorites, &out)
	}
	sortByID(favorites, func(f *data.Favorite) int64 { return f.SongID })
	return favorites, nil
}
