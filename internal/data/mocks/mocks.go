// Package mocks provides in-memory implementations of the data stores for handler tests.
package mocks

import (
	"crypto/sha256"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vmx-pso/lesson-service/internal/data"
)

// DB is the shared in-memory state behind every store returned by NewModels.
type DB struct {
	mu          sync.Mutex
	clock       func() time.Time
	nextID      int64
	users       map[int64]*data.User
	tokens      []*data.Token
	songs       map[int64]*data.Song
	favorites   map[[2]int64]*data.Favorite
	lessons     map[int64]*data.Lesson
	lessonSongs map[[2]int64]*data.LessonSong
	assignments map[int64]*data.Assignment
}

func NewDB() *DB {
	return &DB{
		clock:       time.Now,
		users:       make(map[int64]*data.User),
		songs:       make(map[int64]*data.Song),
		favorites:   make(map[[2]int64]*data.Favorite),
		lessons:     make(map[int64]*data.Lesson),
		lessonSongs: make(map[[2]int64]*data.LessonSong),
		assignments: make(map[int64]*data.Assignment),
	}
}

func NewModels(db *DB) *data.Models {
	return &data.Models{
		Songs:       &SongModel{db},
		Favorites:   &FavoriteModel{db},
		Lessons:     &LessonModel{db},
		LessonSongs: &LessonSongModel{db},
		Assignments: &AssignmentModel{db},
		Users:       &UserModel{db},
		Tokens:      &TokenModel{db},
	}
}

func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}

// now returns strictly increasing timestamps so updated_at comparisons behave.
func (db *DB) now() time.Time {
	return db.clock().Add(time.Duration(db.nextID) * time.Microsecond)
}

func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}

type UserModel struct{ db *DB }

func (m *UserModel) Insert(user *data.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	for _, u := range m.db.users {
		if u.Email == user.Email {
			return data.ErrDuplicateEmail
		}
	}

	user.ID = m.db.id()
	user.CreatedAt = m.db.now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.db.users[user.ID] = &stored
	return nil
}

func (m *UserModel) Get(id int64) (*data.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	u, ok := m.db.users[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	out := *u
	return &out, nil
}

func (m *UserModel) GetByEmail(email string) (*data.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	for _, u := range m.db.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, data.ErrNoRecord
}

func (m *UserModel) GetForToken(tokenScope, tokenPlaintext string) (*data.User, error) {
	hash := sha256.Sum256([]byte(tokenPlaintext))

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	for _, t := range m.db.tokens {
		if string(t.Hash) == string(hash[:]) && t.Scope == tokenScope && t.Expiry.After(time.Now()) {
			u, ok := m.db.users[t.UserID]
			if !ok {
				break
			}
			out := *u
			return &out, nil
		}
	}
	return nil, data.ErrNoRecord
}

func (m *UserModel) Update(user *data.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	current, ok := m.db.users[user.ID]
	if !ok || !current.UpdatedAt.Equal(user.UpdatedAt) {
		return data.ErrEditConflict
	}
	for _, u := range m.db.users {
		if u.ID != user.ID && u.Email == user.Email {
			return data.ErrDuplicateEmail
		}
	}

	user.UpdatedAt = m.db.now().Add(time.Millisecond)
	stored := *user
	m.db.users[user.ID] = &stored
	return nil
}

func (m *UserModel) GetAll(filter data.UserFilter, filters data.Filters) ([]*data.User, data.Metadata, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	users := []*data.User{}
	for _, u := range m.db.users {
		if filter.Role != "" && !u.HasRole(filter.Role) {
			continue
		}
		if filter.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Email)) {
			continue
		}
		out := *u
		users = append(users, &out)
	}
	sortByID(users, func(u *data.User) int64 { return u.ID })

	page, md := data.Paginate(users, filters)
	return page, md, nil
}

type TokenModel struct{ db *DB }

func (m *TokenModel) New(userID int64, ttl time.Duration, scope string) (*data.Token, error) {
	token, err := data.GenerateToken(userID, ttl, scope)
	if err != nil {
		return nil, err
	}
	return token, m.Insert(token)
}

func (m *TokenModel) Insert(token *data.Token) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	m.db.tokens = append(m.db.tokens, token)
	return nil
}

func (m *TokenModel) DeleteAllForUser(scope string, userID int64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	kept := m.db.tokens[:0]
	for _, t := range m.db.tokens {
		if t.Scope == scope && t.UserID == userID {
			continue
		}
		kept = append(kept, t)
	}
	m.db.tokens = kept
	return nil
}

// SetClock fixes the time the stores stamp records and compute statistics with.
func (db *DB) SetClock(clock func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.clock = clock
}
