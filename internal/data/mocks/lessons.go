package mocks

import (
	"time"

	"github.com/vmx-pso/lesson-service/internal/data"
)

type LessonModel struct{ db *DB }

func (m *LessonModel) Insert(lesson *data.Lesson) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if _, ok := m.db.users[lesson.TeacherID]; !ok {
		return &data.ReferenceError{Field: "teacher_id"}
	}
	if _, ok := m.db.users[lesson.StudentID]; !ok {
		return &data.ReferenceError{Field: "student_id"}
	}

	number := 1
	for _, l := range m.db.lessons {
		if l.TeacherID == lesson.TeacherID && l.StudentID == lesson.StudentID {
			number++
		}
	}

	lesson.ID = m.db.id()
	lesson.LessonNumber = number
	lesson.CreatedAt = m.db.now()
	lesson.UpdatedAt = lesson.CreatedAt
	stored := *lesson
	m.db.lessons[lesson.ID] = &stored
	return nil
}

func (m *LessonModel) Get(id int64) (*data.Lesson, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	l, ok := m.db.lessons[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	out := *l
	return &out, nil
}

func (m *LessonModel) Update(lesson *data.Lesson) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	current, ok := m.db.lessons[lesson.ID]
	if !ok || !current.UpdatedAt.Equal(lesson.UpdatedAt) {
		return data.ErrEditConflict
	}

	lesson.UpdatedAt = m.db.now().Add(time.Millisecond)
	stored := *lesson
	m.db.lessons[lesson.ID] = &stored
	return nil
}

func (m *LessonModel) Delete(id int64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if _, ok := m.db.lessons[id]; !ok {
		return data.ErrNoRecord
	}
	delete(m.db.lessons, id)

	for key := range m.db.lessonSongs {
		if key[0] == id {
			delete(m.db.lessonSongs, key)
		}
	}
	for _, a := range m.db.assignments {
		if a.LessonID != nil && *a.LessonID == id {
			a.LessonID = nil
		}
	}
	return nil
}

func matchesScope(scope data.Scope, teacherID, studentID int64) bool {
	if scope.TeacherID != 0 && scope.TeacherID != teacherID {
		return false
	}
	if scope.StudentID != 0 && scope.StudentID != studentID {
		return false
	}
	return true
}

func (m *LessonModel) GetAll(filter data.LessonFilter, filters data.Filters) ([]*data.Lesson, data.Metadata, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	lessons := []*data.Lesson{}
	for _, l := range m.db.lessons {
		if !matchesScope(filter.Scope, l.TeacherID, l.StudentID) {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && time.Time(l.Date).Before(time.Time(filter.From)) {
			continue
		}
		if !filter.To.IsZero() && time.Time(l.Date).After(time.Time(filter.To)) {
			continue
		}
		out := *l
		lessons = append(lessons, &out)
	}
	sortByID(lessons, func(l *data.Lesson) int64 { return l.ID })

	page, md := data.Paginate(lessons, filters)
	return page, md, nil
}

func (m *LessonModel) Stats(scope data.Scope) (*data.LessonStats, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	rows := []data.LessonStatRow{}
	for _, l := range m.db.lessons {
		if !matchesScope(scope, l.TeacherID, l.StudentID) {
			continue
		}
		row := data.LessonStatRow{
			ID:        l.ID,
			TeacherID: l.TeacherID,
			StudentID: l.StudentID,
			Status:    l.Status,
			Date:      time.Time(l.Date),
		}
		for key := range m.db.lessonSongs {
			if key[0] == l.ID {
				row.SongIDs = append(row.SongIDs, key[1])
			}
		}
		rows = append(rows, row)
	}

	return data.ComputeLessonStats(rows, m.db.clock()), nil
}

type LessonSongModel struct{ db *DB }

func (m *LessonSongModel) Insert(ls *data.LessonSong) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	key := [2]int64{ls.LessonID, ls.SongID}
	if _, ok := m.db.lessonSongs[key]; ok {
		return data.ErrDuplicateLessonSong
	}
	if _, ok := m.db.lessons[ls.LessonID]; !ok {
		return data.ErrNoRecord
	}
	song, ok := m.db.songs[ls.SongID]
	if !ok {
		return data.ErrNoRecord
	}

	ls.SongTitle = song.Title
	ls.CreatedAt = m.db.now()
	ls.UpdatedAt = ls.CreatedAt
	m.db.id()
	stored := *ls
	m.db.lessonSongs[key] = &stored
	return nil
}

func (m *LessonSongModel) Get(lessonID, songID int64) (*data.LessonSong, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	ls, ok := m.db.lessonSongs[[2]int64{lessonID, songID}]
	if !ok {
		return nil, data.ErrNoRecord
	}
	out := *ls
	return &out, nil
}

func (m *LessonSongModel) Update(ls *data.LessonSong) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	key := [2]int64{ls.LessonID, ls.SongID}
	current, ok := m.db.lessonSongs[key]
	if !ok || !current.UpdatedAt.Equal(ls.UpdatedAt) {
		return data.ErrEditConflict
	}

	ls.UpdatedAt = m.db.now().Add(time.Millisecond)
	stored := *ls
	m.db.lessonSongs[key] = &stored
	return nil
}

func (m *LessonSongModel) Delete(lessonID, songID int64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	key := [2]int64{lessonID, songID}
	if _, ok := m.db.lessonSongs[key]; !ok {
		return data.ErrNoRecord
	}
	delete(m.db.lessonSongs, key)
	return nil
}

func (m *LessonSongModel) GetAllForLesson(lessonID int64) ([]*data.LessonSong, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	out := []*data.LessonSong{}
	for key, ls := range m.db.lessonSongs {
		if key[0] != lessonID {
			continue
		}
		copied := *ls
		out = append(out, &copied)
	}
	sortByID(out, func(ls *data.LessonSong) int64 { return ls.SongID })
	return out, nil
}

type AssignmentModel struct{ db *DB }

func (m *AssignmentModel) Insert(a *data.Assignment) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if _, ok := m.db.users[a.TeacherID]; !ok {
		return &data.ReferenceError{Field: "teacher_id"}
	}
	if _, ok := m.db.users[a.StudentID]; !ok {
		return &data.ReferenceError{Field: "student_id"}
	}
	if a.LessonID != nil {
		if _, ok := m.db.lessons[*a.LessonID]; !ok {
			return &data.ReferenceError{Field: "lesson_id"}
		}
	}

	a.ID = m.db.id()
	a.CreatedAt = m.db.now()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	m.db.assignments[a.ID] = &stored
	return nil
}

func (m *AssignmentModel) Get(id int64) (*data.Assignment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	a, ok := m.db.assignments[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	out := *a
	return &out, nil
}

func (m *AssignmentModel) Update(a *data.Assignment) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	current, ok := m.db.assignments[a.ID]
	if !ok || !current.UpdatedAt.Equal(a.UpdatedAt) {
		return data.ErrEditConflict
	}

	a.UpdatedAt = m.db.now().Add(time.Millisecond)
	stored := *a
	m.db.assignments[a.ID] = &stored
	return nil
}

func (m *AssignmentModel) Delete(id int64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if _, ok := m.db.assignments[id]; !ok {
		return data.ErrNoRecord
	}
	delete(m.db.assignments, id)
	return nil
}

func (m *AssignmentModel) GetAll(filter data.AssignmentFilter, filters data.Filters) ([]*data.Assignment, data.Metadata, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	assignments := []*data.Assignment{}
	for _, a := range m.db.assignments {
		if !matchesScope(filter.Scope, a.TeacherID, a.StudentID) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && a.Priority != filter.Priority {
			continue
		}
		out := *a
		assignments = append(assignments, &out)
	}
	sortByID(assignments, func(a *data.Assignment) int64 { return a.ID })

	page, md := data.Paginate(assignments, filters)
	return page, md, nil
}
