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

const (
	LessonScheduled   = "SCHEDULED"
	LessonInProgress  = "IN_PROGRESS"
	LessonCompleted   = "COMPLETED"
	LessonCancelled   = "CANCELLED"
	LessonRescheduled = "RESCHEDULED"
)

var LessonStatuses = []string{LessonScheduled, LessonInProgress, LessonCompleted, LessonCancelled, LessonRescheduled}

type Lesson struct {
	ID           int64     `json:"id"`
	TeacherID    int64     `json:"teacher_id"`
	StudentID    int64     `json:"student_id"`
	Title        string    `json:"title"`
	Notes        string    `json:"notes"`
	Date         Date      `json:"date"`
	StartTime    string    `json:"start_time"`
	Status       string    `json:"status"`
	LessonNumber int       `json:"lesson_number"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasParticipant reports whether the user teaches or attends the lesson.
func (l *Lesson) HasParticipant(userID int64) bool {
	return l.TeacherID == userID || l.StudentID == userID
}

func ValidateLesson(v *validator.Validator, lesson *Lesson) {
	v.Check(lesson.TeacherID > 0, "teacher_id", "must be provided")
	v.Check(lesson.StudentID > 0, "student_id", "must be provided")
	v.Check(lesson.TeacherID != lesson.StudentID, "student_id", "must differ from the teacher")
	v.Check(!lesson.Date.IsZero(), "date", "must be provided")
	v.Check(len(lesson.Title) <= 255, "title", "must not be more than 255 bytes long")
	v.Check(validator.In(lesson.Status, LessonStatuses...), "status", "must be one of SCHEDULED, IN_PROGRESS, COMPLETED, CANCELLED or RESCHEDULED")

	if lesson.StartTime != "" {
		v.Check(validator.Matches(lesson.StartTime, validator.StartTimeRX), "start_time", "must be a time formatted as HH:MM")
	}
}

type LessonFilter struct {
	Scope
	Status string
	From   Date
	To     Date
}

type LessonModel struct {
	DB *sql.DB
}

// Insert numbers the lesson after the pair's existing lessons.
func (m *LessonModel) Insert(lesson *Lesson) error {
	qry := `
		INSERT INTO lessons (teacher_id, student_id, title, notes, date, start_time, status, lesson_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT count(*) + 1 FROM lessons WHERE teacher_id = $1 AND student_id = $2))
		RETURNING id, lesson_number, created_at, updated_at`

	args := []any{
		lesson.TeacherID,
		lesson.StudentID,
		lesson.Title,
		lesson.Notes,
		time.Time(lesson.Date),
		lesson.StartTime,
		lesson.Status,
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, args...).Scan(&lesson.ID, &lesson.LessonNumber, &lesson.CreatedAt, &lesson.UpdatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return referenceError(err, "lessons")
		default:
			return err
		}
	}

	return nil
}

func (m *LessonModel) Get(id int64) (*Lesson, error) {
	if id < 1 {
		return nil, ErrNoRecord
	}

	qry := `
		SELECT id, teacher_id, student_id, title, notes, date, start_time, status, lesson_number, created_at, updated_at
		FROM lessons
		WHERE id = $1`

	var lesson Lesson

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, id).Scan(
		&lesson.ID,
		&lesson.TeacherID,
		&lesson.StudentID,
		&lesson.Title,
		&lesson.Notes,
		(*time.Time)(&lesson.Date),
		&lesson.StartTime,
		&lesson.Status,
		&lesson.LessonNumber,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNoRecord
		default:
			return nil, err
		}
	}
	return &lesson, nil
}

func (m *LessonModel) Update(lesson *Lesson) error {
	qry := `
		UPDATE lessons
		SET teacher_id = $1, student_id = $2, title = $3, notes = $4, date = $5, start_time = $6, status = $7, updated_at = $8
		WHERE id = $9 AND updated_at = $10
		RETURNING updated_at`

	args := []any{
		lesson.TeacherID,
		lesson.StudentID,
		lesson.Title,
		lesson.Notes,
		time.Time(lesson.Date),
		lesson.StartTime,
		lesson.Status,
		time.Now(),
		lesson.ID,
		lesson.UpdatedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, args...).Scan(&lesson.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		case isForeignKeyViolation(err):
			return referenceError(err, "lessons")
		default:
			return err
		}
	}

	return nil
}

func (m *LessonModel) Delete(id int64) error {
	if id < 1 {
		return ErrNoRecord
	}

	qry := `
		DELETE FROM lessons
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

func (m *LessonModel) GetAll(filter LessonFilter, filters Filters) ([]*Lesson, Metadata, error) {
	qry := fmt.Sprintf(`
		SELECT count(*) OVER(), id, teacher_id, student_id, title, notes, date, start_time, status, lesson_number, created_at, updated_at
		FROM lessons
		WHERE (teacher_id = $1 OR $1 = 0)
		AND (student_id = $2 OR $2 = 0)
		AND (status = $3 OR $3 = '')
		AND (date >= $4 OR $4 IS NULL)
		AND (date <= $5 OR $5 IS NULL)
		ORDER BY %s %s, id ASC
		LIMIT $6 OFFSET $7`, filters.sortColumn(), filters.sortDirection())

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	args := []any{
		filter.TeacherID,
		filter.StudentID,
		filter.Status,
		nullDate(filter.From),
		nullDate(filter.To),
		filters.limit(),
		filters.offset(),
	}

	rows, err := m.DB.QueryContext(ctx, qry, args...)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	lessons := []*Lesson{}

	for rows.Next() {
		var lesson Lesson
		err := rows.Scan(
			&totalRecords,
			&lesson.ID,
			&lesson.TeacherID,
			&lesson.StudentID,
			&lesson.Title,
			&lesson.Notes,
			(*time.Time)(&lesson.Date),
			&lesson.StartTime,
			&lesson.Status,
			&lesson.LessonNumber,
			&lesson.CreatedAt,
			&lesson.UpdatedAt,
		)
		if err != nil {
			return nil, Metadata{}, err
		}
		lessons = append(lessons, &lesson)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	metadata := calculateMetadata(totalRecords, filters.Page, filters.PageSize)

	return lessons, metadata, nil
}

func (m *LessonModel) Stats(scope Scope) (*LessonStats, error) {
	qry := `
		SELECT l.id, l.teacher_id, l.student_id, l.status, l.date,
			COALESCE(array_agg(ls.song_id) FILTER (WHERE ls.song_id IS NOT NULL), '{}')
		FROM lessons l
		LEFT JOIN lesson_songs ls ON ls.lesson_id = l.id
		WHERE (l.teacher_id = $1 OR $1 = 0)
		AND (l.student_id = $2 OR $2 = 0)
		GROUP BY l.id`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, qry, scope.TeacherID, scope.StudentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessonRows []LessonStatRow
	for rows.Next() {
		var row LessonStatRow
		err := rows.Scan(
			&row.ID,
			&row.TeacherID,
			&row.StudentID,
			&row.Status,
			&row.Date,
			pq.Array(&row.SongIDs),
		)
		if err != nil {
			return nil, err
		}
		lessonRows = append(lessonRows, row)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ComputeLessonStats(lessonRows, time.Now()), nil
}

func nullDate(d Date) any {
	if d.IsZero() {
		return nil
	}
	return time.Time(d)
}
