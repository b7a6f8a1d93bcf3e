package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmx-pso/lesson-service/internal/validator"
)

var (
	AssignmentStatuses   = []string{"not_started", "in_progress", "completed", "overdue", "cancelled"}
	AssignmentPriorities = []string{"low", "medium", "high", "urgent"}
)

type Assignment struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     *Date     `json:"due_date"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	TeacherID   int64     `json:"teacher_id"`
	StudentID   int64     `json:"student_id"`
	LessonID    *int64    `json:"lesson_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a *Assignment) HasParticipant(userID int64) bool {
	return a.TeacherID == userID || a.StudentID == userID
}

func ValidateAssignment(v *validator.Validator, a *Assignment) {
	v.Check(a.Title != "", "title", "must be provided")
	v.Check(len(a.Title) <= 255, "title", "must not be more than 255 bytes long")
	v.Check(len(a.Description) <= 5000, "description", "must not be more than 5000 bytes long")
	v.Check(a.TeacherID > 0, "teacher_id", "must be provided")
	v.Check(a.StudentID > 0, "student_id", "must be provided")
	v.Check(validator.In(a.Status, AssignmentStatuses...), "status", "must be one of not_started, in_progress, completed, overdue or cancelled")
	v.Check(validator.In(a.Priority, AssignmentPriorities...), "priority", "must be one of low, medium, high or urgent")

	if a.LessonID != nil {
		v.Check(*a.LessonID > 0, "lesson_id", "must be a positive integer")
	}
}

type AssignmentFilter struct {
	Scope
	Status   string
	Priority string
}

type AssignmentModel struct {
	DB *sql.DB
}

func (m *AssignmentModel) Insert(a *Assignment) error {
	qry := `
		INSERT INTO assignments (title, description, due_date, status, priority, teacher_id, student_id, lesson_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	args := []any{a.Title, a.Description, dueDateArg(a.DueDate), a.Status, a.Priority, a.TeacherID, a.StudentID, a.LessonID}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return referenceError(err, "assignments")
		default:
			return err
		}
	}

	return nil
}

func (m *AssignmentModel) Get(id int64) (*Assignment, error) {
	if id < 1 {
		return nil, ErrNoRecord
	}

	qry := `
		SELECT id, title, description, due_date, status, priority, teacher_id, student_id, lesson_id, created_at, updated_at
		FROM assignments
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	a, err := scanAssignment(m.DB.QueryRowContext(ctx, qry, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNoRecord
		default:
			return nil, err
		}
	}

	return a, nil
}

func (m *AssignmentModel) Update(a *Assignment) error {
	qry := `
		UPDATE assignments
		SET title = $1, description = $2, due_date = $3, status = $4, priority = $5, teacher_id = $6,
			student_id = $7, lesson_id = $8, updated_at = $9
		WHERE id = $10 AND updated_at = $11
		RETURNING updated_at`

	args := []any{
		a.Title,
		a.Description,
		dueDateArg(a.DueDate),
		a.Status,
		a.Priority,
		a.TeacherID,
		a.StudentID,
		a.LessonID,
		time.Now(),
		a.ID,
		a.UpdatedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, qry, args...).Scan(&a.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		case isForeignKeyViolation(err):
			return referenceError(err, "assignments")
		default:
			return err
		}
	}

	return nil
}

func (m *AssignmentModel) Delete(id int64) error {
	if id < 1 {
		return ErrNoRecord
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
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

func (m *AssignmentModel) GetAll(filter AssignmentFilter, filters Filters) ([]*Assignment, Metadata, error) {
	qry := fmt.Sprintf(`
		SELECT count(*) OVER(), id, title, description, due_date, status, priority, teacher_id, student_id, lesson_id, created_at, updated_at
		FROM assignments
		WHERE (teacher_id = $1 OR $1 = 0)
		AND (student_id = $2 OR $2 = 0)
		AND (status = $3 OR $3 = '')
		AND (priority = $4 OR $4 = '')
		ORDER BY %s %s NULLS LAST, id ASC
		LIMIT $5 OFFSET $6`, filters.sortColumn(), filters.sortDirection())

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	args := []any{filter.TeacherID, filter.StudentID, filter.Status, filter.Priority, filters.limit(), filters.offset()}

	rows, err := m.DB.QueryContext(ctx, qry, args...)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	assignments := []*Assignment{}

	for rows.Next() {
		a, err := scanAssignment(rows, &totalRecords)
		if err != nil {
			return nil, Metadata{}, err
		}
		assignments = append(assignments, a)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	return assignments, calculateMetadata(totalRecords, filters.Page, filters.PageSize), nil
}

func scanAssignment(row interface{ Scan(...any) error }, extra ...any) (*Assignment, error) {
	var (
		a        Assignment
		dueDate  sql.NullTime
		lessonID sql.NullInt64
	)

	dest := append(extra,
		&a.ID,
		&a.Title,
		&a.Description,
		&dueDate,
		&a.Status,
		&a.Priority,
		&a.TeacherID,
		&a.StudentID,
		&lessonID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if dueDate.Valid {
		d := Date(dueDate.Time)
		a.DueDate = &d
	}
	if lessonID.Valid {
		a.LessonID = &lessonID.Int64
	}

	return &a, nil
}

func dueDateArg(d *Date) any {
	if d == nil {
		return nil
	}
	return time.Time(*d)
}
