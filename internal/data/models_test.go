package data

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceError(t *testing.T) {
	tests := []struct {
		name       string
		table      string
		constraint string
		field      string
	}{
		{"assignment teacher", "assignments", "assignments_teacher_id_fkey", "teacher_id"},
		{"assignment student", "assignments", "assignments_student_id_fkey", "student_id"},
		{"assignment lesson", "assignments", "assignments_lesson_id_fkey", "lesson_id"},
		{"lesson student", "lessons", "lessons_student_id_fkey", "student_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := referenceError(fmt.Errorf("insert: %w", &pq.Error{Code: "23503", Constraint: tt.constraint}), tt.table)

			var refErr *ReferenceError
			require.ErrorAs(t, err, &refErr)
			assert.Equal(t, tt.field, refErr.Field)
			assert.ErrorIs(t, err, ErrNoRecord)
		})
	}

	t.Run("unnamed constraint", func(t *testing.T) {
		err := referenceError(&pq.Error{Code: "23503"}, "lessons")
		assert.Equal(t, ErrNoRecord, err)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		unique := &pq.Error{Code: "23505", Constraint: "users_email_key"}
		assert.Same(t, unique, referenceError(unique, "users"))

		plain := errors.New("connection reset")
		assert.Equal(t, plain, referenceError(plain, "lessons"))
	})
}
