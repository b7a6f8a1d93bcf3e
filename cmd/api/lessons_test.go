package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) createLesson(t *testing.T, token string, studentID int64, date, status string) int64 {
	t.Helper()

	res := ts.do(t, http.MethodPost, "/v1/lessons", token, map[string]any{
		"student_id": studentID,
		"title":      "Weekly lesson",
		"date":       date,
		"start_time": "17:30",
		"status":     status,
	})
	require.Equal(t, http.StatusCreated, res.status, res.raw)

	return idOf(t, res.object(t, "lesson"))
}

func TestLessonLifecycle(t *testing.T) {
	ts := newTestServer(t)
	teacher, teacherToken := ts.newUser(t, "teacher")
	otherTeacher, otherTeacherToken := ts.newUser(t, "teacher")
	student, studentToken := ts.newUser(t, "student")
	_, strangerToken := ts.newUser(t, "student")

	res := ts.do(t, http.MethodPost, "/v1/lessons", teacherToken, map[string]any{
		"teacher_id": otherTeacher.ID,
		"student_id": student.ID,
		"date":       "2026-03-05",
	})
	require.Equal(t, http.StatusCreated, res.status, res.raw)

	lesson := res.object(t, "lesson")
	assert.Equal(t, float64(teacher.ID), lesson["teacher_id"], "teachers always book themselves")
	assert.Equal(t, "SCHEDULED", lesson["status"])
	assert.Equal(t, float64(1), lesson["lesson_number"])
	assert.Equal(t, "2026-03-05", lesson["date"])
	id := idOf(t, lesson)

	second := ts.createLesson(t, teacherToken, student.ID, "2026-03-12", "SCHEDULED")
	res = ts.do(t, http.MethodGet, "/v1/lessons/"+itoa(second), studentToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(2), res.object(t, "lesson")["lesson_number"])

	res = ts.do(t, http.MethodGet, "/v1/lessons/"+itoa(id), strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodPatch, "/v1/lessons/"+itoa(id), otherTeacherToken, map[string]string{"notes": "hijack"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodPatch, "/v1/lessons/"+itoa(id), studentToken, map[string]string{"notes": "skip"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodPatch, "/v1/lessons/"+itoa(id), teacherToken, map[string]string{
		"status": "COMPLETED",
		"notes":  "Worked on alternate picking",
	})
	require.Equal(t, http.StatusOK, res.status, res.raw)
	assert.Equal(t, "COMPLETED", res.object(t, "lesson")["status"])

	res = ts.do(t, http.MethodPatch, "/v1/lessons/"+itoa(id), teacherToken, map[string]string{"status": "DONE"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodPatch, "/v1/lessons/"+itoa(id), teacherToken, map[string]string{"date": "05/03/2026"})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = ts.do(t, http.MethodGet, "/v1/lessons", studentToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.list(t, "lessons"), 2)

	res = ts.do(t, http.MethodGet, "/v1/lessons?status=COMPLETED", teacherToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.list(t, "lessons"), 1)

	res = ts.do(t, http.MethodGet, "/v1/lessons", otherTeacherToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Empty(t, res.list(t, "lessons"))

	res = ts.do(t, http.MethodGet, "/v1/lessons?from=2026-03-10", teacherToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.list(t, "lessons"), 1)

	res = ts.do(t, http.MethodGet, "/v1/lessons?from=yesterday", teacherToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodDelete, "/v1/lessons/"+itoa(id), teacherToken, nil)
	assert.Equal(t, http.StatusOK, res.status)

	res = ts.do(t, http.MethodGet, "/v1/lessons/"+itoa(id), teacherToken, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestCreateLessonValidation(t *testing.T) {
	ts := newTestServer(t)
	teacher, teacherToken := ts.newUser(t, "teacher")
	_, adminToken := ts.newUser(t, "admin")

	res := ts.do(t, http.MethodPost, "/v1/lessons", teacherToken, map[string]any{
		"student_id": teacher.ID,
		"start_time": "5pm",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.status)
	errs := res.object(t, "error")
	assert.Contains(t, errs, "student_id")
	assert.Contains(t, errs, "date")
	assert.Contains(t, errs, "start_time")

	res = ts.do(t, http.MethodPost, "/v1/lessons", teacherToken, map[string]any{
		"student_id": 424242,
		"date":       "2026-03-05",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodPost, "/v1/lessons", adminToken, map[string]any{
		"student_id": teacher.ID,
		"date":       "2026-03-05",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status, "admins must name a teacher")

	admin, _ := ts.newUser(t, "admin")
	student, _ := ts.newUser(t, "student")

	res = ts.do(t, http.MethodPost, "/v1/lessons", teacherToken, map[string]any{
		"student_id": admin.ID,
		"date":       "2026-03-05",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.status, res.raw)
	assert.Equal(t, "must reference a user with the student role", res.object(t, "error")["student_id"])

	res = ts.do(t, http.MethodPost, "/v1/lessons", adminToken, map[string]any{
		"teacher_id": admin.ID,
		"student_id": student.ID,
		"date":       "2026-03-05",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.status, res.raw)
	assert.Equal(t, "must reference a user with the teacher role", res.object(t, "error")["teacher_id"])

	res = ts.do(t, http.MethodPost, "/v1/lessons", adminToken, map[string]any{
		"teacher_id": 424242,
		"student_id": student.ID,
		"date":       "2026-03-05",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.status, res.raw)
	assert.Contains(t, res.object(t, "error"), "teacher_id")

	id := ts.createLesson(t, teacherToken, student.ID, "2026-03-05", "SCHEDULED")

	res = ts.do(t, http.MethodPatch, "/v1/lessons/"+itoa(id), teacherToken, map[string]any{"student_id": admin.ID})
	require.Equal(t, http.StatusUnprocessableEntity, res.status, res.raw)
	assert.Contains(t, res.object(t, "error"), "student_id")
}

func TestLessonSongs(t *testing.T) {
	ts := newTestServer(t)
	_, teacherToken := ts.newUser(t, "teacher")
	student, studentToken := ts.newUser(t, "student")
	_, strangerToken := ts.newUser(t, "student")

	lessonID := ts.createLesson(t, teacherToken, student.ID, "2026-03-05", "SCHEDULED")
	songID := ts.createSong(t, teacherToken, "Sweet Child O' Mine", "advanced")
	base := "/v1/lessons/" + itoa(lessonID) + "/songs"

	res := ts.do(t, http.MethodPost, base, teacherToken, map[string]any{"song_id": songID})
	require.Equal(t, http.StatusCreated, res.status, res.raw)
	assert.Equal(t, "to_learn", res.object(t, "lesson_song")["status"])

	res = ts.do(t, http.MethodPost, base, teacherToken, map[string]any{"song_id": songID})
	assert.Equal(t, http.StatusConflict, res.status)

	res = ts.do(t, http.MethodPost, base, teacherToken, map[string]any{"song_id": 9999})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodPost, base, studentToken, map[string]any{"song_id": songID})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodGet, base, studentToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	songs := res.list(t, "lesson_songs")
	require.Len(t, songs, 1)
	assert.Equal(t, "Sweet Child O' Mine", songs[0].(map[string]any)["song_title"])

	res = ts.do(t, http.MethodGet, base, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodPatch, base+"/"+itoa(songID), studentToken, map[string]string{"status": "remembered"})
	require.Equal(t, http.StatusOK, res.status, res.raw)
	assert.Equal(t, "remembered", res.object(t, "lesson_song")["status"])

	res = ts.do(t, http.MethodPatch, base+"/"+itoa(songID), strangerToken, map[string]string{"status": "mastered"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodPatch, base+"/"+itoa(songID), studentToken, map[string]string{"status": "forgotten"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodDelete, base+"/"+itoa(songID), studentToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodDelete, base+"/"+itoa(songID), teacherToken, nil)
	assert.Equal(t, http.StatusOK, res.status)

	res = ts.do(t, http.MethodDelete, base+"/"+itoa(songID), teacherToken, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	ts.db.SetClock(func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) })

	_, teacherToken := ts.newUser(t, "teacher")
	studentA, studentAToken := ts.newUser(t, "student")
	studentB, _ := ts.newUser(t, "student")
	_, adminToken := ts.newUser(t, "admin")
	_, otherTeacherToken := ts.newUser(t, "teacher")

	first := ts.createLesson(t, teacherToken, studentA.ID, "2026-02-01", "COMPLETED")
	ts.createLesson(t, teacherToken, studentA.ID, "2026-03-05", "COMPLETED")
	ts.createLesson(t, teacherToken, studentB.ID, "2026-03-20", "SCHEDULED")

	songID := ts.createSong(t, teacherToken, "Layla", "intermediate")
	res := ts.do(t, http.MethodPost, "/v1/lessons/"+itoa(first)+"/songs", teacherToken, map[string]any{"song_id": songID})
	require.Equal(t, http.StatusCreated, res.status)

	res = ts.do(t, http.MethodGet, "/v1/stats/songs", studentAToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodGet, "/v1/stats/songs", teacherToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	songStats := res.object(t, "stats")
	assert.Equal(t, float64(1), songStats["total_songs"])
	assert.Equal(t, float64(1), songStats["songs_in_lessons"])
	assert.Equal(t, float64(1), songStats["recent_songs"])

	res = ts.do(t, http.MethodGet, "/v1/stats/lessons", adminToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	stats := res.object(t, "stats")
	assert.Equal(t, float64(3), stats["total_lessons"])
	assert.Equal(t, float64(2), stats["unique_students"])
	assert.Equal(t, 1.5, stats["average_lessons_per_student"])
	assert.Equal(t, float64(1), stats["upcoming_lessons"])
	assert.Equal(t, float64(1), stats["completed_this_month"])
	assert.Equal(t, float64(1), stats["unique_songs"])

	res = ts.do(t, http.MethodGet, "/v1/stats/lessons", studentAToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	stats = res.object(t, "stats")
	assert.Equal(t, float64(2), stats["total_lessons"])
	assert.Equal(t, float64(0), stats["upcoming_lessons"])

	res = ts.do(t, http.MethodGet, "/v1/stats/lessons", otherTeacherToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(0), res.object(t, "stats")["total_lessons"])

}
