package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeLessonStats(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	rows := []LessonStatRow{
		{ID: 1, TeacherID: 10, StudentID: 100, Status: LessonCompleted, Date: day("2024-03-01"), SongIDs: []int64{1, 2}},
		{ID: 2, TeacherID: 10, StudentID: 100, Status: LessonCompleted, Date: day("2024-02-20"), SongIDs: []int64{2}},
		{ID: 3, TeacherID: 10, StudentID: 101, Status: LessonScheduled, Date: day("2024-03-15")},
		{ID: 4, TeacherID: 11, StudentID: 102, Status: LessonScheduled, Date: day("2024-03-14")},
		{ID: 5, TeacherID: 11, StudentID: 100, Status: LessonCancelled, Date: day("2024-04-02"), SongIDs: []int64{3}},
		{ID: 6, TeacherID: 11, StudentID: 101, Status: LessonScheduled, Date: day("2024-05-01")},
		{ID: 7, TeacherID: 10, StudentID: 102, Status: LessonCompleted, Date: day("2023-12-31")},
	}

	stats := ComputeLessonStats(rows, now)

	assert.Equal(t, 7, stats.TotalLessons)
	assert.Equal(t, 3, stats.UniqueStudents)
	assert.Equal(t, 2, stats.UniqueTeachers)
	assert.Equal(t, 2.33, stats.AverageLessonsPerStudent)
	assert.Equal(t, 2, stats.UpcomingLessons)
	assert.Equal(t, 1, stats.CompletedThisMonth)
	assert.Equal(t, 3, stats.UniqueSongs)
	assert.Equal(t, map[string]int{
		LessonScheduled:   3,
		LessonInProgress:  0,
		LessonCompleted:   3,
		LessonCancelled:   1,
		LessonRescheduled: 0,
	}, stats.ByStatus)
	assert.Equal(t, []MonthCount{
		{Month: "2023-12", Count: 1},
		{Month: "2024-02", Count: 1},
		{Month: "2024-03", Count: 3},
		{Month: "2024-04", Count: 1},
		{Month: "2024-05", Count: 1},
	}, stats.Monthly)
}

func TestComputeLessonStatsEmpty(t *testing.T) {
	stats := ComputeLessonStats(nil, time.Now())

	assert.Zero(t, stats.TotalLessons)
	assert.Zero(t, stats.AverageLessonsPerStudent)
	assert.NotNil(t, stats.Monthly)
	assert.Len(t, stats.ByStatus, len(LessonStatuses))
}

func TestComputeLessonStatsAverageIsExactForWholeNumbers(t *testing.T) {
	rows := []LessonStatRow{
		{TeacherID: 1, StudentID: 2, Status: LessonCompleted, Date: day("2024-01-01")},
		{TeacherID: 1, StudentID: 2, Status: LessonCompleted, Date: day("2024-01-08")},
		{TeacherID: 1, StudentID: 3, Status: LessonCompleted, Date: day("2024-01-01")},
		{TeacherID: 1, StudentID: 3, Status: LessonCompleted, Date: day("2024-01-08")},
	}

	stats := ComputeLessonStats(rows, day("2024-06-01"))
	assert.Equal(t, 2.0, stats.AverageLessonsPerStudent)
}

func TestComputeSongStats(t *testing.T) {
	now := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	rows := []SongStatRow{
		{ID: 1, Title: "Wonderwall", Level: "beginner", Key: "F#m", HasChords: true, HasLink: true, CreatedAt: now.AddDate(0, 0, -3), LessonCount: 4},
		{ID: 2, Title: "Blackbird", Level: "intermediate", Key: "G", HasAudio: true, CreatedAt: now.AddDate(0, -2, 0), LessonCount: 2},
		{ID: 3, Title: "Hotel California", Level: "advanced", Key: "Bm", HasAudio: true, HasChords: true, CreatedAt: now.AddDate(0, 0, -30), LessonCount: 2},
		{ID: 4, Title: "Let It Be", Level: "beginner", Key: "C", CreatedAt: now.AddDate(-1, 0, 0)},
		{ID: 5, Title: "Hallelujah", Level: "beginner", CreatedAt: now.AddDate(0, 0, -31), LessonCount: 1},
		{ID: 6, Title: "Creep", Level: "beginner", Key: "G", LessonCount: 1},
		{ID: 7, Title: "Angie", Level: "intermediate", Key: "Am", LessonCount: 1},
	}

	stats := ComputeSongStats(rows, 9, now)

	assert.Equal(t, 7, stats.TotalSongs)
	assert.Equal(t, map[string]int{"beginner": 4, "intermediate": 2, "advanced": 1}, stats.ByLevel)
	assert.Equal(t, map[string]int{"F#m": 1, "G": 2, "Bm": 1, "C": 1, "Am": 1}, stats.ByKey)
	assert.Equal(t, 2, stats.WithAudio)
	assert.Equal(t, 2, stats.WithChords)
	assert.Equal(t, 1, stats.WithUltimateGuitarLink)
	assert.Equal(t, 2, stats.RecentSongs)
	assert.Equal(t, 6, stats.SongsInLessons)
	assert.Equal(t, 9, stats.TotalFavorites)

	require.Len(t, stats.MostUsed, 5)
	assert.Equal(t, []SongUsage{
		{SongID: 1, Title: "Wonderwall", Count: 4},
		{SongID: 2, Title: "Blackbird", Count: 2},
		{SongID: 3, Title: "Hotel California", Count: 2},
		{SongID: 7, Title: "Angie", Count: 1},
		{SongID: 6, Title: "Creep", Count: 1},
	}, stats.MostUsed)
}
