package data

import (
	"math"
	"sort"
	"time"
)

const (
	recentSongWindow = 30 * 24 * time.Hour
	mostUsedLimit    = 5
)

// SongStatRow is the per-song projection the song statistics are folded from.
type SongStatRow struct {
	ID          int64
	Title       string
	Level       string
	Key         string
	HasAudio    bool
	HasChords   bool
	HasLink     bool
	CreatedAt   time.Time
	LessonCount int
}

type SongUsage struct {
	SongID int64  `json:"song_id"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
}

type SongStats struct {
	TotalSongs             int            `json:"total_songs"`
	ByLevel                map[string]int `json:"by_level"`
	ByKey                  map[string]int `json:"by_key"`
	WithAudio              int            `json:"with_audio"`
	WithChords             int            `json:"with_chords"`
	WithUltimateGuitarLink int            `json:"with_ultimate_guitar_link"`
	RecentSongs            int            `json:"recent_songs"`
	SongsInLessons         int            `json:"songs_in_lessons"`
	TotalFavorites         int            `json:"total_favorites"`
	MostUsed               []SongUsage    `json:"most_used"`
}

func ComputeSongStats(rows []SongStatRow, favorites int, now time.Time) *SongStats {
	stats := &SongStats{
		TotalSongs:     len(rows),
		ByLevel:        make(map[string]int, len(SongLevels)),
		ByKey:          make(map[string]int),
		TotalFavorites: favorites,
		MostUsed:       []SongUsage{},
	}

	for _, level := range SongLevels {
		stats.ByLevel[level] = 0
	}

	cutoff := now.Add(-recentSongWindow)

	for _, row := range rows {
		stats.ByLevel[row.Level]++

		if row.Key != "" {
			stats.ByKey[row.Key]++
		}
		if row.HasAudio {
			stats.WithAudio++
		}
		if row.HasChords {
			stats.WithChords++
		}
		if row.HasLink {
			stats.WithUltimateGuitarLink++
		}
		if !row.CreatedAt.Before(cutoff) {
			stats.RecentSongs++
		}
		if row.LessonCount > 0 {
			stats.SongsInLessons++
			stats.MostUsed = append(stats.MostUsed, SongUsage{SongID: row.ID, Title: row.Title, Count: row.LessonCount})
		}
	}

	sort.Slice(stats.MostUsed, func(i, j int) bool {
		a, b := stats.MostUsed[i], stats.MostUsed[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.SongID < b.SongID
	})

	if len(stats.MostUsed) > mostUsedLimit {
		stats.MostUsed = stats.MostUsed[:mostUsedLimit]
	}

	return stats
}

// LessonStatRow is the per-lesson projection the lesson statistics are folded from.
type LessonStatRow struct {
	ID        int64
	TeacherID int64
	StudentID int64
	Status    string
	Date      time.Time
	SongIDs   []int64
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type LessonStats struct {
	TotalLessons             int            `json:"total_lessons"`
	ByStatus                 map[string]int `json:"by_status"`
	UniqueStudents           int            `json:"unique_students"`
	UniqueTeachers           int            `json:"unique_teachers"`
	AverageLessonsPerStudent float64        `json:"average_lessons_per_student"`
	UpcomingLessons          int            `json:"upcoming_lessons"`
	CompletedThisMonth       int            `json:"completed_this_month"`
	UniqueSongs              int            `json:"unique_songs"`
	Monthly                  []MonthCount   `json:"monthly"`
}

func ComputeLessonStats(rows []LessonStatRow, now time.Time) *LessonStats {
	stats := &LessonStats{
		TotalLessons: len(rows),
		ByStatus:     make(map[string]int, len(LessonStatuses)),
		Monthly:      []MonthCount{},
	}

	for _, status := range LessonStatuses {
		stats.ByStatus[status] = 0
	}

	var (
		students = make(map[int64]struct{})
		teachers = make(map[int64]struct{})
		songs    = make(map[int64]struct{})
		months   = make(map[string]int)
		today    = truncateDay(now)
		month    = now.Format("2006-01")
	)

	for _, row := range rows {
		stats.ByStatus[row.Status]++
		students[row.StudentID] = struct{}{}
		teachers[row.TeacherID] = struct{}{}

		for _, id := range row.SongIDs {
			songs[id] = struct{}{}
		}

		day := truncateDay(row.Date)
		lessonMonth := day.Format("2006-01")
		months[lessonMonth]++

		if row.Status == LessonScheduled && !day.Before(today) {
			stats.UpcomingLessons++
		}
		if row.Status == LessonCompleted && lessonMonth == month {
			stats.CompletedThisMonth++
		}
	}

	stats.UniqueStudents = len(students)
	stats.UniqueTeachers = len(teachers)
	stats.UniqueSongs = len(songs)

	if stats.UniqueStudents > 0 {
		avg := float64(stats.TotalLessons) / float64(stats.UniqueStudents)
		stats.AverageLessonsPerStudent = math.Round(avg*100) / 100
	}

	for m, count := range months {
		stats.Monthly = append(stats.Monthly, MonthCount{Month: m, Count: count})
	}
	sort.Slice(stats.Monthly, func(i, j int) bool {
		return stats.Monthly[i].Month < stats.Monthly[j].Month
	})

	return stats
}
