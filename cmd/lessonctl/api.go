package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/vmx-pso/lesson-service/internal/client"
)

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Exchange email and password for a bearer token",
		Flags: append(apiFlags(),
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email address",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				Required: true,
				Sources:  cli.EnvVars("LESSONS_PASSWORD"),
			},
		),
		Action: r.Login,
	}
}

func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Song catalogue",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs",
				Flags: append(apiFlags(),
					&cli.StringFlag{Name: "title", Usage: "Filter by title words"},
					&cli.StringFlag{Name: "author", Usage: "Filter by author"},
					&cli.StringFlag{Name: "level", Usage: "beginner, intermediate or advanced"},
					&cli.StringFlag{Name: "key", Usage: "Musical key, e.g. Em"},
					&cli.StringFlag{Name: "sort", Usage: "Sort field, prefix with - for descending", Value: "title"},
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.IntFlag{Name: "page-size", Usage: "Songs per page", Value: 20},
				),
				Action: r.ListSongs,
			},
		},
	}
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Dashboard statistics",
		Commands: []*cli.Command{
			{
				Name:   "songs",
				Usage:  "Song catalogue statistics (teachers and admins)",
				Flags:  apiFlags(),
				Action: r.SongStats,
			},
			{
				Name:   "lessons",
				Usage:  "Lesson statistics scoped to your role",
				Flags:  apiFlags(),
				Action: r.LessonStats,
			},
		},
	}
}

func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	c := r.newClient(cmd.String("api"))

	token, err := c.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		message := "login failed"
		if client.DetermineErrorType(err) == client.ErrorAuth {
			message = "invalid email or password"
		}
		return r.apiFailure(err, message)
	}

	if cmd.Bool("json") {
		return r.writeJSON(token)
	}

	r.logger.Info("logged in", "expires", token.Expiry.Format(time.RFC3339))

	return r.writePlainln("%s", token.Plaintext)
}

func (r *Runner) ListSongs(ctx context.Context, cmd *cli.Command) error {
	songs, md, err := r.apiClient(cmd).ListSongs(ctx, client.SongQuery{
		Title:    cmd.String("title"),
		Author:   cmd.String("author"),
		Level:    cmd.String("level"),
		Key:      cmd.String("key"),
		Sort:     cmd.String("sort"),
		Page:     int(cmd.Int("page")),
		PageSize: int(cmd.Int("page-size")),
	})
	if err != nil {
		return r.apiFailure(err, client.SongErrorMessage(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"songs": songs, "metadata": md})
	}

	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tLEVEL\tKEY\tAUDIO")
	for _, s := range songs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", s.ID, s.Title, s.Author, s.Level, s.Key, len(s.AudioFiles))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if md.TotalRecords > 0 {
		return r.writePlainln("page %d of %d (%d songs)", md.CurrentPage, md.LastPage, md.TotalRecords)
	}

	return r.writePlainln("no songs found")
}

func (r *Runner) SongStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.apiClient(cmd).SongStats(ctx)
	if err != nil {
		return r.apiFailure(err, client.SongErrorMessage(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats)
	}

	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total songs\t%d\n", stats.TotalSongs)
	fmt.Fprintf(tw, "Recent (30 days)\t%d\n", stats.RecentSongs)
	fmt.Fprintf(tw, "With audio\t%d\n", stats.WithAudio)
	fmt.Fprintf(tw, "With chords\t%d\n", stats.WithChords)
	fmt.Fprintf(tw, "With Ultimate Guitar link\t%d\n", stats.WithUltimateGuitarLink)
	fmt.Fprintf(tw, "Used in lessons\t%d\n", stats.SongsInLessons)
	fmt.Fprintf(tw, "Favorites\t%d\n", stats.TotalFavorites)
	writeCounts(tw, "Level", stats.ByLevel)
	writeCounts(tw, "Key", stats.ByKey)
	for i, u := range stats.MostUsed {
		fmt.Fprintf(tw, "Most used #%d\t%s (%d)\n", i+1, u.Title, u.Count)
	}

	return tw.Flush()
}

func (r *Runner) LessonStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.apiClient(cmd).LessonStats(ctx)
	if err != nil {
		return r.apiFailure(err, client.LessonErrorMessage(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats)
	}

	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total lessons\t%d\n", stats.TotalLessons)
	fmt.Fprintf(tw, "Students\t%d\n", stats.UniqueStudents)
	fmt.Fprintf(tw, "Teachers\t%d\n", stats.UniqueTeachers)
	fmt.Fprintf(tw, "Lessons per student\t%.2f\n", stats.AverageLessonsPerStudent)
	fmt.Fprintf(tw, "Upcoming\t%d\n", stats.UpcomingLessons)
	fmt.Fprintf(tw, "Completed this month\t%d\n", stats.CompletedThisMonth)
	fmt.Fprintf(tw, "Songs covered\t%d\n", stats.UniqueSongs)
	writeCounts(tw, "Status", stats.ByStatus)
	for _, m := range stats.Monthly {
		fmt.Fprintf(tw, "Month %s\t%d\n", m.Month, m.Count)
	}

	return tw.Flush()
}

// apiFailure logs the user-facing message and returns it as the command error.
func (r *Runner) apiFailure(err error, message string) error {
	r.logger.Error(message, "type", client.DetermineErrorType(err), "err", err)

	return fmt.Errorf("%s: %w", message, err)
}

func writeCounts(tw *tabwriter.Writer, label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(tw, "%s %s\t%d\n", label, k, counts[k])
	}
}
