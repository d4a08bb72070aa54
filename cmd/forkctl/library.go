package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"fork-your-story/internal/library"
	"fork-your-story/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLibraryCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Manage the local story library",
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")

	// printStories выводит истории таблицей или через render.
	printStories := func(w io.Writer, stories []models.Story) error {
		if output == "table" {
			return storyTable(w, stories)
		}
		format, err := parseFormat(output)
		if err != nil {
			return err
		}
		return render(w, format, stories)
	}
	printValue := func(w io.Writer, v any) error {
		format := formatJSON
		if output != "table" {
			f, err := parseFormat(output)
			if err != nil {
				return err
			}
			format = f
		}
		return render(w, format, v)
	}

	cmd.AddCommand(
		newLibraryListCmd(a, printStories),
		newLibraryAddCmd(a),
		newLibraryRemoveCmd(a),
		newLibraryViewCmd(a),
		newLibraryFilterCmd(a),
		newLibraryFindCmd(a, printStories),
		&cobra.Command{
			Use:   "stats",
			Short: "Show library totals",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, closeLib, err := a.openLibrary(cmd.Context())
				if err != nil {
					return err
				}
				defer closeLib()
				return printValue(cmd.OutOrStdout(), store.Stats())
			},
		},
		&cobra.Command{
			Use:   "insights",
			Short: "Show writing insights across the library",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, closeLib, err := a.openLibrary(cmd.Context())
				if err != nil {
					return err
				}
				defer closeLib()
				return printValue(cmd.OutOrStdout(), store.Insights())
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every story and reset view and filters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, closeLib, err := a.openLibrary(cmd.Context())
				if err != nil {
					return err
				}
				defer closeLib()
				store.Reset(cmd.Context())
				a.log.Info().Msg("Library cleared")
				return nil
			},
		},
	)
	return cmd
}

func newLibraryListCmd(a *app, printStories func(io.Writer, []models.Story) error) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stories using the saved view filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeLib, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLib()

			stories := store.Visible()
			if all {
				stories = store.Stories()
			}
			return printStories(cmd.OutOrStdout(), stories)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "ignore saved filters and list every story")
	return cmd
}

func newLibraryAddCmd(a *app) *cobra.Command {
	var (
		title    string
		category string
		tags     []string
	)
	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Add a story from a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read story: %w", err)
			}
			content := strings.TrimSpace(string(data))
			if content == "" {
				return models.ErrMissingStoryText
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			store, closeLib, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLib()

			story := models.Story{
				ID:        uuid.New(),
				Title:     title,
				Content:   content,
				WordCount: models.CountWords(content),
				Tags:      tags,
				Status:    models.StoryStatusComplete,
				CreatedAt: time.Now().UTC(),
			}
			if category != "" {
				story.Category = &category
			}
			store.AddStory(cmd.Context(), story)
			fmt.Fprintln(cmd.OutOrStdout(), story.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "story title (defaults to the file name)")
	cmd.Flags().StringVar(&category, "category", "", "story category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "story tag (repeatable)")
	return cmd
}

func newLibraryRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a story by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid story id %q: %w", args[0], err)
			}
			store, closeLib, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLib()

			if !store.RemoveStory(cmd.Context(), id) {
				return fmt.Errorf("story %s: %w", id, models.ErrNotFound)
			}
			a.log.Info().Str("id", id.String()).Msg("Story removed")
			return nil
		},
	}
}

func newLibraryViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "view [grid|list|map|timeline]",
		Short:     "Show or set the library view mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(library.ViewGrid), string(library.ViewList), string(library.ViewMap), string(library.ViewTimeline)},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeLib, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLib()

			if len(args) == 1 {
				v, err := library.ParseView(args[0])
				if err != nil {
					return err
				}
				if err := store.SetView(cmd.Context(), v); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.View())
			return nil
		},
	}
}

func newLibraryFilterCmd(a *app) *cobra.Command {
	var (
		search   string
		category string
		tags     []string
		sortBy   string
		reset    bool
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Show or update the saved library filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeLib, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLib()

			var patch library.FilterPatch
			flags := cmd.Flags()
			if reset {
				def := library.DefaultFilters()
				patch = library.FilterPatch{Search: &def.Search, Category: &def.Category, Tags: []string{}, SortBy: &def.SortBy}
			}
			if flags.Changed("search") {
				patch.Search = &search
			}
			if flags.Changed("category") {
				patch.Category = &category
			}
			if flags.Changed("tag") {
				patch.Tags = tags
				if patch.Tags == nil {
					patch.Tags = []string{}
				}
			}
			if flags.Changed("sort") {
				s, err := library.ParseSortBy(sortBy)
				if err != nil {
					return err
				}
				patch.SortBy = &s
			}
			if err := store.SetFilters(cmd.Context(), patch); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), formatJSON, store.Filters())
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text search over title, content and tags")
	cmd.Flags().StringVar(&category, "category", "", "exact category (empty clears)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "required tag (repeatable)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort order: newest, oldest, title, wordCount")
	cmd.Flags().BoolVar(&reset, "reset", false, "restore default filters before applying other flags")
	return cmd
}

func newLibraryFindCmd(a *app, printStories func(io.Writer, []models.Story) error) *cobra.Command {
	return &cobra.Command{
		Use:   "find QUERY",
		Short: "Find stories by approximate title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeLib, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLib()
			return printStories(cmd.OutOrStdout(), store.FindByTitle(strings.Join(args, " ")))
		},
	}
}

func storyTable(w io.Writer, stories []models.Story) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tWORDS\tCATEGORY\tTAGS\tCREATED")
	for _, s := range stories {
		created := "-"
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Format("2006-01-02")
		}
		category := s.CategoryValue()
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", s.ID, s.Title, s.WordCount, category, strings.Join(s.Tags, ","), created)
	}
	return tw.Flush()
}
