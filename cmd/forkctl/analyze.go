package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/analysis"
	"fork-your-story/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		title  string
		output string
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a story from a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read story: %w", err)
			}
			content := strings.TrimSpace(string(data))
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			if content == "" {
				return models.ErrMissingStoryText
			}
			words := models.CountWords(content)
			if words < models.MinWordCount || words > models.MaxWordCount {
				return fmt.Errorf("%w: got %d", models.ErrWordCountRange, words)
			}

			ctx := cmd.Context()
			client, err := ai.NewClient(ctx, a.cfg.ToServiceAI(), a.zl)
			if err != nil {
				return err
			}

			storyID := uuid.New()
			a.log.Info().Str("title", title).Int("words", words).Str("model", client.Model()).Msg("Analyzing story")
			result, err := analysis.NewPipeline(client, nil, a.zl).Analyze(ctx, models.StorySubmission{
				StoryID:   storyID.String(),
				Title:     title,
				Content:   content,
				WordCount: words,
			})
			if err != nil {
				return fmt.Errorf("analysis failed (%s): %w", ai.KindOf(err), err)
			}

			if save {
				store, closeLib, err := a.openLibrary(ctx)
				if err != nil {
					return err
				}
				defer closeLib()
				store.AddStory(ctx, models.Story{
					ID:        storyID,
					Title:     title,
					Content:   content,
					WordCount: words,
					Analysis:  result,
					Status:    models.StoryStatusComplete,
					CreatedAt: time.Now().UTC(),
				})
				a.log.Info().Str("id", storyID.String()).Msg("Story saved to library")
			}

			return render(cmd.OutOrStdout(), format, models.AnalyzeResponse{
				Success:  true,
				StoryID:  storyID.String(),
				Analysis: result,
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "story title (defaults to the file name)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().BoolVar(&save, "save", false, "add the analyzed story to the local library")
	return cmd
}
